package types

import "strings"

// LatLon is a single geographic vertex in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Ring is an ordered sequence of vertices describing one closed polygon
// boundary. The last vertex is implicitly connected back to the first.
type Ring []LatLon

// BoundingBox is a lon/lat rectangle used to constrain upstream searches.
type BoundingBox struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon" validate:"longitude"`
	MinLat float64 `json:"min_lat" yaml:"min_lat" validate:"latitude"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon" validate:"longitude,gtfield=MinLon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat" validate:"latitude,gtfield=MinLat"`
}

// RawAddress is the structured address breakdown of an upstream search hit.
// Every field is optional; absent fields decode to the empty string.
type RawAddress struct {
	HouseNumber  string `json:"house_number,omitempty"`
	Road         string `json:"road,omitempty"`
	Pedestrian   string `json:"pedestrian,omitempty"`
	Footway      string `json:"footway,omitempty"`
	Path         string `json:"path,omitempty"`
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Village      string `json:"village,omitempty"`
	Hamlet       string `json:"hamlet,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	County       string `json:"county,omitempty"`
	State        string `json:"state,omitempty"`
	StateCode    string `json:"state_code,omitempty"`
	ISO3166Lvl4  string `json:"ISO3166-2-lvl4,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

// RawCandidate is one record of the upstream geocoder's search response.
// It is ephemeral: it is discarded once shaped into an AddressCandidate.
type RawCandidate struct {
	DisplayName string     `json:"display_name"`
	Name        string     `json:"name,omitempty"`
	Lat         string     `json:"lat"`
	Lon         string     `json:"lon"`
	Class       string     `json:"class,omitempty"`
	Category    string     `json:"category,omitempty"`
	Type        string     `json:"type,omitempty"`
	AddressType string     `json:"addresstype,omitempty"`
	Address     RawAddress `json:"address"`
}

// PlaceClass returns the coarse place tag. Nominatim reports it as "class"
// in the json format and as "category" in jsonv2.
func (c RawCandidate) PlaceClass() string {
	if c.Class != "" {
		return c.Class
	}
	return c.Category
}

// RegionCode returns the subdivision code of the address, preferring the
// explicit state_code and falling back to the suffix of ISO3166-2-lvl4
// ("US-CA" -> "CA").
func (a RawAddress) RegionCode() string {
	if a.StateCode != "" {
		return a.StateCode
	}
	if i := strings.LastIndexByte(a.ISO3166Lvl4, '-'); i >= 0 {
		return a.ISO3166Lvl4[i+1:]
	}
	return a.ISO3166Lvl4
}

// AddressCandidate is the canonical address record returned to clients.
// Primary is never empty for a candidate that left the shaper.
type AddressCandidate struct {
	Primary string  `json:"primary"`
	City    string  `json:"city"`
	Zip     string  `json:"zip"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label renders the one-line address shown in pick lists,
// e.g. "220 Pine St, Sacramento, CA 95814".
func (a AddressCandidate) Label(regionCode string) string {
	parts := make([]string, 0, 3)
	if a.Primary != "" {
		parts = append(parts, a.Primary)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(regionCode + " " + a.Zip)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// GeocodeRequest is the constrained search issued to the upstream geocoder.
type GeocodeRequest struct {
	Query          string
	CountryCodes   []string
	ViewBox        BoundingBox
	Bounded        bool
	Limit          int
	AddressDetails bool
}
