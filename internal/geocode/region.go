package geocode

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"gomeasure/internal/types"
)

// RegionSpec describes the single administrative region searches are
// constrained to.
type RegionSpec struct {
	// Code is the short subdivision code, e.g. "CA".
	Code string `yaml:"code" validate:"required,max=6"`
	// Name is the full subdivision name, e.g. "California".
	Name string `yaml:"name" validate:"required"`
	// CountryCodes restricts upstream searches (ISO 3166-1 alpha-2, lower case).
	CountryCodes []string `yaml:"country_codes" validate:"required,min=1,dive,len=2"`
	// Bounds is the search viewbox.
	Bounds types.BoundingBox `yaml:"bounds"`
}

// DefaultRegion returns the California region used when no override is configured.
func DefaultRegion() RegionSpec {
	return RegionSpec{
		Code:         types.DefaultRegionCode,
		Name:         types.DefaultRegionName,
		CountryCodes: []string{types.DefaultCountry},
		Bounds:       types.CaliforniaBounds,
	}
}

// Validate checks the region definition.
func (r RegionSpec) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("invalid region %q: %w", r.Code, err)
	}
	return nil
}

// regionFile is the on-disk YAML layout:
//
//	region:
//	  code: CA
//	  name: California
//	  country_codes: [us]
//	  bounds: {min_lon: -124.48, min_lat: 32.53, max_lon: -114.13, max_lat: 42.01}
type regionFile struct {
	Region RegionSpec `yaml:"region"`
}

// LoadRegionFile reads a region definition from a YAML file.
func LoadRegionFile(path string) (RegionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionSpec{}, fmt.Errorf("reading region file: %w", err)
	}
	return ParseRegion(data)
}

// ParseRegion decodes and validates a YAML region definition.
func ParseRegion(data []byte) (RegionSpec, error) {
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RegionSpec{}, fmt.Errorf("decoding region file: %w", err)
	}
	r := f.Region
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	for i, cc := range r.CountryCodes {
		r.CountryCodes[i] = strings.ToLower(strings.TrimSpace(cc))
	}
	if err := r.Validate(); err != nil {
		return RegionSpec{}, err
	}
	return r, nil
}
