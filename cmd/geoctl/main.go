// Command geoctl is the operator CLI for GoMeasure. It runs the address
// resolver and the area calculator outside the HTTP service and prints the
// effective configuration.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gomeasure/internal/config"
	"gomeasure/internal/external"
	"gomeasure/internal/geocode"
	"gomeasure/internal/measure"
	"gomeasure/internal/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "geoctl",
		Short:         "Resolve addresses and measure outlines from the command line",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	rootCmd.AddCommand(resolveCmd(opts))
	rootCmd.AddCommand(areaCmd())
	rootCmd.AddCommand(configCmd(opts))
	return rootCmd
}

func (o *rootOptions) load() (*config.Loaded, error) {
	if o.envFile != "" {
		return config.LoadConfig(o.envFile)
	}
	return config.LoadConfig()
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	lvl := slog.LevelWarn
	if o.verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func resolveCmd(opts *rootOptions) *cobra.Command {
	var labels bool

	cmd := &cobra.Command{
		Use:   "resolve [query...]",
		Short: "Resolve free text to address candidates in the configured region",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.load()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			registry, err := external.NewClientRegistry(loaded.Config, logger)
			if err != nil {
				return err
			}
			g := loaded.Geocoder
			resolver := geocode.NewResolver(
				registry.Geocoder,
				geocode.NewCache(g.CacheTTL, g.CacheMaxEntries),
				geocode.ResolverConfig{
					Region:        loaded.Region,
					ResultCap:     g.ResultCap,
					UpstreamLimit: g.UpstreamLimit,
					Timeout:       g.ResolveTimeout,
				},
				logger,
			)

			candidates := resolver.Resolve(cmd.Context(), strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if labels {
				for _, c := range candidates {
					fmt.Fprintln(out, c.Label(loaded.Region.Code))
				}
				return nil
			}
			return writeJSON(out, candidates)
		},
	}

	cmd.Flags().BoolVar(&labels, "labels", false, "print one formatted address per line instead of JSON")
	return cmd
}

// areaResult is the JSON output of the area command.
type areaResult struct {
	Vertices     int     `json:"vertices"`
	SquareMeters float64 `json:"square_meters"`
	SquareFeet   int64   `json:"square_feet"`
}

func areaCmd() *cobra.Command {
	var (
		points []string
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "area",
		Short: "Measure a polygon given as --point lat,lon flags or a JSON file",
		Example: "  geoctl area --point 38.578,-121.487 --point 38.578,-121.4867 --point 38.5783,-121.4867\n" +
			"  geoctl area --file lot.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			ring, err := loadRing(points, file)
			if err != nil {
				return err
			}
			if err := types.ValidateRing(ring); err != nil {
				return err
			}

			res := areaResult{
				Vertices:     len(ring),
				SquareMeters: measure.Area(ring),
				SquareFeet:   measure.DisplaySquareFeet(ring),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "%.2f m2\n%d sq ft\n", res.SquareMeters, res.SquareFeet)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&points, "point", nil, "vertex as lat,lon (repeatable, in drawing order)")
	cmd.Flags().StringVar(&file, "file", "", `JSON file holding [{"lat":..,"lon":..}] or {"ring":[...]}`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.MarkFlagsMutuallyExclusive("point", "file")
	cmd.MarkFlagsOneRequired("point", "file")
	return cmd
}

func configCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.load()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), loaded)
		},
	}
}

func loadRing(points []string, file string) (types.Ring, error) {
	if file == "" {
		ring := make(types.Ring, 0, len(points))
		for _, p := range points {
			ll, err := parsePoint(p)
			if err != nil {
				return nil, err
			}
			ring = append(ring, ll)
		}
		return ring, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading ring file: %w", err)
	}
	return parseRingJSON(data)
}

// parseRingJSON accepts a bare vertex array or the /v1/area request body.
func parseRingJSON(data []byte) (types.Ring, error) {
	var ring types.Ring
	if err := json.Unmarshal(data, &ring); err == nil {
		return ring, nil
	}
	var wrapped struct {
		Ring types.Ring `json:"ring"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing ring file: %w", err)
	}
	return wrapped.Ring, nil
}

func parsePoint(s string) (types.LatLon, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return types.LatLon{}, fmt.Errorf("point %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return types.LatLon{}, fmt.Errorf("point %q: latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return types.LatLon{}, fmt.Errorf("point %q: longitude: %w", s, err)
	}
	return types.LatLon{Lat: lat, Lon: lon}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
