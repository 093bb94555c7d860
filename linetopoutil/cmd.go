/*
Copyright © 2025 the linetopo authors.
This file is part of linetopo.

linetopo is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

linetopo is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with linetopo.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package linetopoutil wires the linetopo engine into a configurable
// command-line interface.
package linetopoutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/istools/linetopo"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// options are the configuration options available to linetopo.
	options := []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "GeoJSONProj",
			usage: `
              GeoJSONProj gives the spatial reference assigned to GeoJSON
              layers, in Proj4 format. GeoJSON files carry no projection
              information of their own. An empty value means the layer
              shares the display spatial reference.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory where modified layers are written
              as GeoJSON, one file per layer.`,
			defaultVal: "out",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SourceLayer",
			usage: `
              SourceLayer is the path to the layer whose dangling line
              endpoints should be extended (.shp or .geojson).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{extendCmd.Flags()},
		},
		{
			name: "TargetLayer",
			usage: `
              TargetLayer is the path to the layer to be touched by the
              extended endpoints. An empty value extends lines against
              the source layer itself.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{extendCmd.Flags()},
		},
		{
			name: "Selected",
			usage: `
              Selected lists the feature ids to extend. An empty list
              selects every feature in the source layer.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{extendCmd.Flags()},
		},
		{
			name: "MaxDistance",
			usage: `
              MaxDistance is how far past a dangling endpoint to search
              for a line to extend to, in source-layer map units.`,
			defaultVal: linetopo.DefaultMaxExtension,
			flagsets:   []*pflag.FlagSet{extendCmd.Flags()},
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance is the coincidence tolerance for the extender, in
              source-layer map units.`,
			defaultVal: linetopo.DefaultExtendTolerance,
			flagsets:   []*pflag.FlagSet{extendCmd.Flags()},
		},
		{
			name: "LayerFiles",
			usage: `
              LayerFiles lists the line layers participating in the
              intersection pass (.shp or .geojson).`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{intersectCmd.Flags()},
		},
		{
			name: "Rect",
			usage: `
              Rect is the selection rectangle in display map units, as
              "xmin,ymin,xmax,ymax". Corner order does not matter.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{intersectCmd.Flags()},
		},
		{
			name: "DisplayProj",
			usage: `
              DisplayProj gives the display spatial reference in Proj4
              format. The rectangle and the intersection tolerance are
              expressed in its units. An empty value uses the layers'
              own coordinates unchanged.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{intersectCmd.Flags()},
		},
		{
			name: "MapUnitsPerPixel",
			usage: `
              MapUnitsPerPixel is the current display resolution, used to
              scale the intersection tolerance the way an interactive
              map tool would.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{intersectCmd.Flags()},
		},
		{
			name: "TolerancePixels",
			usage: `
              TolerancePixels is the intersection tolerance in pixels at
              the current display resolution.`,
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{intersectCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LINETOPO")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(extendCmd)
	Root.AddCommand(intersectCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("linetopo: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "linetopo",
	Short: "Topology tools for polyline layers.",
	Long: `linetopo extends dangling line endpoints until they touch another
line, and inserts shared vertices at line-line intersections inside a
rectangle. Use the subcommands specified below to access the tools.

Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the
format 'LINETOPO_var' where 'var' is the name of the variable to be
set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of linetopo.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("linetopo v%s\n", linetopo.Version)
	},
	DisableAutoGenTag: true,
}

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend dangling line endpoints to touch another layer.",
	Long: `extend casts a ray from each dangling endpoint of the selected
features along its terminal bearing, and relocates the endpoint to the
nearest intersection with the target layer within MaxDistance. The
touched target feature receives a matching shared vertex.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath := Cfg.GetString("SourceLayer")
		if sourcePath == "" {
			return fmt.Errorf("linetopo: no source layer specified")
		}
		geojsonProj := Cfg.GetString("GeoJSONProj")
		source, err := LoadLayer(sourcePath, geojsonProj)
		if err != nil {
			return err
		}
		target := source
		if targetPath := Cfg.GetString("TargetLayer"); targetPath != "" && targetPath != sourcePath {
			if target, err = LoadLayer(targetPath, geojsonProj); err != nil {
				return err
			}
		}
		selected := cast.ToIntSlice(Cfg.Get("Selected"))
		if len(selected) == 0 {
			selected = source.FeatureIDs()
		}

		report, err := linetopo.ExtendLines(source, target, selected, linetopo.ExtenderConfig{
			MaxDistance: Cfg.GetFloat64("MaxDistance"),
			Tolerance:   Cfg.GetFloat64("Tolerance"),
		})
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"extended":    report.Extended,
			"shared":      report.SharedAdded,
			"connected":   report.Connected,
			"noCandidate": report.NoCandidate,
			"degenerate":  report.Degenerate,
		}).Info("extension pass finished")
		if !report.Changed() {
			logger.Info("no extension performed")
			return nil
		}
		return writeLayers(linetopo.LayerSet{source, target})
	},
}

var intersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Insert shared vertices at line-line intersections.",
	Long: `intersect inserts a vertex into every line feature participating
in a line-line intersection inside the selection rectangle, across all
given layers, unless a vertex already exists there. Running it twice
over the same region creates nothing new.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		// Failures beyond the engine's own taxonomy must not escape
		// the pass; partial work stays undoable in the layers.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("linetopo: unexpected failure: %v", r)
				logger.Error(err)
			}
		}()

		paths := Cfg.GetStringSlice("LayerFiles")
		if len(paths) == 0 {
			return fmt.Errorf("linetopo: no layer files specified")
		}
		rect, err := parseRect(Cfg.GetString("Rect"))
		if err != nil {
			return err
		}
		var displaySR *proj.SR
		if p := Cfg.GetString("DisplayProj"); p != "" {
			if displaySR, err = proj.Parse(p); err != nil {
				return fmt.Errorf("linetopo: parsing display projection: %v", err)
			}
		}

		geojsonProj := Cfg.GetString("GeoJSONProj")
		var layers linetopo.LayerSet
		for _, p := range paths {
			l, err := LoadLayer(p, geojsonProj)
			if err != nil {
				return err
			}
			layers = append(layers, l)
		}

		tol := linetopo.MapTolerance(Cfg.GetFloat64("MapUnitsPerPixel"), Cfg.GetInt("TolerancePixels"))
		report, err := linetopo.InsertIntersectionVertices(layers, rect, displaySR, linetopo.InserterConfig{
			Tolerance: tol,
		})
		if err != nil {
			return err
		}

		switch report.Outcome {
		case linetopo.VerticesCreated:
			logger.Infof("%d vertices created", report.Created)
			return writeLayers(layers)
		case linetopo.AlreadyShared:
			logger.Info("vertices already exist at the intersections")
		case linetopo.NoFeaturesFound:
			logger.Info("no features found in the region")
		}
		return nil
	},
}

// parseRect parses "xmin,ymin,xmax,ymax". The corners may be given in
// any order, as with a drag gesture.
func parseRect(s string) (*geom.Bounds, error) {
	if s == "" {
		return nil, fmt.Errorf("linetopo: no selection rectangle specified")
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("linetopo: rectangle %q must have 4 coordinates", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("linetopo: parsing rectangle %q: %v", s, err)
		}
		vals[i] = v
	}
	return &geom.Bounds{
		Min: geom.Point{X: math.Min(vals[0], vals[2]), Y: math.Min(vals[1], vals[3])},
		Max: geom.Point{X: math.Max(vals[0], vals[2]), Y: math.Max(vals[1], vals[3])},
	}, nil
}

// writeLayers saves each distinct layer to OutputDir as GeoJSON.
func writeLayers(layers linetopo.LayerSet) error {
	dir := Cfg.GetString("OutputDir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("linetopo: creating output directory: %v", err)
	}
	seen := make(map[*linetopo.Layer]bool)
	for _, l := range layers {
		if seen[l] {
			continue
		}
		seen[l] = true
		path := filepath.Join(dir, l.Name+".geojson")
		if err := SaveLayer(l, path); err != nil {
			return err
		}
		logger.WithField("path", path).Info("layer written")
	}
	return nil
}
