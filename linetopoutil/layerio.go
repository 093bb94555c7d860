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

package linetopoutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	geojson "github.com/paulmach/go.geojson"

	"github.com/istools/linetopo"
)

// LoadLayer reads a line layer from a shapefile or GeoJSON file,
// selecting the format from the file extension. Shapefiles carry their
// spatial reference in the companion .prj file; GeoJSON layers are
// assigned geojsonProj (Proj4 format; empty means the display
// reference).
func LoadLayer(path, geojsonProj string) (*linetopo.Layer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return loadShapefile(path)
	case ".geojson", ".json":
		return loadGeoJSON(path, geojsonProj)
	}
	return nil, fmt.Errorf("linetopoutil: unknown layer format %q", filepath.Ext(path))
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadShapefile(path string) (*linetopo.Layer, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("linetopoutil: opening %s: %v", path, err)
	}
	defer d.Close()

	sr, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("linetopoutil: reading spatial reference of %s: %v", path, err)
	}

	l := linetopo.NewLayer(layerName(path), sr)
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		addGeom(l, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("linetopoutil: reading %s: %v", path, err)
	}
	return l, nil
}

func loadGeoJSON(path, geojsonProj string) (*linetopo.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linetopoutil: reading %s: %v", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("linetopoutil: parsing %s: %v", path, err)
	}

	var sr *proj.SR
	if geojsonProj != "" {
		sr, err = proj.Parse(geojsonProj)
		if err != nil {
			return nil, fmt.Errorf("linetopoutil: parsing projection %q: %v", geojsonProj, err)
		}
	}

	l := linetopo.NewLayer(layerName(path), sr)
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch {
		case f.Geometry.IsLineString():
			l.AddFeature(coordsToLine(f.Geometry.LineString))
		case f.Geometry.IsMultiLineString():
			// Each part is an independently editable polyline.
			for _, part := range f.Geometry.MultiLineString {
				l.AddFeature(coordsToLine(part))
			}
		}
	}
	return l, nil
}

// addGeom appends a decoded shapefile geometry to the layer, splitting
// multi-part lines into one feature per part.
func addGeom(l *linetopo.Layer, g geom.Geom) {
	switch t := g.(type) {
	case geom.LineString:
		l.AddFeature(t)
	case geom.MultiLineString:
		for _, part := range t {
			l.AddFeature(part)
		}
	}
}

func coordsToLine(coords [][]float64) geom.LineString {
	line := make(geom.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		line = append(line, geom.Point{X: c[0], Y: c[1]})
	}
	return line
}

// SaveLayer writes a layer to a GeoJSON feature collection, one
// feature per polyline.
func SaveLayer(l *linetopo.Layer, path string) error {
	fc := geojson.NewFeatureCollection()
	for _, id := range l.FeatureIDs() {
		g, ok := l.Feature(id)
		if !ok {
			continue
		}
		coords := make([][]float64, len(g))
		for i, p := range g {
			coords[i] = []float64{p.X, p.Y}
		}
		f := geojson.NewLineStringFeature(coords)
		f.ID = id
		fc.AddFeature(f)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("linetopoutil: encoding %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("linetopoutil: writing %s: %v", path, err)
	}
	return nil
}
