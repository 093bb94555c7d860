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

package linetopo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// identityTransform passes coordinates through unchanged. It stands in
// for layers that share the display spatial reference.
func identityTransform(X, Y float64) (float64, float64, error) {
	return X, Y, nil
}

// layerTransforms returns the forward (layer→display) and inverse
// (display→layer) transforms for a layer. A nil layer or display SR
// means the two references coincide.
func layerTransforms(layerSR, displaySR *proj.SR) (to, from proj.Transformer, err error) {
	if layerSR == nil || displaySR == nil {
		return identityTransform, identityTransform, nil
	}
	to, err = layerSR.NewTransform(displaySR)
	if err != nil {
		return nil, nil, fmt.Errorf("linetopo: creating layer→display transform: %v", err)
	}
	from, err = displaySR.NewTransform(layerSR)
	if err != nil {
		return nil, nil, fmt.Errorf("linetopo: creating display→layer transform: %v", err)
	}
	// proj.SR.NewTransform returns a nil Transformer (and nil error)
	// when the two references are equal.
	if to == nil {
		to = identityTransform
	}
	if from == nil {
		from = identityTransform
	}
	return to, from, nil
}

func transformPoint(t proj.Transformer, p geom.Point) (geom.Point, error) {
	x, y, err := t(p.X, p.Y)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}

func transformLine(t proj.Transformer, line geom.LineString) (geom.LineString, error) {
	out := make(geom.LineString, len(line))
	for i, p := range line {
		q, err := transformPoint(t, p)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// transformBounds transforms an axis-aligned rectangle by transforming
// all four corners and taking their extent, so rotation or skew in the
// transform cannot lose coverage.
func transformBounds(t proj.Transformer, b *geom.Bounds) (*geom.Bounds, error) {
	corners := []geom.Point{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
	out := geom.NewBounds()
	for _, c := range corners {
		p, err := transformPoint(t, c)
		if err != nil {
			return nil, err
		}
		out.Extend(geom.NewBoundsPoint(p))
	}
	return out, nil
}

// toleranceInLayerUnits converts a tolerance expressed in display units
// into the layer's units, measured near ref (a display-CRS point,
// typically the center of the selection rectangle). If the conversion
// fails or degenerates, the display-unit value is used as-is.
func toleranceInLayerUnits(from proj.Transformer, tol float64, ref geom.Point) float64 {
	p1, err := transformPoint(from, ref)
	if err != nil {
		return tol
	}
	p2, err := transformPoint(from, geom.Point{X: ref.X + tol, Y: ref.Y})
	if err != nil {
		return tol
	}
	d := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	if d <= 0 {
		return tol
	}
	return d
}
