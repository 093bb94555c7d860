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
	"log"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// DefaultDedupDecimals is the coordinate rounding used to deduplicate
// intersection points within one feature pair.
const DefaultDedupDecimals = 9

// MapTolerance converts a pixel count into display map units, for
// sizing the interactive tolerance from the current map resolution.
func MapTolerance(mapUnitsPerPixel float64, pixels int) float64 {
	return mapUnitsPerPixel * float64(pixels)
}

// InserterConfig configures an intersection-vertex pass.
type InserterConfig struct {
	// Tolerance is the coincidence tolerance ε in display CRS units,
	// typically MapTolerance(unitsPerPixel, 2). It is converted into
	// each layer's units before comparison.
	Tolerance float64

	// Decimals is the coordinate rounding used for per-pair point
	// deduplication. Zero or negative selects DefaultDedupDecimals.
	Decimals int
}

// InsertOutcome is the single summary outcome of an intersection pass.
type InsertOutcome int

const (
	// NoFeaturesFound means no candidate lines intersected inside the
	// rectangle.
	NoFeaturesFound InsertOutcome = iota
	// AlreadyShared means intersections exist but every vertex was
	// already shared.
	AlreadyShared
	// VerticesCreated means one or more vertices were inserted.
	VerticesCreated
)

func (o InsertOutcome) String() string {
	switch o {
	case NoFeaturesFound:
		return "no features found in the region"
	case AlreadyShared:
		return "vertices already exist at the intersections"
	case VerticesCreated:
		return "vertices created"
	}
	return "unknown"
}

// InsertReport summarizes one intersection pass.
type InsertReport struct {
	Outcome InsertOutcome
	Created int // vertices actually inserted
}

// insertLayer is the per-layer state of one intersection pass:
// spatial index, CRS transforms, candidate set, and layer-unit
// tolerance. Built fresh per invocation.
type insertLayer struct {
	layer    *Layer
	index    *layerIndex
	to, from proj.Transformer // layer ↔ display CRS
	cands    map[int]bool
	order    []int
	tol      float64
}

// InsertIntersectionVertices inserts a shared vertex into every line
// feature participating in a line-line intersection inside rect
// (display CRS), across all visible layers in layers. Same-layer and
// cross-layer intersections are both handled; collinear overlaps
// contribute their boundary endpoints. Vertices already present within
// tolerance are left alone, so the pass is idempotent.
//
// All mutations to one layer are grouped into a single undoable edit
// command. The returned report carries exactly one summary outcome.
func InsertIntersectionVertices(layers LayerSet, rect *geom.Bounds, displaySR *proj.SR, cfg InserterConfig) (*InsertReport, error) {
	if rect == nil || rect.Empty() {
		return nil, errUserInput("no selection rectangle")
	}
	if cfg.Decimals <= 0 {
		cfg.Decimals = DefaultDedupDecimals
	}
	refPt := geom.Point{
		X: (rect.Min.X + rect.Max.X) / 2,
		Y: (rect.Min.Y + rect.Max.Y) / 2,
	}

	var ctxs []*insertLayer
	for _, l := range layers.Visible() {
		to, from, err := layerTransforms(l.SR, displaySR)
		if err != nil {
			log.Printf("linetopo: layer %q: %v; skipping", l.Name, err)
			continue
		}
		rectLayer, err := transformBounds(from, rect)
		if err != nil {
			log.Printf("linetopo: transforming rectangle to layer %q: %v; skipping", l.Name, err)
			continue
		}
		ctx := &insertLayer{
			layer: l,
			index: buildLayerIndex(l, nil),
			to:    to,
			from:  from,
			cands: make(map[int]bool),
			tol:   toleranceInLayerUnits(from, cfg.Tolerance, refPt),
		}
		for _, ref := range ctx.index.search(rectLayer) {
			g, ok := l.Feature(ref.id)
			if !ok || len(g) < 2 {
				continue
			}
			ctx.cands[ref.id] = true
			ctx.order = append(ctx.order, ref.id)
		}
		ctxs = append(ctxs, ctx)
	}

	report := new(InsertReport)
	if len(ctxs) == 0 {
		report.Outcome = NoFeaturesFound
		return report, nil
	}

	for _, ctx := range ctxs {
		ctx.layer.StartEditing()
		if err := ctx.layer.BeginEditCommand("Insert vertices at intersections"); err != nil {
			return nil, err
		}
		defer ctx.layer.EndEditCommand()
	}

	hadIntersection := false
	for i, A := range ctxs {
		for j := i; j < len(ctxs); j++ {
			B := ctxs[j]
			created, hadAny := intersectLayerPair(A, B, rect, cfg.Decimals)
			report.Created += created
			hadIntersection = hadIntersection || hadAny
		}
	}

	switch {
	case report.Created > 0:
		report.Outcome = VerticesCreated
	case hadIntersection:
		report.Outcome = AlreadyShared
	default:
		report.Outcome = NoFeaturesFound
	}
	return report, nil
}

// intersectLayerPair processes every candidate feature pair between
// two layer contexts (which may be the same layer). Same-layer pairs
// are visited once via an id-ordering tie-break.
func intersectLayerPair(A, B *insertLayer, rect *geom.Bounds, decimals int) (created int, hadAny bool) {
	for _, fidA := range A.order {
		// Always work from the live geometry; earlier pairs in this
		// pass may have mutated it.
		gA, ok := A.layer.Feature(fidA)
		if !ok || len(gA) < 2 {
			continue
		}
		gADisp, err := transformLine(A.to, gA)
		if err != nil {
			continue
		}
		if !lineIntersectsRect(gADisp, rect) {
			continue
		}
		boxInB, err := transformBounds(B.from, gADisp.Bounds())
		if err != nil {
			continue
		}

		for _, ref := range B.index.search(boxInB) {
			fidB := ref.id
			if A.layer == B.layer && fidB <= fidA {
				continue
			}
			if !B.cands[fidB] {
				continue
			}
			gB, ok := B.layer.Feature(fidB)
			if !ok || len(gB) < 2 {
				continue
			}
			gBDisp, err := transformLine(B.to, gB)
			if err != nil {
				continue
			}
			if !lineIntersectsRect(gBDisp, rect) {
				continue
			}
			if !gADisp.Bounds().Overlaps(gBDisp.Bounds()) {
				continue
			}

			pts := extractPoints(lineIntersections(gADisp, gBDisp))
			if len(pts) == 0 {
				continue
			}
			hadAny = true

			seen := make(map[coordKey]bool, len(pts))
			for _, pt := range pts {
				key := roundCoordKey(pt, decimals)
				if seen[key] {
					continue
				}
				seen[key] = true
				created += insertAtPoint(A, fidA, pt)
				created += insertAtPoint(B, fidB, pt)
			}
		}
	}
	return created, hadAny
}

// insertAtPoint inserts a vertex for the display-CRS point pt into the
// given feature, re-fetching its current geometry first. It returns 1
// if a vertex was inserted and 0 otherwise. A failed transform drops
// the point for this feature only.
func insertAtPoint(ctx *insertLayer, fid int, pt geom.Point) int {
	p, err := transformPoint(ctx.from, pt)
	if err != nil {
		return 0
	}
	g, ok := ctx.layer.Feature(fid)
	if !ok || len(g) < 2 {
		return 0
	}
	newG, inserted := insertVertex(g, p, ctx.tol)
	if !inserted {
		return 0
	}
	if err := ctx.layer.ChangeGeometry(fid, newG); err != nil {
		log.Printf("linetopo: updating feature %d in layer %q: %v", fid, ctx.layer.Name, err)
		return 0
	}
	return 1
}
