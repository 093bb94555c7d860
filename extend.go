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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

const (
	// DefaultMaxExtension is the default search distance for dangling
	// endpoints, in source-layer map units.
	DefaultMaxExtension = 10000.

	// DefaultExtendTolerance is the default coincidence tolerance ε
	// for the batch extender, in source-layer map units.
	DefaultExtendTolerance = 1e-9
)

// ExtenderConfig configures an endpoint extension pass. All values are
// in the source layer's map units.
type ExtenderConfig struct {
	// MaxDistance is how far past a dangling endpoint to search along
	// the terminal tangent. Zero or negative selects
	// DefaultMaxExtension.
	MaxDistance float64

	// Tolerance is the coincidence tolerance ε. Zero or negative
	// selects DefaultExtendTolerance.
	Tolerance float64

	// ViewExtent optionally restricts the pass: features whose
	// bounding box misses it are skipped, and intersections found
	// outside it are discarded.
	ViewExtent *geom.Bounds
}

// ExtendReport summarizes one extension pass. Per-endpoint outcomes
// are counted, never raised as errors.
type ExtendReport struct {
	Extended     int // endpoints relocated to an intersection
	SharedAdded  int // matching vertices inserted into target features
	Connected    int // endpoints that already touched another feature
	NoCandidate  int // endpoints with no qualifying intersection in range
	Degenerate   int // features or terminal segments too malformed to process
	OutOfView    int // features or intersections outside ViewExtent
	TransformErr int // candidates dropped because a CRS transform failed
}

// Changed reports whether the pass mutated any geometry.
func (r *ExtendReport) Changed() bool { return r.Extended > 0 || r.SharedAdded > 0 }

// extender holds the ephemeral state of one extension pass. It is
// built fresh per invocation and never reused.
type extender struct {
	source, target *Layer
	cfg            ExtenderConfig
	index          *layerIndex
	tgtToSrc       proj.Transformer // target layer CRS → source layer CRS
	srcToTgt       proj.Transformer
	report         *ExtendReport
}

// ExtendLines extends the dangling endpoints of the selected features
// in source until they meet a feature of target, inserting a matching
// shared vertex into the touched target feature. Both endpoints of each
// feature are resolved independently. source and target may be the
// same layer, in which case the selected features are not candidates
// for being touched.
//
// All changes to each layer are grouped into a single undoable edit
// command; layers are placed into an edit session if they are not
// already in one.
func ExtendLines(source, target *Layer, selected []int, cfg ExtenderConfig) (*ExtendReport, error) {
	if source == nil {
		return nil, errUserInput("no source layer")
	}
	if target == nil {
		return nil, errUserInput("no target layer")
	}
	if len(selected) == 0 {
		return nil, errUserInput("no lines selected")
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultMaxExtension
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultExtendTolerance
	}

	tgtToSrc, srcToTgt, err := layerTransforms(target.SR, source.SR)
	if err != nil {
		return nil, err
	}

	selectedSet := make(map[int]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	var skip func(id int) bool
	if target == source {
		skip = func(id int) bool { return selectedSet[id] }
	}

	e := &extender{
		source:   source,
		target:   target,
		cfg:      cfg,
		index:    buildLayerIndex(target, skip),
		tgtToSrc: tgtToSrc,
		srcToTgt: srcToTgt,
		report:   new(ExtendReport),
	}

	source.StartEditing()
	target.StartEditing()
	if err := source.BeginEditCommand("Extend lines"); err != nil {
		return nil, err
	}
	defer source.EndEditCommand()
	if target != source {
		if err := target.BeginEditCommand("Extend lines"); err != nil {
			return nil, err
		}
		defer target.EndEditCommand()
	}

	for _, id := range selected {
		e.extendFeature(id)
	}
	return e.report, nil
}

func (e *extender) extendFeature(id int) {
	g, ok := e.source.Feature(id)
	if !ok || len(g) < 2 {
		log.Printf("%v; skipping", &GeometryDegenerateError{
			Layer: e.source.Name, FeatureID: id, Reason: "fewer than 2 vertices",
		})
		e.report.Degenerate++
		return
	}
	if e.cfg.ViewExtent != nil && !g.Bounds().Overlaps(e.cfg.ViewExtent) {
		log.Printf("linetopo: feature %d in layer %q is outside the view extent; skipping", id, e.source.Name)
		e.report.OutOfView++
		return
	}
	// The endpoints are resolved independently. The geometry is
	// re-fetched for the second endpoint because the first may have
	// prepended a vertex.
	e.extendEndpoint(id, true)
	e.extendEndpoint(id, false)
}

// extendEndpoint runs the extension state machine for one endpoint of
// one feature: connectivity check, terminal tangent, candidate search,
// and application.
func (e *extender) extendEndpoint(id int, start bool) {
	g, ok := e.source.Feature(id)
	if !ok || len(g) < 2 {
		return
	}

	var p, neighbor geom.Point
	if start {
		p, neighbor = g[0], g[1]
	} else {
		p, neighbor = g[len(g)-1], g[len(g)-2]
	}

	if e.connected(p) {
		e.report.Connected++
		return
	}

	dx := p.X - neighbor.X
	dy := p.Y - neighbor.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		log.Printf("%v; skipping endpoint", &GeometryDegenerateError{
			Layer: e.source.Name, FeatureID: id, Reason: "zero-length terminal segment",
		})
		e.report.Degenerate++
		return
	}
	ux, uy := dx/length, dy/length

	hit, targetID, found := e.findClosestIntersection(id, p, ux, uy)
	if !found {
		e.report.NoCandidate++
		return
	}
	if e.cfg.ViewExtent != nil && !boundsContain(e.cfg.ViewExtent, hit) {
		log.Printf("linetopo: intersection for feature %d in layer %q is outside the view extent; skipping endpoint", id, e.source.Name)
		e.report.OutOfView++
		return
	}

	extended := make(geom.LineString, 0, len(g)+1)
	if start {
		extended = append(extended, hit)
		extended = append(extended, g...)
	} else {
		extended = append(extended, g...)
		extended = append(extended, hit)
	}
	if err := e.source.ChangeGeometry(id, extended); err != nil {
		log.Printf("linetopo: updating feature %d in layer %q: %v", id, e.source.Name, err)
		return
	}
	e.report.Extended++

	e.insertSharedVertex(targetID, hit)
}

// connected reports whether p (source layer CRS) already lies within
// tolerance of an indexed target feature.
func (e *extender) connected(p geom.Point) bool {
	box := bufferBounds(geom.NewBoundsPoint(p), e.cfg.Tolerance)
	for _, ref := range e.refsInSourceFrame(box) {
		if pointLineDistance(p, ref.geom) <= e.cfg.Tolerance {
			return true
		}
	}
	return false
}

// candidate is a target feature with its live geometry transformed
// into the source layer's CRS.
type candidate struct {
	id   int
	geom geom.LineString
}

// refsInSourceFrame queries the target index with a source-frame
// bounding box and returns the live candidate geometries in the source
// frame. Candidates whose transform fails are dropped.
func (e *extender) refsInSourceFrame(box *geom.Bounds) []candidate {
	queryBox, err := transformBounds(e.srcToTgt, box)
	if err != nil {
		e.report.TransformErr++
		return nil
	}
	refs := e.index.search(queryBox)
	out := make([]candidate, 0, len(refs))
	for _, ref := range refs {
		g, ok := e.target.Feature(ref.id)
		if !ok || len(g) < 2 {
			continue
		}
		gs, err := transformLine(e.tgtToSrc, g)
		if err != nil {
			e.report.TransformErr++
			continue
		}
		out = append(out, candidate{id: ref.id, geom: gs})
	}
	return out
}

// findClosestIntersection casts a ray of length MaxDistance from p
// along (ux, uy) and returns the nearest qualifying intersection with
// a target feature. Points behind the endpoint (non-positive dot
// product with the tangent) or within tolerance of it are rejected.
// Exact distance ties go to the lower feature id.
func (e *extender) findClosestIntersection(sourceID int, p geom.Point, ux, uy float64) (geom.Point, int, bool) {
	ray := geom.LineString{
		p,
		{X: p.X + e.cfg.MaxDistance*ux, Y: p.Y + e.cfg.MaxDistance*uy},
	}
	box := bufferBounds(ray.Bounds(), e.cfg.Tolerance)

	bestDist := math.Inf(1)
	bestID := -1
	var best geom.Point
	for _, cand := range e.refsInSourceFrame(box) {
		if e.target == e.source && cand.id == sourceID {
			continue
		}
		for _, ip := range extractPoints(lineIntersections(ray, cand.geom)) {
			dot := (ip.X-p.X)*ux + (ip.Y-p.Y)*uy
			if dot <= 0 {
				continue
			}
			d := dist(p, ip)
			if d <= e.cfg.Tolerance {
				continue
			}
			if d < bestDist || (d == bestDist && cand.id < bestID) {
				bestDist = d
				bestID = cand.id
				best = ip
			}
		}
	}
	return best, bestID, bestID >= 0
}

// insertSharedVertex inserts a vertex into the touched target feature
// at hit (source layer CRS), unless one already exists there within
// tolerance.
func (e *extender) insertSharedVertex(targetID int, hit geom.Point) {
	pt, err := transformPoint(e.srcToTgt, hit)
	if err != nil {
		e.report.TransformErr++
		return
	}
	g, ok := e.target.Feature(targetID)
	if !ok {
		return
	}
	tol := toleranceInLayerUnits(e.srcToTgt, e.cfg.Tolerance, hit)
	newG, inserted := insertVertex(g, pt, tol)
	if !inserted {
		return
	}
	if err := e.target.ChangeGeometry(targetID, newG); err != nil {
		log.Printf("linetopo: updating feature %d in layer %q: %v", targetID, e.target.Name, err)
		return
	}
	e.report.SharedAdded++
}
