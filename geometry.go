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
	"math"

	"github.com/ctessum/geom"
)

func dist(p, q geom.Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// segIntersection calculates the intersection of segments a0-a1 and
// b0-b1. n is the number of intersection points: 0 for disjoint or
// parallel segments, 1 for a crossing or touch, 2 for a collinear
// overlap, in which case p0 and p1 are the boundary endpoints of the
// overlapping portion.
func segIntersection(a0, a1, b0, b1 geom.Point) (n int, p0, p1 geom.Point) {
	d0 := geom.Point{X: a1.X - a0.X, Y: a1.Y - a0.Y}
	d1 := geom.Point{X: b1.X - b0.X, Y: b1.Y - b0.Y}
	e := geom.Point{X: b0.X - a0.X, Y: b0.Y - a0.Y}

	kross := d0.X*d1.Y - d0.Y*d1.X
	if kross != 0 {
		s := (e.X*d1.Y - e.Y*d1.X) / kross
		if s < 0 || s > 1 {
			return 0, p0, p1
		}
		t := (e.X*d0.Y - e.Y*d0.X) / kross
		if t < 0 || t > 1 {
			return 0, p0, p1
		}
		return 1, geom.Point{X: a0.X + s*d0.X, Y: a0.Y + s*d0.Y}, p1
	}

	// Parallel segments. If b0 is not on the line through a0-a1, the
	// segments lie on distinct lines.
	if e.X*d0.Y-e.Y*d0.X != 0 {
		return 0, p0, p1
	}

	sqrLen0 := d0.X*d0.X + d0.Y*d0.Y
	if sqrLen0 == 0 {
		// a is a single point; report a touch if it lies on b.
		if d, _ := pointSegDistance(a0, b0, b1); d == 0 {
			return 1, a0, p1
		}
		return 0, p0, p1
	}

	// Collinear. Project b onto a's parameter space and clip to [0,1].
	s0 := (d0.X*e.X + d0.Y*e.Y) / sqrLen0
	s1 := s0 + (d0.X*d1.X+d0.Y*d1.Y)/sqrLen0
	lo := math.Min(s0, s1)
	hi := math.Max(s0, s1)
	lo = math.Max(lo, 0)
	hi = math.Min(hi, 1)
	if lo > hi {
		return 0, p0, p1
	}
	p0 = geom.Point{X: a0.X + lo*d0.X, Y: a0.Y + lo*d0.Y}
	if lo == hi {
		return 1, p0, p1
	}
	p1 = geom.Point{X: a0.X + hi*d0.X, Y: a0.Y + hi*d0.Y}
	return 2, p0, p1
}

// intersectionResult is a tagged representation of the outcome of
// intersecting two polylines: a point, several points, a collinear
// overlap, or a collection of any of these.
type intersectionResult interface {
	appendPoints(pts []geom.Point) []geom.Point
}

type pointResult geom.Point

func (r pointResult) appendPoints(pts []geom.Point) []geom.Point {
	return append(pts, geom.Point(r))
}

type multiPointResult []geom.Point

func (r multiPointResult) appendPoints(pts []geom.Point) []geom.Point {
	return append(pts, r...)
}

// overlapResult is a collinear overlap between two segments. Only its
// boundary endpoints become shared vertices.
type overlapResult struct {
	p0, p1 geom.Point
}

func (r overlapResult) appendPoints(pts []geom.Point) []geom.Point {
	return append(pts, r.p0, r.p1)
}

type collectionResult []intersectionResult

func (r collectionResult) appendPoints(pts []geom.Point) []geom.Point {
	for _, m := range r {
		pts = m.appendPoints(pts)
	}
	return pts
}

// extractPoints flattens an intersection result into the points where
// shared vertices belong.
func extractPoints(r intersectionResult) []geom.Point {
	if r == nil {
		return nil
	}
	return r.appendPoints(nil)
}

// lineIntersections intersects two polylines segment by segment.
// Crossings are gathered into a point or multi-point member; each
// collinear overlap becomes its own member. A nil result means the
// polylines do not intersect.
func lineIntersections(a, b geom.LineString) intersectionResult {
	var crossings []geom.Point
	var result collectionResult
	for i := 0; i < len(a)-1; i++ {
		if a[i] == a[i+1] {
			continue
		}
		for j := 0; j < len(b)-1; j++ {
			if b[j] == b[j+1] {
				continue
			}
			n, p0, p1 := segIntersection(a[i], a[i+1], b[j], b[j+1])
			switch n {
			case 1:
				crossings = append(crossings, p0)
			case 2:
				result = append(result, overlapResult{p0: p0, p1: p1})
			}
		}
	}
	switch len(crossings) {
	case 0:
	case 1:
		result = append(result, pointResult(crossings[0]))
	default:
		result = append(result, multiPointResult(crossings))
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// pointSegDistance returns the distance from p to segment a-b and the
// closest point on the segment.
func pointSegDistance(p, a, b geom.Point) (float64, geom.Point) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	sqrLen := dx*dx + dy*dy
	if sqrLen == 0 {
		return dist(p, a), a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / sqrLen
	t = math.Max(0, math.Min(1, t))
	closest := geom.Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return dist(p, closest), closest
}

// pointLineDistance returns the minimum distance from p to any segment
// of line.
func pointLineDistance(p geom.Point, line geom.LineString) float64 {
	if len(line) == 1 {
		return dist(p, line[0])
	}
	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d, _ := pointSegDistance(p, line[i], line[i+1]); d < min {
			min = d
		}
	}
	return min
}

// nearestSegment returns the index i of the segment line[i]-line[i+1]
// closest to p, the distance to it, and the closest point on it.
// A new vertex for p belongs at index i+1.
func nearestSegment(line geom.LineString, p geom.Point) (int, float64, geom.Point) {
	best := -1
	bestDist := math.Inf(1)
	var bestPt geom.Point
	for i := 0; i < len(line)-1; i++ {
		d, closest := pointSegDistance(p, line[i], line[i+1])
		if d < bestDist {
			best = i
			bestDist = d
			bestPt = closest
		}
	}
	return best, bestDist, bestPt
}

// hasVertexNear reports whether line already has a vertex within tol
// of p.
func hasVertexNear(line geom.LineString, p geom.Point, tol float64) bool {
	t2 := tol * tol
	for _, v := range line {
		dx := v.X - p.X
		dy := v.Y - p.Y
		if dx*dx+dy*dy < t2 {
			return true
		}
	}
	return false
}

// insertVertex inserts p into line at its nearest segment, unless a
// vertex already exists within tol. It returns the new polyline and
// whether an insertion happened. The no-existing-vertex guard also
// keeps consecutive vertices from coinciding.
func insertVertex(line geom.LineString, p geom.Point, tol float64) (geom.LineString, bool) {
	if len(line) < 2 {
		return line, false
	}
	if hasVertexNear(line, p, tol) {
		return line, false
	}
	i, _, _ := nearestSegment(line, p)
	if i < 0 {
		return line, false
	}
	out := make(geom.LineString, 0, len(line)+1)
	out = append(out, line[:i+1]...)
	out = append(out, p)
	out = append(out, line[i+1:]...)
	return out, true
}

// coordKey is a deduplication key for a point rounded to a fixed
// number of decimal places.
type coordKey struct {
	x, y float64
}

func roundCoordKey(p geom.Point, decimals int) coordKey {
	f := math.Pow(10, float64(decimals))
	return coordKey{
		x: math.Round(p.X*f) / f,
		y: math.Round(p.Y*f) / f,
	}
}

// boundsContain reports whether p is inside or on the boundary of b.
func boundsContain(b *geom.Bounds, p geom.Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// lineIntersectsRect reports whether any part of line lies inside or
// crosses the axis-aligned rectangle b.
func lineIntersectsRect(line geom.LineString, b *geom.Bounds) bool {
	for _, v := range line {
		if boundsContain(b, v) {
			return true
		}
	}
	corners := [4]geom.Point{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
	for i := 0; i < len(line)-1; i++ {
		for j := 0; j < 4; j++ {
			if n, _, _ := segIntersection(line[i], line[i+1], corners[j], corners[(j+1)%4]); n > 0 {
				return true
			}
		}
	}
	return false
}
