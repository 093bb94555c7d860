package linetopo

import (
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSegIntersectionCrossing(t *testing.T) {
	n, p, _ := segIntersection(
		geom.Point{X: -1, Y: -1}, geom.Point{X: 1, Y: 1},
		geom.Point{X: -1, Y: 1}, geom.Point{X: 1, Y: -1},
	)
	if n != 1 {
		t.Fatalf("want 1 intersection, got %d", n)
	}
	if !scalar.EqualWithinAbs(p.X, 0, 1e-12) || !scalar.EqualWithinAbs(p.Y, 0, 1e-12) {
		t.Errorf("want (0,0), got %v", p)
	}
}

func TestSegIntersectionDisjoint(t *testing.T) {
	cases := []struct {
		name           string
		a0, a1, b0, b1 geom.Point
	}{
		{
			name: "separated",
			a0:   geom.Point{X: 0, Y: 0}, a1: geom.Point{X: 1, Y: 0},
			b0: geom.Point{X: 0, Y: 1}, b1: geom.Point{X: 1, Y: 2},
		},
		{
			name: "parallel",
			a0:   geom.Point{X: 0, Y: 0}, a1: geom.Point{X: 1, Y: 0},
			b0: geom.Point{X: 0, Y: 1}, b1: geom.Point{X: 1, Y: 1},
		},
		{
			name: "collinear gap",
			a0:   geom.Point{X: 0, Y: 0}, a1: geom.Point{X: 1, Y: 0},
			b0: geom.Point{X: 2, Y: 0}, b1: geom.Point{X: 3, Y: 0},
		},
		{
			name: "crossing lines but short segments",
			a0:   geom.Point{X: 0, Y: 0}, a1: geom.Point{X: 1, Y: 1},
			b0: geom.Point{X: 3, Y: 2}, b1: geom.Point{X: 2, Y: 3},
		},
	}
	for _, c := range cases {
		if n, _, _ := segIntersection(c.a0, c.a1, c.b0, c.b1); n != 0 {
			t.Errorf("%s: want 0 intersections, got %d", c.name, n)
		}
	}
}

func TestSegIntersectionTouch(t *testing.T) {
	// b starts exactly on a.
	n, p, _ := segIntersection(
		geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0},
		geom.Point{X: 5, Y: 0}, geom.Point{X: 5, Y: 7},
	)
	if n != 1 {
		t.Fatalf("want 1 intersection, got %d", n)
	}
	want := geom.Point{X: 5, Y: 0}
	if !scalar.EqualWithinAbs(p.X, want.X, 1e-12) || !scalar.EqualWithinAbs(p.Y, want.Y, 1e-12) {
		t.Errorf("want %v, got %v", want, p)
	}
}

func TestSegIntersectionCollinearOverlap(t *testing.T) {
	n, p0, p1 := segIntersection(
		geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0},
		geom.Point{X: 5, Y: 0}, geom.Point{X: 15, Y: 0},
	)
	if n != 2 {
		t.Fatalf("want 2 boundary points, got %d", n)
	}
	if p0.X != 5 || p0.Y != 0 || p1.X != 10 || p1.Y != 0 {
		t.Errorf("want (5,0)-(10,0), got %v-%v", p0, p1)
	}

	// Collinear segments meeting at a single point overlap in a point.
	n, p0, _ = segIntersection(
		geom.Point{X: 0, Y: 0}, geom.Point{X: 5, Y: 0},
		geom.Point{X: 5, Y: 0}, geom.Point{X: 9, Y: 0},
	)
	if n != 1 || p0.X != 5 || p0.Y != 0 {
		t.Errorf("touching collinear: want 1 point at (5,0), got n=%d p=%v", n, p0)
	}
}

func TestExtractPointsRecursion(t *testing.T) {
	r := collectionResult{
		pointResult{X: 1, Y: 1},
		multiPointResult{{X: 2, Y: 2}, {X: 3, Y: 3}},
		overlapResult{p0: geom.Point{X: 4, Y: 4}, p1: geom.Point{X: 5, Y: 5}},
		collectionResult{pointResult{X: 6, Y: 6}},
	}
	pts := extractPoints(r)
	want := []geom.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}, {X: 5, Y: 5}, {X: 6, Y: 6}}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("want %v, got %v", want, pts)
	}
	if pts := extractPoints(nil); pts != nil {
		t.Errorf("nil result: want no points, got %v", pts)
	}
}

func TestLineIntersections(t *testing.T) {
	a := geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}}
	b := geom.LineString{{X: 2, Y: -1}, {X: 2, Y: 1}, {X: 7, Y: 1}, {X: 7, Y: -1}}
	pts := extractPoints(lineIntersections(a, b))
	if len(pts) != 2 {
		t.Fatalf("want 2 crossings, got %v", pts)
	}
	want := []geom.Point{{X: 2, Y: 0}, {X: 7, Y: 0}}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("want %v, got %v", want, pts)
	}

	if r := lineIntersections(a, geom.LineString{{X: 0, Y: 5}, {X: 10, Y: 5}}); r != nil {
		t.Errorf("disjoint lines: want nil, got %v", r)
	}

	// Zero-length segments must not confuse the pairing.
	c := geom.LineString{{X: 5, Y: -1}, {X: 5, Y: -1}, {X: 5, Y: 1}}
	pts = extractPoints(lineIntersections(a, c))
	if len(pts) != 1 || pts[0].X != 5 || pts[0].Y != 0 {
		t.Errorf("want one crossing at (5,0), got %v", pts)
	}
}

func TestPointSegDistance(t *testing.T) {
	d, closest := pointSegDistance(geom.Point{X: 5, Y: 3}, geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0})
	if !scalar.EqualWithinAbs(d, 3, 1e-12) {
		t.Errorf("want distance 3, got %g", d)
	}
	if !scalar.EqualWithinAbs(closest.X, 5, 1e-12) || !scalar.EqualWithinAbs(closest.Y, 0, 1e-12) {
		t.Errorf("want closest (5,0), got %v", closest)
	}

	// Beyond the segment end, distance is to the endpoint.
	d, closest = pointSegDistance(geom.Point{X: 14, Y: 3}, geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0})
	if !scalar.EqualWithinAbs(d, 5, 1e-12) || closest.X != 10 {
		t.Errorf("want distance 5 to (10,0), got %g to %v", d, closest)
	}

	// Degenerate segment.
	d, _ = pointSegDistance(geom.Point{X: 3, Y: 4}, geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: 0})
	if !scalar.EqualWithinAbs(d, 5, 1e-12) {
		t.Errorf("degenerate segment: want 5, got %g", d)
	}
}

func TestNearestSegment(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	i, d, closest := nearestSegment(line, geom.Point{X: 11, Y: 5})
	if i != 1 {
		t.Errorf("want segment 1, got %d", i)
	}
	if !scalar.EqualWithinAbs(d, 1, 1e-12) {
		t.Errorf("want distance 1, got %g", d)
	}
	if !scalar.EqualWithinAbs(closest.X, 10, 1e-12) || !scalar.EqualWithinAbs(closest.Y, 5, 1e-12) {
		t.Errorf("want closest (10,5), got %v", closest)
	}
}

func TestInsertVertex(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}}

	out, inserted := insertVertex(line, geom.Point{X: 4, Y: 0}, 1e-9)
	if !inserted {
		t.Fatal("want insertion")
	}
	want := geom.LineString{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 10, Y: 0}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("want %v, got %v", want, out)
	}

	// Inserting again within tolerance is a no-op.
	if _, inserted := insertVertex(out, geom.Point{X: 4, Y: 1e-12}, 1e-9); inserted {
		t.Error("duplicate insertion within tolerance should be rejected")
	}

	// An existing endpoint blocks insertion too.
	if _, inserted := insertVertex(line, geom.Point{X: 0, Y: 0}, 1e-9); inserted {
		t.Error("insertion at an existing endpoint should be rejected")
	}

	if _, inserted := insertVertex(geom.LineString{{X: 0, Y: 0}}, geom.Point{X: 1, Y: 1}, 1e-9); inserted {
		t.Error("insertion into a degenerate line should be rejected")
	}
}

func TestHasVertexNear(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}}
	if !hasVertexNear(line, geom.Point{X: 10 + 1e-12, Y: 0}, 1e-9) {
		t.Error("vertex within tolerance not found")
	}
	if hasVertexNear(line, geom.Point{X: 5, Y: 0}, 1e-9) {
		t.Error("point on a segment interior is not a vertex")
	}
}

func TestRoundCoordKey(t *testing.T) {
	a := roundCoordKey(geom.Point{X: 1.0000000001, Y: -2.0000000004}, 9)
	b := roundCoordKey(geom.Point{X: 1.0000000002, Y: -2.0000000001}, 9)
	if a != b {
		t.Errorf("keys should collapse within 9 decimals: %v vs %v", a, b)
	}
	c := roundCoordKey(geom.Point{X: 1.000000001, Y: -2}, 9)
	d := roundCoordKey(geom.Point{X: 1.000000002, Y: -2}, 9)
	if c == d {
		t.Error("keys differing at the 9th decimal should not collapse")
	}
}

func TestLineIntersectsRect(t *testing.T) {
	rect := newRect(0, 0, 10, 10)

	if !lineIntersectsRect(geom.LineString{{X: 2, Y: 2}, {X: 3, Y: 3}}, rect) {
		t.Error("line inside rect")
	}
	// Passes through without a vertex inside.
	if !lineIntersectsRect(geom.LineString{{X: -5, Y: 5}, {X: 15, Y: 5}}, rect) {
		t.Error("line crossing rect")
	}
	if lineIntersectsRect(geom.LineString{{X: -5, Y: 20}, {X: 15, Y: 20}}, rect) {
		t.Error("line outside rect")
	}
	// A diagonal whose bounding box overlaps but which misses the rect.
	if lineIntersectsRect(geom.LineString{{X: -1, Y: 12}, {X: 12, Y: 25}}, rect) {
		t.Error("line with overlapping bbox but no true intersection")
	}
}

func TestBufferBounds(t *testing.T) {
	b := bufferBounds(newRect(0, 0, 1, 1), 0.5)
	want := newRect(-0.5, -0.5, 1.5, 1.5)
	if !reflect.DeepEqual(b, want) {
		t.Errorf("want %v, got %v", want, b)
	}
}

func TestDist(t *testing.T) {
	if d := dist(geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("want 5, got %g", d)
	}
}
