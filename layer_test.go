package linetopo

import (
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func TestLayerEditSessionRequired(t *testing.T) {
	l := NewLayer("roads", nil)
	id := l.AddFeature(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}})

	if err := l.ChangeGeometry(id, geom.LineString{{X: 0, Y: 0}, {X: 2, Y: 0}}); err == nil {
		t.Fatal("geometry change outside an edit session must fail")
	}
	if err := l.BeginEditCommand("x"); err == nil {
		t.Fatal("edit command outside an edit session must fail")
	}

	l.StartEditing()
	if err := l.ChangeGeometry(id, geom.LineString{{X: 0, Y: 0}, {X: 2, Y: 0}}); err != nil {
		t.Fatal(err)
	}
	g, _ := l.Feature(id)
	if g[1].X != 2 {
		t.Errorf("change not applied: %v", g)
	}
}

func TestLayerFeatureReturnsCopy(t *testing.T) {
	l := NewLayer("roads", nil)
	id := l.AddFeature(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}})

	g, _ := l.Feature(id)
	g[0].X = 99

	g2, _ := l.Feature(id)
	if g2[0].X != 0 {
		t.Error("mutating a fetched geometry must not affect the layer")
	}
}

func TestLayerGroupedUndo(t *testing.T) {
	l := NewLayer("roads", nil)
	a := l.AddFeature(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}})
	b := l.AddFeature(geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 1}})

	l.StartEditing()
	if err := l.BeginEditCommand("move both"); err != nil {
		t.Fatal(err)
	}
	if err := l.ChangeGeometry(a, geom.LineString{{X: 0, Y: 0}, {X: 5, Y: 0}}); err != nil {
		t.Fatal(err)
	}
	if err := l.ChangeGeometry(b, geom.LineString{{X: 0, Y: 1}, {X: 5, Y: 1}}); err != nil {
		t.Fatal(err)
	}
	// A second change to the same feature stays in the same group.
	if err := l.ChangeGeometry(a, geom.LineString{{X: 0, Y: 0}, {X: 7, Y: 0}}); err != nil {
		t.Fatal(err)
	}
	l.EndEditCommand()

	if !l.Undo() {
		t.Fatal("undo should revert the command")
	}
	ga, _ := l.Feature(a)
	gb, _ := l.Feature(b)
	if !reflect.DeepEqual(ga, geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}) {
		t.Errorf("feature a not restored: %v", ga)
	}
	if !reflect.DeepEqual(gb, geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 1}}) {
		t.Errorf("feature b not restored: %v", gb)
	}
	if l.Undo() {
		t.Error("nothing left to undo")
	}
}

func TestLayerNestedEditCommand(t *testing.T) {
	l := NewLayer("roads", nil)
	l.StartEditing()
	if err := l.BeginEditCommand("one"); err != nil {
		t.Fatal(err)
	}
	if err := l.BeginEditCommand("two"); err == nil {
		t.Error("nested edit commands must fail")
	}
	l.EndEditCommand()
}

func TestLayerSetVisible(t *testing.T) {
	a := NewLayer("a", nil)
	b := NewLayer("b", nil)
	b.Visible = false
	c := NewLayer("c", nil)

	vis := LayerSet{a, b, c}.Visible()
	if len(vis) != 2 || vis[0] != a || vis[1] != c {
		t.Errorf("want [a c], got %v", vis)
	}
}

func TestLayerVertexCount(t *testing.T) {
	l := NewLayer("roads", nil)
	l.AddFeature(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}})
	l.AddFeature(geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}})
	if n := l.VertexCount(); n != 5 {
		t.Errorf("want 5 vertices, got %d", n)
	}
}

func TestBuildLayerIndex(t *testing.T) {
	l := NewLayer("roads", nil)
	a := l.AddFeature(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}})
	l.AddFeature(geom.LineString{{X: 10, Y: 10}, {X: 11, Y: 11}})
	l.AddFeature(geom.LineString{{X: 0.5, Y: 0.5}}) // degenerate, not indexed

	ix := buildLayerIndex(l, nil)
	refs := ix.search(newRect(-1, -1, 2, 2))
	if len(refs) != 1 || refs[0].id != a {
		t.Fatalf("want only feature %d, got %v", a, refs)
	}

	ix = buildLayerIndex(l, func(id int) bool { return id == a })
	if refs := ix.search(newRect(-1, -1, 2, 2)); len(refs) != 0 {
		t.Errorf("skipped feature should not be indexed: %v", refs)
	}
}
