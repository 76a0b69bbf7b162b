package document

import (
	"slices"
	"testing"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

func TestCanContain(t *testing.T) {
	tests := []struct {
		name   string
		parent Type
		child  Type
		want   bool
	}{
		{name: "DocumentHoldsPage", parent: TypeDocument, child: TypePage, want: true},
		{name: "PageHoldsGraph", parent: TypePage, child: TypeGraph, want: true},
		{name: "PageHoldsLabel", parent: TypePage, child: TypeLabel, want: true},
		{name: "GraphHoldsAxis", parent: TypeGraph, child: TypeAxis, want: true},
		{name: "GraphHoldsXY", parent: TypeGraph, child: TypeXY, want: true},
		{name: "GraphHoldsFunction", parent: TypeGraph, child: TypeFunction, want: true},
		{name: "GraphRejectsPage", parent: TypeGraph, child: TypePage, want: false},
		{name: "GraphRejectsGraph", parent: TypeGraph, child: TypeGraph, want: false},
		{name: "PageRejectsAxis", parent: TypePage, child: TypeAxis, want: false},
		{name: "DocumentRejectsGraph", parent: TypeDocument, child: TypeGraph, want: false},
		{name: "AxisRejectsEverything", parent: TypeAxis, child: TypeLabel, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanContain(tt.parent, tt.child); got != tt.want {
				t.Fatalf("CanContain(%s, %s) = %v, want %v", tt.parent, tt.child, got, tt.want)
			}
		})
	}
}

func TestValidType(t *testing.T) {
	if !ValidType(TypeXY) {
		t.Fatal("xy should be a valid type")
	}
	if ValidType(Type("plot3d")) {
		t.Fatal("plot3d should not be a valid type")
	}
}

func TestNodePathAndIndex(t *testing.T) {
	root := newNode(TypeDocument, "")
	page := newNode(TypePage, "page1")
	graph := newNode(TypeGraph, "graph1")
	xy := newNode(TypeXY, "xy1")
	root.attach(page, -1)
	page.attach(graph, -1)
	graph.attach(xy, -1)

	if got := root.Path(); got != "/" {
		t.Fatalf("root path = %q, want /", got)
	}
	if got := xy.Path(); got != "/page1/graph1/xy1" {
		t.Fatalf("xy path = %q", got)
	}
	if got := root.Index(); got != -1 {
		t.Fatalf("root index = %d, want -1", got)
	}
	if got := graph.Index(); got != 0 {
		t.Fatalf("graph index = %d, want 0", got)
	}
	if !xy.IsDescendantOf(root) || !xy.IsDescendantOf(page) {
		t.Fatal("xy should descend from root and page")
	}
	if page.IsDescendantOf(xy) {
		t.Fatal("page should not descend from xy")
	}
}

func TestNodeAttachAt(t *testing.T) {
	page := newNode(TypePage, "page1")
	a := newNode(TypeGraph, "a")
	b := newNode(TypeGraph, "b")
	c := newNode(TypeGraph, "c")

	page.attach(a, -1)
	page.attach(b, 99) // past the end appends
	page.attach(c, 1)

	var names []string
	for _, child := range page.Children() {
		names = append(names, child.Name())
	}
	if want := []string{"a", "c", "b"}; !slices.Equal(names, want) {
		t.Fatalf("children = %v, want %v", names, want)
	}
}

func TestNodeDetach(t *testing.T) {
	page := newNode(TypePage, "page1")
	a := newNode(TypeGraph, "a")
	b := newNode(TypeGraph, "b")
	page.attach(a, -1)
	page.attach(b, -1)

	if got := page.detach(b); got != 1 {
		t.Fatalf("detach index = %d, want 1", got)
	}
	if b.Parent() != nil {
		t.Fatal("detached node should have no parent")
	}
	if page.ChildCount() != 1 || page.Child("b") != nil {
		t.Fatal("b should be gone from page")
	}
}

func TestAutoName(t *testing.T) {
	graph := newNode(TypeGraph, "graph1")
	graph.attach(newNode(TypeXY, "xy1"), -1)
	graph.attach(newNode(TypeXY, "xy3"), -1)

	if got := graph.autoName(TypeXY); got != "xy2" {
		t.Fatalf("autoName = %q, want xy2 (lowest free)", got)
	}
	if got := graph.autoName(TypeAxis); got != "axis1" {
		t.Fatalf("autoName = %q, want axis1", got)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		want     []string
		wantCode errors.Code
	}{
		{name: "Root", path: "/", want: nil},
		{name: "Nested", path: "/page1/graph1", want: []string{"page1", "graph1"}},
		{name: "Relative", path: "page1", wantCode: errors.ErrCodeInvalidPath},
		{name: "Empty", path: "", wantCode: errors.ErrCodeInvalidPath},
		{name: "TrailingSlash", path: "/page1/", wantCode: errors.ErrCodeInvalidPath},
		{name: "DotSegment", path: "/page1/../x", wantCode: errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitPath(tt.path)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("splitPath(%q) error = %v, want code %s", tt.path, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("splitPath(%q): %v", tt.path, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
