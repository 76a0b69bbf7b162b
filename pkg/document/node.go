package document

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// Type identifies a widget type.
type Type string

// Widget types. The document node is the tree root and exists exactly
// once; everything else is created through commands.
const (
	TypeDocument  Type = "document"
	TypePage      Type = "page"
	TypeGraph     Type = "graph"
	TypeAxis      Type = "axis"
	TypeXY        Type = "xy"
	TypeFunction  Type = "function"
	TypeHistogram Type = "histogram"
	TypeLabel     Type = "label"
	TypeRect      Type = "rect"
)

// ValidType reports whether t names a widget type.
func ValidType(t Type) bool {
	_, ok := widgetSchemas[t]
	return ok
}

// childTypes is the parent/child legality table. A type missing from
// the map accepts no children.
var childTypes = map[Type][]Type{
	TypeDocument: {TypePage},
	TypePage:     {TypeGraph, TypeLabel, TypeRect},
	TypeGraph:    {TypeAxis, TypeXY, TypeFunction, TypeHistogram, TypeLabel, TypeRect},
}

// CanContain reports whether a parent type accepts a child type.
func CanContain(parent, child Type) bool {
	return slices.Contains(childTypes[parent], child)
}

// Node is one widget in the document tree. A node exclusively owns
// its children; removing a node removes the whole subtree. Nodes are
// addressed by slash-separated name paths ("/page1/graph1/xy1").
//
// Nodes are only mutated through their owning [Document].
type Node struct {
	typ      Type
	name     string
	parent   *Node
	children []*Node
	settings map[string]any // explicitly set values only
}

func newNode(typ Type, name string) *Node {
	return &Node{typ: typ, name: name, settings: make(map[string]any)}
}

// Type returns the widget type.
func (n *Node) Type() Type { return n.typ }

// Name returns the widget name. The root document has no name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in document order. The slice is a
// copy; the nodes are not.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Index returns the node's position among its siblings, -1 for the
// root.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

// Path returns the absolute path of the node, "/" for the root.
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	var parts []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

// IsDescendantOf reports whether n sits somewhere below other.
func (n *Node) IsDescendantOf(other *Node) bool {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Explicit returns the explicitly set value of a setting key.
func (n *Node) Explicit(key string) (any, bool) {
	v, ok := n.settings[key]
	return v, ok
}

// ExplicitKeys returns the explicitly set setting keys, sorted.
func (n *Node) ExplicitKeys() []string {
	out := make([]string, 0, len(n.settings))
	for k := range n.settings {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// String implements fmt.Stringer for error messages and debugging.
func (n *Node) String() string {
	return fmt.Sprintf("%s[%s]", n.Path(), n.typ)
}

// attach inserts child under n at the given index; index -1 or past
// the end appends. The caller has already validated legality and name
// uniqueness.
func (n *Node) attach(child *Node, at int) {
	child.parent = n
	if at < 0 || at >= len(n.children) {
		n.children = append(n.children, child)
		return
	}
	n.children = slices.Insert(n.children, at, child)
}

// detach removes child from n and returns its former index.
func (n *Node) detach(child *Node) int {
	i := slices.Index(n.children, child)
	if i < 0 {
		return -1
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return i
}

// autoName picks the lowest free "type + integer" name among n's
// children, mirroring how the GUI names new widgets (xy1, xy2, ...).
func (n *Node) autoName(typ Type) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", typ, i)
		if n.Child(name) == nil {
			return name
		}
	}
}

// splitPath parses an absolute widget path into segments. The root
// path yields no segments.
func splitPath(path string) ([]string, error) {
	if err := errors.ValidateWidgetPath(path); err != nil {
		return nil, err
	}
	if path == "/" {
		return nil, nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/"), nil
}

// joinPath builds a child path from a parent path and a name.
func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
