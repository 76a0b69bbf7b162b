package cli

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/document"
)

func buildTreeDoc(t *testing.T) *document.Document {
	t.Helper()
	d := document.New(log.New(io.Discard))
	cmds := []document.Command{
		&document.AddWidget{Parent: "/", Type: document.TypePage, Name: "page1"},
		&document.AddWidget{Parent: "/page1", Type: document.TypeGraph, Name: "graph1"},
		&document.AddWidget{Parent: "/page1/graph1", Type: document.TypeAxis, Name: "x"},
		&document.AddWidget{Parent: "/page1/graph1", Type: document.TypeXY, Name: "xy1"},
		&document.AddWidget{Parent: "/", Type: document.TypePage, Name: "page2"},
		&document.SetSetting{Path: "/page1/graph1/x", Key: "label", Value: "time"},
	}
	for _, cmd := range cmds {
		if err := d.Apply(cmd); err != nil {
			t.Fatalf("Apply(%s): %v", cmd.CommandName(), err)
		}
	}
	return d
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m TreeModel, keys ...string) TreeModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(TreeModel)
	}
	return m
}

func TestTreeModelRows(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))

	// root, page1, graph1, x, xy1, page2
	if len(m.rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(m.rows))
	}
	if m.rows[0].node.Type() != document.TypeDocument || m.rows[0].depth != 0 {
		t.Errorf("row 0 = %v depth %d", m.rows[0].node.Type(), m.rows[0].depth)
	}
	if m.rows[1].node.Name() != "page1" || m.rows[1].depth != 1 {
		t.Errorf("row 1 = %s depth %d", m.rows[1].node.Name(), m.rows[1].depth)
	}
	if m.rows[3].node.Path() != "/page1/graph1/x" || m.rows[3].depth != 3 {
		t.Errorf("row 3 = %s depth %d", m.rows[3].node.Path(), m.rows[3].depth)
	}
	if m.rows[5].node.Name() != "page2" {
		t.Errorf("row 5 = %s", m.rows[5].node.Name())
	}
}

func TestTreeModelNavigation(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))

	m = update(t, m, "down", "down")
	if m.rows[m.Cursor].node.Name() != "graph1" {
		t.Errorf("cursor on %s, want graph1", m.rows[m.Cursor].node.Name())
	}

	m = update(t, m, "up")
	if m.rows[m.Cursor].node.Name() != "page1" {
		t.Errorf("cursor on %s, want page1", m.rows[m.Cursor].node.Name())
	}

	// Up at the top stays put.
	m = update(t, m, "up", "up", "up")
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
}

func TestTreeModelCollapse(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))

	// Collapse page1: its subtree disappears.
	m = update(t, m, "down", "left")
	if len(m.rows) != 3 {
		t.Fatalf("rows after collapse = %d, want 3 (root, page1, page2)", len(m.rows))
	}
	if m.rows[2].node.Name() != "page2" {
		t.Errorf("row 2 = %s", m.rows[2].node.Name())
	}

	// Expand again.
	m = update(t, m, "right")
	if len(m.rows) != 6 {
		t.Errorf("rows after expand = %d, want 6", len(m.rows))
	}
}

func TestTreeModelCollapseLeafJumpsToParent(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))

	// Cursor on the x axis, a leaf; left goes to graph1.
	m = update(t, m, "down", "down", "down", "left")
	if m.rows[m.Cursor].node.Name() != "graph1" {
		t.Errorf("cursor on %s, want graph1", m.rows[m.Cursor].node.Name())
	}
}

func TestTreeModelQuit(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd() = %T, want tea.QuitMsg", cmd())
	}
}

func TestTreeModelView(t *testing.T) {
	m := NewTreeModel(buildTreeDoc(t))
	m = update(t, m, "down", "down", "down")

	view := m.View()
	for _, want := range []string{"Widget Tree", "page1", "graph1", "/page1/graph1/x", "label"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTreeModelViewMarksExplicit(t *testing.T) {
	d := buildTreeDoc(t)
	m := NewTreeModel(d)
	m = update(t, m, "down", "down", "down") // cursor on the x axis

	n := m.rows[m.Cursor].node
	if _, ok := n.Explicit("label"); !ok {
		t.Fatal("label should be explicit on /page1/graph1/x")
	}
	resolved := d.ResolvedSettings(n)
	if resolved["label"] != "time" {
		t.Errorf("resolved label = %v", resolved["label"])
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "—"},
		{"empty string", "", `""`},
		{"string", "vertical", "vertical"},
		{"float", 1.5, "1.5"},
		{"whole float", 8.0, "8"},
		{"bool", true, "true"},
		{"int", 3, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSettingValue(tt.in); got != tt.want {
				t.Errorf("formatSettingValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
