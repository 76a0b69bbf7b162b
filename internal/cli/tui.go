package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plotdeck/plotdeck/pkg/document"
)

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	treeTypeStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// TreeModel - Interactive widget tree browser
// =============================================================================

// treeRow is one visible line of the widget tree.
type treeRow struct {
	node  *document.Node
	depth int
}

// TreeModel is the bubbletea model for browsing a document's widget
// tree. The left-hand tree navigates; the panel below shows the
// resolved settings of the selected widget, with explicitly set keys
// marked.
type TreeModel struct {
	Doc       *document.Document
	Cursor    int
	Height    int
	Offset    int
	rows      []treeRow
	collapsed map[string]bool
}

// NewTreeModel creates a tree model rooted at the document node.
func NewTreeModel(d *document.Document) TreeModel {
	m := TreeModel{
		Doc:       d,
		Height:    15,
		collapsed: make(map[string]bool),
	}
	m.rebuild()
	return m
}

// rebuild flattens the tree into visible rows, honoring collapse
// state. The cursor is clamped afterwards so removing rows cannot
// leave it dangling.
func (m *TreeModel) rebuild() {
	m.rows = m.rows[:0]
	m.walk(m.Doc.Root(), 0)
	if m.Cursor >= len(m.rows) {
		m.Cursor = len(m.rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *TreeModel) walk(n *document.Node, depth int) {
	m.rows = append(m.rows, treeRow{node: n, depth: depth})
	if m.collapsed[n.Path()] {
		return
	}
	for _, child := range n.Children() {
		m.walk(child, depth+1)
	}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "left", "h":
			n := m.rows[m.Cursor].node
			if n.ChildCount() > 0 && !m.collapsed[n.Path()] {
				m.collapsed[n.Path()] = true
				m.rebuild()
			} else if p := n.Parent(); p != nil {
				// Jump to the parent row.
				for i, row := range m.rows {
					if row.node == p {
						m.Cursor = i
						break
					}
				}
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "right", "l", "enter":
			n := m.rows[m.Cursor].node
			if m.collapsed[n.Path()] {
				delete(m.collapsed, n.Path())
				m.rebuild()
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - settingsPanelHeight - 4
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// settingsPanelHeight is the number of setting lines shown below the
// tree.
const settingsPanelHeight = 12

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Widget Tree"))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ navigate  ←/→ fold  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.Offset; i < end; i++ {
		row := m.rows[i]
		b.WriteString(m.renderRow(row, i == m.Cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderSettings(m.rows[m.Cursor].node))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))

	return b.String()
}

// renderRow draws one tree line: indentation, fold marker, name, type.
func (m TreeModel) renderRow(row treeRow, current bool) string {
	n := row.node

	cursor := "  "
	if current {
		cursor = "▸ "
	}

	fold := "  "
	if n.ChildCount() > 0 {
		if m.collapsed[n.Path()] {
			fold = "+ "
		} else {
			fold = "- "
		}
	}

	name := n.Name()
	if n.Type() == document.TypeDocument {
		name = "/"
	}

	line := cursor + strings.Repeat("  ", row.depth) + fold
	if current {
		return line + treeSelectedStyle.Render(name) + " " + treeTypeStyle.Render(string(n.Type()))
	}
	return line + treeNormalStyle.Render(name) + " " + treeTypeStyle.Render(string(n.Type()))
}

// renderSettings draws the resolved settings panel for one widget.
// Explicitly set keys are marked with *; the rest show inherited,
// styled, or default values.
func (m TreeModel) renderSettings(n *document.Node) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(n.Path()))
	b.WriteString("\n")

	schema, ok := document.SchemaFor(n.Type())
	if !ok || len(schema.Keys()) == 0 {
		b.WriteString(treeDimStyle.Render("  no settings"))
		return b.String()
	}

	resolved := m.Doc.ResolvedSettings(n)
	keys := schema.Keys()
	if len(keys) > settingsPanelHeight {
		keys = keys[:settingsPanelHeight]
	}
	for _, key := range keys {
		marker := " "
		valueStyle := treeDimStyle
		if _, explicit := n.Explicit(key); explicit {
			marker = "*"
			valueStyle = StyleValue
		}
		b.WriteString(fmt.Sprintf("  %s %-14s %s\n",
			StyleHighlight.Render(marker),
			treeTypeStyle.Render(key),
			valueStyle.Render(formatSettingValue(resolved[key]))))
	}
	if extra := len(schema.Keys()) - len(keys); extra > 0 {
		b.WriteString(treeDimStyle.Render(fmt.Sprintf("  … %d more", extra)))
		b.WriteString("\n")
	}

	return b.String()
}

// formatSettingValue renders a setting value for display.
func formatSettingValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "—"
	case string:
		if val == "" {
			return `""`
		}
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
