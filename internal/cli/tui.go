package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/diagramkit/pkg/render/shapes"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ShapePickerModel - Interactive shape selection
// =============================================================================

// ShapeChoice is one entry of the shape picker.
type ShapeChoice struct {
	Name    string
	Aliases []string
	Summary string
}

var shapeSummaries = map[shapes.Kind]string{
	shapes.KindRect:            "plain rectangle",
	shapes.KindHalfRoundedRect: "flat left side, semicircular right end",
}

var shapeAliases = map[shapes.Kind][]string{
	shapes.KindRect:            {"rectangle"},
	shapes.KindHalfRoundedRect: {"delay", "half-rounded-rectangle"},
}

// shapeChoices lists every shape kind in display order.
func shapeChoices() []ShapeChoice {
	names := shapes.Kinds()
	choices := make([]ShapeChoice, 0, len(names))
	for _, name := range names {
		kind, err := shapes.ParseKind(name)
		if err != nil {
			continue
		}
		choices = append(choices, ShapeChoice{
			Name:    name,
			Aliases: shapeAliases[kind],
			Summary: shapeSummaries[kind],
		})
	}
	return choices
}

// ShapePickerModel is the bubbletea model for interactive shape selection.
type ShapePickerModel struct {
	Choices  []ShapeChoice
	Cursor   int
	Selected *ShapeChoice
}

// NewShapePickerModel creates a new shape picker model.
func NewShapePickerModel(choices []ShapeChoice) ShapePickerModel {
	return ShapePickerModel{Choices: choices}
}

func (m ShapePickerModel) Init() tea.Cmd {
	return nil
}

func (m ShapePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Choices)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Choices) == 0 {
				return m, nil
			}
			choice := m.Choices[m.Cursor]
			m.Selected = &choice
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ShapePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Shape"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(m.Choices))
	for i, c := range m.Choices {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		aliases := "—"
		if len(c.Aliases) > 0 {
			aliases = strings.Join(c.Aliases, ", ")
		}
		rows = append(rows, []string{cursor, c.Name, aliases, c.Summary})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Aliases", "Outline").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == m.Cursor {
				if col == 1 {
					return listSelectedStyle
				}
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Choices))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < 0:
		return "in " + formatDuration(-diff)
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
