package tui

import (
	"fmt"
	"math"
	"strings"

	"expenses/internal/core"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultBarWidth = 60
	minBarWidth     = 20
	maxBarWidth     = 100
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4682B4")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Width(16)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("#4682B4")).
				Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#DC143C"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DC143C"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#DC143C")).
			Padding(1, 3)
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.message != "" {
		return m.renderMessage()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Учет персональных финансов"))
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Список затрат"))
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n\n")
	b.WriteString("Общая сумма: " + m.withCurrency(m.snapshot.Summary.Total))
	b.WriteString("\n")

	if len(m.snapshot.Segments) > 0 {
		b.WriteString(headerStyle.Render("Распределение по категориям"))
		b.WriteString("\n")
		b.WriteString(renderBar(m.snapshot.Segments, m.barWidth()))
		b.WriteString("\n")
		b.WriteString(renderLegend(m.snapshot.Segments))
		b.WriteString("\n")
	}

	if m.lastError != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Ошибка: " + m.lastError.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderForm() string {
	rows := []string{
		m.formRow(FieldName, "Название траты", m.name.View()),
		m.formRow(FieldAmount, "Сумма", m.amount.View()),
		m.formRow(FieldCategory, "Категория", "‹ "+m.categories[m.category].String()+" ›"),
	}
	return strings.Join(rows, "\n")
}

func (m Model) formRow(f Field, label, value string) string {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	return style.Render(label+":") + value
}

func (m Model) renderList() string {
	if m.snapshot.Summary.Empty() {
		return mutedStyle.Render("Нет затрат")
	}
	lines := make([]string, 0, len(m.snapshot.Expenses))
	for i, e := range m.snapshot.Expenses {
		row := m.entryLine(e)
		if m.focus == FieldList && i == m.cursor {
			lines = append(lines, selectedRowStyle.Render("> "+row))
			continue
		}
		lines = append(lines, "  "+row)
	}
	return strings.Join(lines, "\n")
}

// entryLine renders e as "Name - Amount Currency (Category)".
func (m Model) entryLine(e core.Expense) string {
	return fmt.Sprintf("%s - %s (%s)", e.Name, m.withCurrency(e.Amount), e.Category)
}

func (m Model) withCurrency(v float64) string {
	s := core.FormatAmount(v)
	if m.currency == "" {
		return s
	}
	return s + " " + m.currency
}

func (m Model) renderMessage() string {
	box := modalStyle.Render(m.message + "\n\n" + mutedStyle.Render("Enter: OK"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) helpLine() string {
	switch m.focus {
	case FieldCategory:
		return "←/→ категория • enter добавить • tab далее • ctrl+c выход"
	case FieldList:
		return "↑/↓ выбор • d удалить • tab далее • ctrl+c выход"
	default:
		return "enter добавить • tab далее • ctrl+c выход"
	}
}

func (m Model) barWidth() int {
	if m.width == 0 {
		return defaultBarWidth
	}
	w := m.width - 4
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

// segmentWidths converts segment percents into cell counts that never exceed
// width in total. Visible segments with a positive share get at least one cell.
func segmentWidths(segs []core.Segment, width int) []int {
	out := make([]int, len(segs))
	used := 0
	for i, sg := range segs {
		if !sg.Visible() || sg.Percent <= 0 {
			continue
		}
		w := int(math.Round(sg.Percent / 100 * float64(width)))
		if w < 1 {
			w = 1
		}
		if used+w > width {
			w = width - used
		}
		out[i] = w
		used += w
	}
	return out
}

func renderBar(segs []core.Segment, width int) string {
	widths := segmentWidths(segs, width)
	var parts []string
	for i, sg := range segs {
		w := widths[i]
		if w == 0 {
			continue
		}
		style := lipgloss.NewStyle().
			Background(lipgloss.Color("#" + sg.Category.Hex())).
			Foreground(lipgloss.Color("#000000")).
			Width(w).
			MaxWidth(w)
		parts = append(parts, style.Render(truncate(sg.Label(), w)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderLegend(segs []core.Segment) string {
	labels := make([]string, 0, len(segs))
	for _, sg := range segs {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#" + sg.Category.Hex()))
		labels = append(labels, style.Render("■")+" "+sg.Label())
	}
	return strings.Join(labels, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
