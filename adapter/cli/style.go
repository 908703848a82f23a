package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// DateLayout is the date format accepted and printed by commands.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the local date-time format accepted by commands.
	DateTimeLayout = "2006-01-02 15:04"
	// ClockLayout prints times of day.
	ClockLayout = "15:04"
)

// Color palette
var (
	ColorCyan    = lipgloss.Color("86")
	ColorGreen   = lipgloss.Color("78")
	ColorYellow  = lipgloss.Color("221")
	ColorRed     = lipgloss.Color("196")
	ColorMagenta = lipgloss.Color("213")
	ColorGray    = lipgloss.Color("245")
	ColorDimGray = lipgloss.Color("239")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorCyan)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorGray)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorDimGray)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	WarnStyle    = lipgloss.NewStyle().Foreground(ColorYellow)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	LockedStyle  = lipgloss.NewStyle().Foreground(ColorMagenta)
)

// QuadrantStyle colors an Eisenhower quadrant label.
func QuadrantStyle(quadrant string) lipgloss.Style {
	switch quadrant {
	case "urgent-important":
		return lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	case "not-urgent-important":
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case "urgent-not-important":
		return lipgloss.NewStyle().Foreground(ColorCyan)
	default:
		return DimStyle
	}
}

// Table prints rows under a bold header with columns padded to the widest
// rendered cell.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// Row appends a row. Missing cells are blank.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	header := make([]string, len(t.headers))
	total := 0
	for i, h := range t.headers {
		header[i] = pad(h, widths[i])
		total += widths[i] + 2
	}
	fmt.Fprintln(w, HeaderStyle.Render(strings.TrimRight(strings.Join(header, "  "), " ")))
	fmt.Fprintln(w, DimStyle.Render(strings.Repeat("-", max(total-2, 0))))

	for _, row := range t.rows {
		cells := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ShortID returns the first eight characters of an ID.
func ShortID(id fmt.Stringer) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
