package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/ui/style"
)

// TableColumn represents a column configuration. Width 0 shares the
// remaining space with the other zero-width columns.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// TableRow represents a row of data
type TableRow struct {
	Data  []string
	Style lipgloss.Style
}

// Table renders at most height rows, keeping the selected row visible.
type Table struct {
	columns     []TableColumn
	rows        []TableRow
	width       int
	height      int
	selectedRow int
	offset      int

	headerStyle      lipgloss.Style
	rowStyle         lipgloss.Style
	selectedRowStyle lipgloss.Style
}

// NewTable creates a new table component
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		selectedRowStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 1),
	}
}

// SetColumns sets the table columns
func (t *Table) SetColumns(columns []TableColumn) *Table {
	t.columns = columns
	return t
}

// SetRows replaces all rows. styles may be shorter than rows.
func (t *Table) SetRows(rows [][]string, styles []lipgloss.Style) *Table {
	t.rows = make([]TableRow, len(rows))
	for i, data := range rows {
		st := t.rowStyle
		if i < len(styles) {
			st = styles[i].Padding(0, 1)
		}
		t.rows[i] = TableRow{Data: data, Style: st}
	}
	t.clamp()
	return t
}

// SetSize sets the table dimensions. height counts body rows only.
func (t *Table) SetSize(width, height int) *Table {
	t.width = width
	t.height = height
	t.clamp()
	return t
}

// GetSelectedRow returns the currently selected row index
func (t *Table) GetSelectedRow() int {
	return t.selectedRow
}

// SetSelectedRow sets the currently selected row
func (t *Table) SetSelectedRow(index int) *Table {
	t.selectedRow = index
	t.clamp()
	return t
}

// MoveUp moves selection up
func (t *Table) MoveUp() *Table {
	return t.SetSelectedRow(t.selectedRow - 1)
}

// MoveDown moves selection down
func (t *Table) MoveDown() *Table {
	return t.SetSelectedRow(t.selectedRow + 1)
}

// GetRowCount returns the number of rows
func (t *Table) GetRowCount() int {
	return len(t.rows)
}

// GetSelectedRowData returns the data of the currently selected row
func (t *Table) GetSelectedRowData() []string {
	if t.selectedRow >= 0 && t.selectedRow < len(t.rows) {
		return t.rows[t.selectedRow].Data
	}
	return nil
}

func (t *Table) clamp() {
	if t.selectedRow >= len(t.rows) {
		t.selectedRow = len(t.rows) - 1
	}
	if t.selectedRow < 0 {
		t.selectedRow = 0
	}
	if t.height <= 0 {
		t.offset = 0
		return
	}
	if t.selectedRow < t.offset {
		t.offset = t.selectedRow
	}
	if t.selectedRow >= t.offset+t.height {
		t.offset = t.selectedRow - t.height + 1
	}
	if last := len(t.rows) - t.height; t.offset > last {
		t.offset = last
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return ""
	}
	widths := t.columnWidths()

	var content strings.Builder
	for i, col := range t.columns {
		if i > 0 {
			content.WriteString("│")
		}
		content.WriteString(renderCell(col.Header, widths[i], col.Align, t.headerStyle))
	}
	content.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			content.WriteString("┼")
		}
		content.WriteString(strings.Repeat("─", w))
	}

	end := len(t.rows)
	if t.height > 0 && t.offset+t.height < end {
		end = t.offset + t.height
	}
	for rowIndex := t.offset; rowIndex < end; rowIndex++ {
		row := t.rows[rowIndex]
		rowStyle := row.Style
		if rowIndex == t.selectedRow {
			rowStyle = t.selectedRowStyle
		}

		content.WriteString("\n")
		for i, col := range t.columns {
			if i > 0 {
				content.WriteString("│")
			}
			cell := ""
			if i < len(row.Data) {
				cell = row.Data[i]
			}
			content.WriteString(renderCell(cell, widths[i], col.Align, rowStyle))
		}
	}
	return content.String()
}

// renderCell truncates content to width runes and pads it.
func renderCell(content string, width int, align lipgloss.Position, style lipgloss.Style) string {
	inner := width - 2 // padding
	if inner < 1 {
		inner = 1
	}
	if r := []rune(content); len(r) > inner {
		if inner > 3 {
			content = string(r[:inner-1]) + "…"
		} else {
			content = string(r[:inner])
		}
	}
	return style.Width(width).MaxWidth(width).Align(align).Render(content)
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	fixed, auto := 0, 0
	for i, col := range t.columns {
		widths[i] = col.Width
		if col.Width > 0 {
			fixed += col.Width
		} else {
			auto++
		}
	}
	if auto == 0 {
		return widths
	}

	free := t.width - fixed - (len(t.columns) - 1)
	share := free / auto
	if share < 6 {
		share = 6
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}
