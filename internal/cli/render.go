package cli

import (
	"fmt"
	"strings"

	"bills/internal/core"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorOrange = lipgloss.Color("#DA702C")
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle      = lipgloss.NewStyle().Foreground(colorText)
	affordableStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	dimStyle        = lipgloss.NewStyle().Foreground(colorBorder)
	warnStyle       = lipgloss.NewStyle().Foreground(colorOrange)
	overStyle       = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Highlight marks rows rendered in the affordable style.
	Highlight map[int]bool
	// RightAlign marks numeric columns.
	RightAlign map[int]bool
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	border := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if t.RightAlign[i] {
				cell = pad + cell
			} else {
				cell += pad
			}
			b.WriteString(style.Render(" " + cell + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	border("╭", "┬", "╮")
	line(t.Headers, headerStyle)
	border("├", "┼", "┤")
	for i, row := range t.Rows {
		style := valueStyle
		if t.Highlight[i] {
			style = affordableStyle
		}
		line(row, style)
	}
	border("╰", "┴", "╯")
	return b.String()
}

// RenderBills renders bills with the affordable ones marked and highlighted.
func RenderBills(title string, bills []core.Bill, sel core.Selection, currency string) string {
	t := Table{
		Title:      title,
		Headers:    []string{"", "ID", "Description", "Category", "Amount", "Due"},
		Highlight:  make(map[int]bool),
		RightAlign: map[int]bool{1: true, 4: true},
	}
	for i, b := range bills {
		mark := ""
		if sel.IDs.Has(b.ID) {
			mark = "✓"
			t.Highlight[i] = true
		}
		amount := b.Amount
		if a := b.ParsedAmount(); a.Valid {
			amount = core.FormatMoney(currency, a.Value)
		} else {
			amount += " ?"
		}
		t.Rows = append(t.Rows, []string{
			mark,
			fmt.Sprintf("%d", b.ID),
			b.Description,
			b.Category,
			amount,
			b.Date.String(),
		})
	}
	if len(bills) == 0 {
		return mutedStyle.Render("  No bills") + "\n"
	}
	return RenderTable(t)
}

// RenderSelection summarizes an affordable selection in one line.
func RenderSelection(sel core.Selection, budget string, currency string) string {
	line := fmt.Sprintf("  %d affordable, %s of %s", sel.IDs.Len(),
		core.FormatMoney(currency, sel.Total), budget)
	out := affordableStyle.Render(line) + "\n"
	if sel.Unparseable > 0 {
		out += warnStyle.Render(fmt.Sprintf("  %d bill(s) have an amount that is not a number", sel.Unparseable)) + "\n"
	}
	return out
}

// RenderSummary renders budget totals and a per-category bar chart.
func RenderSummary(title string, sum core.BudgetSummary, currency string) string {
	var b strings.Builder
	b.WriteString("  " + headerStyle.Render(title) + "\n")

	remaining := core.FormatMoney(currency, sum.Remaining)
	if sum.OverBudget {
		remaining = overStyle.Render(remaining + " over budget")
	} else {
		remaining = affordableStyle.Render(remaining)
	}
	fmt.Fprintf(&b, "  Budget     %s\n", valueStyle.Render(core.FormatMoney(currency, sum.Budget)))
	fmt.Fprintf(&b, "  Total      %s\n", valueStyle.Render(core.FormatMoney(currency, sum.Total)))
	fmt.Fprintf(&b, "  Remaining  %s\n", remaining)
	fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(fmt.Sprintf("%d bill(s)", sum.Bills)))
	if sum.Unparseable > 0 {
		fmt.Fprintf(&b, "  %s\n", warnStyle.Render(fmt.Sprintf("%d with an amount that is not a number", sum.Unparseable)))
	}
	if len(sum.ByCategory) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	maxAmount := sum.ByCategory[0].Amount
	nameWidth := 0
	for _, c := range sum.ByCategory {
		if c.Amount.GreaterThan(maxAmount) {
			maxAmount = c.Amount
		}
		nameWidth = max(nameWidth, lipgloss.Width(c.Name))
	}
	const barWidth = 30
	for _, c := range sum.ByCategory {
		filled := core.BarWidth(c.Amount, maxAmount) * barWidth / 100
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Fprintf(&b, "  %-*s %s %s\n", nameWidth, c.Name,
			headerStyle.Render(bar), valueStyle.Render(core.FormatMoney(currency, c.Amount)))
	}
	return b.String()
}
