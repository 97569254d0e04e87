package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the two colors the terminal surfaces use.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the stock tably palette.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#5fd7af"),
	Dim:     lipgloss.Color("#6c6c6c"),
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles derives the style set from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// RenderTable renders headers and rows as aligned columns with a
// styled header line. Column widths fit the widest cell.
func RenderTable(s Styles, headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	total := 0
	for i, w := range widths {
		if i > 0 {
			total += 2
		}
		total += w
	}

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.Label.Render(h))
		if i < len(headers)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(h)))
		}
	}
	b.WriteByte('\n')
	b.WriteString(s.Help.Render(strings.Repeat("─", total)))
	b.WriteByte('\n')

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(row)-1 && i < len(widths) {
				b.WriteString(strings.Repeat(" ", max(0, widths[i]-lipgloss.Width(cell))))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Section is one labeled region of a Frame. Content is called at
// render time so sections always show live state.
type Section struct {
	Label   string
	Content func() []string
}

// Frame is the bordered live view drawn by run --tui. Render produces
// the whole screen as one string; the caller owns cursor control.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	Help     string
}

// Render draws the frame at the given terminal size. Sections split
// the body evenly, with the last one absorbing the remainder, so the
// log section gets the spare rows.
func (f Frame) Render(width, height int) string {
	if width < 8 || height < 6 {
		return ""
	}
	bd := f.Styles.Border
	inner := width - 2

	var out []string
	out = append(out, bd.Render("╭"+strings.Repeat("─", inner)+"╮"))
	out = append(out, f.titleRow(width))
	out = append(out, bd.Render("│")+strings.Repeat(" ", inner)+bd.Render("│"))

	if n := len(f.Sections); n > 0 {
		// Five fixed rows: borders, title, spacer, help. Each section
		// adds a divider row on top of its share of the body.
		body := height - 5 - n
		if body < n {
			body = n
		}
		share := body / n
		for i, sec := range f.Sections {
			rows := share
			if i == n-1 {
				rows = body - share*(n-1)
			}
			out = append(out, f.sectionRows(sec, width, rows)...)
		}
	}

	out = append(out, bd.Render("╰"+strings.Repeat("─", inner)+"╯"))
	out = append(out, f.Styles.Help.Render(f.Help))
	return strings.Join(out, "\n")
}

func (f Frame) titleRow(width int) string {
	bd := f.Styles.Border
	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Help.Render("[" + f.Status + "]")
	gap := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	return bd.Render("│") + " " + title + " " + status +
		strings.Repeat(" ", gap) + " " + bd.Render("│")
}

// sectionRows draws the labeled divider and the tail of the section's
// content, clipped to the frame width.
func (f Frame) sectionRows(sec Section, width, rows int) []string {
	bd := f.Styles.Border
	label := f.Styles.Label.Render(sec.Label)
	fill := max(0, width-3-lipgloss.Width(label))
	out := []string{bd.Render("├─") + label + bd.Render(strings.Repeat("─", fill)+"┤")}

	content := sec.Content()
	if len(content) > rows {
		content = content[len(content)-rows:]
	}
	limit := width - 4
	for i := 0; i < rows; i++ {
		var text string
		if i < len(content) {
			text = clip(content[i], limit)
		}
		pad := max(0, limit-lipgloss.Width(text))
		out = append(out, bd.Render("│")+" "+text+strings.Repeat(" ", pad)+" "+bd.Render("│"))
	}
	return out
}

// clip shortens s to at most width display cells, marking the cut
// with an ellipsis. Widths are measured per rune so wide characters
// stay inside the frame.
func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String() + "…"
}
