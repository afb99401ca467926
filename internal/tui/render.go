package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/tree"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("62"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	reviewedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
)

func (m appModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}
	if !m.loaded {
		return "Loading tree...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.confirmDelete {
		b.WriteString(m.renderDeleteConfirmation())
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderColumns())
		b.WriteString("\n")
		b.WriteString(m.renderDetail())
	}

	if m.mode != inputNone {
		b.WriteString(m.renderInput())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m appModel) renderHeader() string {
	role := "read-only"
	if m.owner {
		role = "owner"
	}
	header := fmt.Sprintf("%s  [by %s]  [%d likes]  [%s]", m.doc.Title, m.doc.Author(), m.doc.Likes, role)
	return headerStyle.Render(header)
}

func (m appModel) renderColumns() string {
	colWidth := (m.width - 4*4) / 4
	if colWidth < 12 {
		colWidth = 12
	}

	cols := make([]string, 0, model.MaxYear)
	for year := model.MinYear; year <= model.MaxYear; year++ {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Year %d", year)))
		b.WriteString("\n")

		courses := m.doc.CoursesByYear(year)
		if len(courses) == 0 {
			b.WriteString(mutedStyle.Render("(empty)"))
		}
		for i, c := range courses {
			line := renderCourse(c, colWidth-2)
			if year == m.year && i == m.selected {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			if i < len(courses)-1 {
				b.WriteString("\n")
			}
		}

		style := columnStyle
		if year == m.year {
			style = focusedColumnStyle
		}
		cols = append(cols, style.Width(colWidth).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderCourse(c model.Course, width int) string {
	icon, style := "○", lockedStyle
	switch c.Status {
	case model.StatusCompleted:
		icon, style = "●", completedStyle
	case model.StatusReviewed:
		icon, style = "★", reviewedStyle
	}

	name := c.Name
	if width > 5 && len([]rune(name)) > width-2 {
		name = string([]rune(name)[:width-5]) + "..."
	}
	return style.Render(icon + " " + name)
}

func (m appModel) renderDetail() string {
	c, ok := m.current()
	if !ok {
		return mutedStyle.Render("No course selected.") + "\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)", c.Name, c.Status))
	if c.Rating != nil {
		b.WriteString(reviewedStyle.Render(" " + strings.Repeat("★", *c.Rating) + strings.Repeat("☆", 5-*c.Rating)))
	}
	b.WriteString("\n")
	if c.Review != nil {
		b.WriteString(fmt.Sprintf("  %q\n", *c.Review))
	}
	if c.ProfReview != "" {
		b.WriteString("  Professor: " + c.ProfReview + "\n")
	}
	for _, r := range c.Resources {
		b.WriteString(fmt.Sprintf("  - %s %s\n", r.Title, urlStyle.Render(r.URL)))
	}
	if m.doc.ContactInfo != nil {
		b.WriteString(mutedStyle.Render("Contact: "+*m.doc.ContactInfo) + "\n")
	}
	return b.String()
}

func (m appModel) renderInput() string {
	prompt := "New course name: "
	switch m.mode {
	case inputTitle:
		prompt = "Title: "
	case inputResource:
		prompt = "Link URL: "
	}
	return inputStyle.Width(m.width - 2).Render(prompt + m.input)
}

func (m appModel) renderDeleteConfirmation() string {
	name := ""
	if c, ok := m.current(); ok {
		name = c.Name
	}
	confirmText := fmt.Sprintf("Delete course: %s?\n\n[y]es / [n]o", name)
	return selectedStyle.Width(m.width-4).Padding(1, 2).Render(confirmText)
}

func (m appModel) renderStatusBar() string {
	var parts []string

	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	}
	if m.owner {
		parts = append(parts, renderSaveStatus(m.saveStatus))
	}
	parts = append(parts, "[h/l]year [j/k]course [n]ew [x]delete [s]hare [?]help [q]uit")

	return statusBarStyle.Width(m.width).Render(strings.Join(parts, "  |  "))
}

func renderSaveStatus(s tree.SaveStatus) string {
	switch s {
	case tree.StatusPending:
		return "Unsaved changes"
	case tree.StatusSaving:
		return "Saving..."
	case tree.StatusSaved:
		return "Saved"
	case tree.StatusSaveFailed:
		return failedStyle.Render("Save failed")
	default:
		return "Up to date"
	}
}
