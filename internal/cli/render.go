package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bunchhieng/coursetree/internal/model"
)

const (
	maxCellLen  = 48
	ellipsisLen = 3
)

var statusIcons = map[model.Status]string{
	model.StatusLocked:    colorDim + "○" + colorReset,
	model.StatusCompleted: colorGreen + "●" + colorReset,
	model.StatusReviewed:  colorYellow + "★" + colorReset,
}

func printTree(w io.Writer, id string, doc model.TreeData, owner bool) {
	role := "visitor"
	if owner {
		role = "owner"
	}
	fmt.Fprintf(w, "%s%s%s  %s(%s, by %s, %d like(s), %s)%s\n",
		colorBold, doc.Title, colorReset, colorDim, id, doc.Author(), doc.Likes, role, colorReset)
	if doc.ContactInfo != nil {
		fmt.Fprintf(w, "Contact: %s\n", *doc.ContactInfo)
	}

	for year := model.MinYear; year <= model.MaxYear; year++ {
		courses := doc.CoursesByYear(year)
		fmt.Fprintf(w, "\n%sYear %d%s\n", colorBold, year, colorReset)
		if len(courses) == 0 {
			fmt.Fprintf(w, "  %s(no courses)%s\n", colorDim, colorReset)
			continue
		}
		for _, c := range courses {
			fmt.Fprintf(w, "  %s %s %s[%s]%s", statusIcons[c.Status], c.Name, colorDim, c.ID, colorReset)
			if c.Rating != nil {
				fmt.Fprintf(w, " %s%d/5%s", colorYellow, *c.Rating, colorReset)
			}
			fmt.Fprintln(w)
			if c.Review != nil {
				fmt.Fprintf(w, "      %q\n", *c.Review)
			}
			if c.ProfReview != "" {
				fmt.Fprintf(w, "      Professor: %s\n", c.ProfReview)
			}
			for _, r := range c.Resources {
				fmt.Fprintf(w, "      - %s %s%s%s %s[%s]%s\n", r.Title, colorCyan, r.URL, colorReset, colorDim, r.ID, colorReset)
			}
		}
	}
}

// printTable draws a boxed table sized to its content.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := truncateLen(utf8.RuneCountInString(cell), maxCellLen); n > widths[i] {
				widths[i] = n
			}
		}
	}

	total := len(headers) - 1
	segments := make([]string, len(widths))
	for i, width := range widths {
		total += width + 2
		segments[i] = strings.Repeat("─", width+2)
	}

	fmt.Fprintf(w, "%s┌%s┐%s\n", colorDim, strings.Repeat("─", total), colorReset)

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = fmt.Sprintf(" %s%-*s%s ", colorBold, widths[i], h, colorReset)
	}
	fmt.Fprintf(w, "%s│%s%s%s│%s\n", colorDim, colorReset, strings.Join(cells, colorDim+"│"+colorReset), colorDim, colorReset)
	fmt.Fprintf(w, "%s├%s┤%s\n", colorDim, strings.Join(segments, "┼"), colorReset)

	for _, row := range rows {
		for i, cell := range row {
			color := ""
			if i == 0 {
				color = colorBold + colorCyan
			}
			cells[i] = fmt.Sprintf(" %s%s%s ", color, padRight(truncateString(cell, widths[i]), widths[i]), colorReset)
		}
		fmt.Fprintf(w, "%s│%s%s%s│%s\n", colorDim, colorReset, strings.Join(cells, colorDim+"│"+colorReset), colorDim, colorReset)
	}

	fmt.Fprintf(w, "%s└%s┘%s\n", colorDim, strings.Repeat("─", total), colorReset)
}

func truncateLen(n, max int) int {
	if n > max {
		return max
	}
	return n
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-ellipsisLen]) + "..."
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
