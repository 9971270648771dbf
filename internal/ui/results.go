// Package ui renders search results for the CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hexline/magsearch/internal/catalog"
)

// Color palette.
const (
	colorAccent   = "75"  // titles, similarity scores
	colorGray     = "245" // metadata
	colorDarkGray = "238" // separators
)

// Styles holds the lipgloss styles for result rendering.
type Styles struct {
	Title    lipgloss.Style
	Meta     lipgloss.Style
	Score    lipgloss.Style
	Divider  lipgloss.Style
	NoResult lipgloss.Style
}

// DefaultStyles returns the styled components for TTY output.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Meta:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Score:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Divider:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		NoResult: lipgloss.NewStyle().Faint(true),
	}
}

// RenderResults writes search results to w. With styled=false (non-TTY or
// --plain) output is unstyled plain text with the same layout.
func RenderResults(w io.Writer, results []catalog.SearchResult, styled bool) {
	st := DefaultStyles()
	if !styled {
		st = Styles{}
	}

	if len(results) == 0 {
		fmt.Fprintln(w, st.NoResult.Render("no results"))
		return
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w, st.Divider.Render(strings.Repeat("─", 60)))
		}
		score := catalog.RoundSimilarity(r.Similarity)
		fmt.Fprintf(w, "%s %s\n",
			st.Title.Render(r.Title),
			st.Score.Render(fmt.Sprintf("(%.4f)", score)))
		fmt.Fprintln(w, st.Meta.Render(fmt.Sprintf("#%d · %s · %s · %s",
			r.ID, r.Author, r.Category, r.PublicationDate)))
		fmt.Fprintln(w, truncate(r.Content, 200))
	}
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
