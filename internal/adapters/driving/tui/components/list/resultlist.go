// Package list renders search results as a paged, selectable list.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

const (
	// linesPerResult is the height of one rendered result.
	linesPerResult = 2

	// headerLines is the title row and the blank row under it.
	headerLines = 2
)

// ResultList shows results nearest first, a page at a time. The selection
// is global; the page follows it.
type ResultList struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	pages    paginator.Model
	results  []domain.SearchResult
	selected int
	width    int
	height   int
}

// NewResultList returns an empty list. Nil arguments use the defaults.
func NewResultList(s *styles.Styles, km *keymap.KeyMap) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	pages := paginator.New()
	pages.Type = paginator.Arabic

	r := &ResultList{styles: s, keymap: km, pages: pages}
	r.SetDimensions(80, 10)
	return r
}

// Init implements the component contract; the list has no startup work.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update moves the selection by row or by page.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(k, r.keymap.Up):
		r.SetSelected(r.selected - 1)
	case key.Matches(k, r.keymap.Down):
		r.SetSelected(r.selected + 1)
	case key.Matches(k, r.keymap.PageUp):
		r.SetSelected(max(r.selected-r.pages.PerPage, 0))
	case key.Matches(k, r.keymap.PageDown):
		r.SetSelected(min(r.selected+r.pages.PerPage, len(r.results)-1))
	}
	return r, nil
}

// View renders the page holding the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	title := fmt.Sprintf("Results (%d)", len(r.results))
	if r.pages.TotalPages > 1 {
		title += "  page " + r.pages.View()
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(title))
	b.WriteString("\n")

	start, end := r.pages.GetSliceBounds(len(r.results))
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.row(i))
	}
	return b.String()
}

// row renders result i as a heading and a one-line preview.
func (r *ResultList) row(i int) string {
	res := &r.results[i]
	marker := "  "
	if i == r.selected {
		marker = "> "
	}

	name := res.SourceName
	if name == "" {
		name = "(unnamed)"
	}
	nameWidth := max(r.width-28, 10)
	heading := fmt.Sprintf("%s#%-5d %-*s  ", marker, res.ID, nameWidth, Truncate(name, nameWidth))
	distance := fmt.Sprintf("%.4f", res.Distance)

	if i == r.selected {
		heading = r.styles.Selected.Render(heading + distance)
	} else {
		heading = r.styles.Normal.Render(heading) + r.styles.Rank(i, len(r.results)).Render(distance)
	}

	preview := Truncate(strings.Join(strings.Fields(res.Text), " "), max(r.width-6, 20))
	return heading + "\n" + r.styles.Muted.Render("    "+preview)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.pages.SetTotalPages(len(results))
	r.selected = 0
	r.pages.Page = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected selects index and turns to its page. Out-of-range values
// are ignored.
func (r *ResultList) SetSelected(index int) {
	if index < 0 || index >= len(r.results) {
		return
	}
	r.selected = index
	r.pages.Page = index / r.pages.PerPage
}

// SelectedResult returns the selected result, or nil when empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// Page returns the zero-based page on screen.
func (r *ResultList) Page() int {
	return r.pages.Page
}

// SetDimensions resizes the list and repaginates.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
	r.pages.PerPage = max((height-headerLines)/linesPerResult, 1)
	r.pages.SetTotalPages(len(r.results))
	r.pages.Page = r.selected / r.pages.PerPage
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
