package list

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: 0, SourceName: "greeting.txt", Text: "HelloWorld", Distance: 0},
		{ID: 3, SourceName: "weather.md", Text: "Tomorrowbringsrain", Distance: 1.25},
		{ID: 7, SourceName: "recipe.docx", Text: "Preheattheoven", Distance: 2.5},
	}
}

func manyResults(n int) []domain.SearchResult {
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{ID: int64(i), SourceName: fmt.Sprintf("doc-%02d.txt", i), Distance: float64(i)}
	}
	return out
}

func TestNewResultList(t *testing.T) {
	r := NewResultList(nil, nil)

	require.NotNil(t, r)
	assert.NotNil(t, r.styles)
	assert.NotNil(t, r.keymap)
	assert.Zero(t, r.Count())
	assert.Nil(t, r.SelectedResult())
	assert.Nil(t, r.Init())
}

func TestResultList_SetResults(t *testing.T) {
	r := NewResultList(nil, nil)
	r.SetResults(testResults())
	r.SetSelected(2)

	r.SetResults(testResults()[:2])

	assert.Equal(t, 2, r.Count())
	assert.Zero(t, r.Selected())
	assert.Equal(t, testResults()[:2], r.Results())
}

func TestResultList_SetSelected(t *testing.T) {
	r := NewResultList(nil, nil)
	r.SetResults(testResults())

	r.SetSelected(2)
	assert.Equal(t, int64(7), r.SelectedResult().ID)

	r.SetSelected(5)
	assert.Equal(t, 2, r.Selected())
	r.SetSelected(-1)
	assert.Equal(t, 2, r.Selected())
}

func TestResultList_Update_Keys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		from int
		want int
	}{
		{"down arrow", tea.KeyMsg{Type: tea.KeyDown}, 1, 2},
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}, 1, 0},
		{"j", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 1, 2},
		{"k", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 1, 0},
		{"up at top stays", tea.KeyMsg{Type: tea.KeyUp}, 0, 0},
		{"down at bottom stays", tea.KeyMsg{Type: tea.KeyDown}, 9, 9},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, 1, 5},
		{"page down clamps", tea.KeyMsg{Type: tea.KeyRight}, 8, 9},
		{"page up clamps", tea.KeyMsg{Type: tea.KeyPgUp}, 2, 0},
		{"other keys ignored", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResultList(nil, nil)
			r.SetDimensions(100, 10) // four per page
			r.SetResults(manyResults(10))
			r.SetSelected(tt.from)

			r.Update(tt.msg)

			assert.Equal(t, tt.want, r.Selected())
		})
	}
}

func TestResultList_View(t *testing.T) {
	r := NewResultList(nil, nil)
	assert.Contains(t, r.View(), "No results")

	r.SetResults(testResults())
	r.SetDimensions(100, 20)
	view := r.View()

	assert.Contains(t, view, "Results (3)")
	assert.NotContains(t, view, "page")
	assert.Contains(t, view, "greeting.txt")
	assert.Contains(t, view, "HelloWorld")
	assert.Contains(t, view, "1.2500")
	assert.Contains(t, view, "> #0")
}

func TestResultList_View_FollowsSelection(t *testing.T) {
	r := NewResultList(nil, nil)
	r.SetResults(manyResults(10))
	r.SetDimensions(100, 10)

	r.SetSelected(6)
	view := r.View()

	assert.Equal(t, 1, r.Page())
	assert.Contains(t, view, "page 2/3")
	assert.Contains(t, view, "doc-06.txt")
	assert.NotContains(t, view, "doc-03.txt")
	assert.NotContains(t, view, "doc-08.txt")
}

func TestResultList_SetDimensions_Repaginates(t *testing.T) {
	r := NewResultList(nil, nil)
	r.SetResults(manyResults(10))
	r.SetDimensions(100, 10)
	r.SetSelected(9)
	require.Equal(t, 2, r.Page())

	r.SetDimensions(100, 40)

	assert.Zero(t, r.Page())
	assert.Contains(t, r.View(), "doc-00.txt")
}

func TestResultList_View_CollapsesPreviewWhitespace(t *testing.T) {
	r := NewResultList(nil, nil)
	r.SetResults([]domain.SearchResult{{ID: 1, Text: "line one\n\n  line two"}})

	view := r.View()

	assert.Contains(t, view, "(unnamed)")
	assert.Contains(t, view, "line one line two")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "日本語...", Truncate("日本語のテキストです", 6))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, 10, len([]rune(Truncate(strings.Repeat("x", 50), 10))))
}
