// Package input holds the query field of the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/styles"
)

const (
	// maxQueryLength bounds a query typed in the TUI.
	maxQueryLength = 512

	// historySize is how many submitted queries are kept for recall.
	historySize = 50
)

// SearchInput is a query field labelled with the collection being searched.
// Up and down recall earlier queries.
type SearchInput struct {
	field      textinput.Model
	styles     *styles.Styles
	collection string
	width      int

	history []string
	// cursor indexes history while recalling; len(history) means the draft.
	cursor int
	draft  string
}

// NewSearchInput returns a focused, empty query field.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Prompt = ""
	field.Placeholder = "Describe what you are looking for..."
	field.CharLimit = maxQueryLength
	field.Width = 50
	field.Focus()

	return &SearchInput{field: field, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update edits the query or walks the history.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyUp:
			s.recall(-1)
			return s, nil
		case tea.KeyDown:
			s.recall(1)
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

func (s *SearchInput) recall(step int) {
	next := s.cursor + step
	if next < 0 || next > len(s.history) {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.field.Value()
	}
	s.cursor = next
	if next == len(s.history) {
		s.field.SetValue(s.draft)
	} else {
		s.field.SetValue(s.history[next])
	}
	s.field.CursorEnd()
}

// Remember records a submitted query. Repeating the last query is a no-op.
func (s *SearchInput) Remember(query string) {
	query = strings.TrimSpace(query)
	if query != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != query) {
		s.history = append(s.history, query)
		if len(s.history) > historySize {
			s.history = s.history[len(s.history)-historySize:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// History returns the remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return append([]string(nil), s.history...)
}

// View renders the label and the field.
func (s *SearchInput) View() string {
	label := "Search: "
	if s.collection != "" {
		label = s.collection + " > "
	}
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.styles.Title.Render(label),
		s.styles.InputField.Render(s.field.View()),
	)
}

// SetCollection sets the collection shown in the label.
func (s *SearchInput) SetCollection(name string) {
	s.collection = name
}

// Value returns the query without surrounding whitespace.
func (s *SearchInput) Value() string {
	return strings.TrimSpace(s.field.Value())
}

// SetValue replaces the query text.
func (s *SearchInput) SetValue(value string) {
	s.field.SetValue(value)
	s.field.CursorEnd()
}

// Focus gives the field keyboard focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.field.Focus()
}

// Blur removes focus from the field.
func (s *SearchInput) Blur() {
	s.field.Blur()
}

// Focused reports whether the field has focus.
func (s *SearchInput) Focused() bool {
	return s.field.Focused()
}

// SetWidth fits the field into width, leaving room for the label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.field.Width = max(width-len(s.collection)-10, 20)
}

// Width returns the width set by SetWidth.
func (s *SearchInput) Width() int {
	return s.width
}
