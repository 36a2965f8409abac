// Package document shows the full stored text of one search result.
package document

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// chromeHeight is the rows used by the title, separator and footer.
const chromeHeight = 6

// View is a scrollable view of a result's text.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	help     help.Model
	viewport viewport.Model
	result   *domain.SearchResult
	width    int
	height   int
}

// NewView creates a new document view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:   s,
		keymap:   keymap.DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 24-chromeHeight),
		width:    80,
		height:   24,
	}
	return v
}

// SetResult shows a result from the top.
func (v *View) SetResult(result domain.SearchResult) {
	v.result = &result
	v.refresh()
	v.viewport.GotoTop()
}

// Result returns the result being shown.
func (v *View) Result() *domain.SearchResult {
	return v.result
}

// refresh rewraps the text to the current width.
func (v *View) refresh() {
	if v.result == nil {
		v.viewport.SetContent("")
		return
	}
	text := v.result.Text
	if text == "" {
		text = v.styles.Muted.Render("(no text)")
	}
	wrapped := lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(text)
	v.viewport.SetContent(wrapped)
}

// Update handles scrolling and navigation.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Close):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewSearch}
			}
		case key.Matches(msg, v.keymap.Top):
			v.viewport.GotoTop()
			return v, nil
		case key.Matches(msg, v.keymap.Bottom):
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the document.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.result != nil {
		title = fmt.Sprintf("#%d  %s", v.result.ID, v.result.SourceName)
	}
	b.WriteString(v.styles.Title.Render(title))
	if v.result != nil {
		b.WriteString("  ")
		b.WriteString(v.styles.Distance.Render(fmt.Sprintf("distance %.4f", v.result.Distance)))
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", min(max(v.width-4, 1), 60))))
	b.WriteString("\n\n")

	b.WriteString(v.viewport.View())
	b.WriteString("\n\n")

	b.WriteString(v.styles.Help.Render(fmt.Sprintf("[%3.0f%%]  ", v.viewport.ScrollPercent()*100)))
	b.WriteString(v.help.ShortHelpView(v.keymap.For(keymap.ScreenDocument)))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = max(width-2, 10)
	v.viewport.Height = max(height-chromeHeight, 1)
	v.help.Width = width
	v.refresh()
}
