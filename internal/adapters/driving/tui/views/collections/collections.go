// Package collections provides the collection picker view for the TUI.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// ErrNoCollectionService indicates that no collection service was provided.
var ErrNoCollectionService = errors.New("collection service is required")

// View lists collections and lets the user pick one to search.
type View struct {
	styles            *styles.Styles
	keymap            *keymap.KeyMap
	statusbar         *status.Bar
	collectionService driving.CollectionService
	ctx               context.Context

	collections []domain.Collection
	selected    int
	width       int
	height      int
	err         error
	loading     bool
}

// NewView creates a new collections view.
func NewView(s *styles.Styles, collectionService driving.CollectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetHints(km.For(keymap.ScreenCollections))

	return &View{
		styles:            s,
		keymap:            km,
		statusbar:         bar,
		collectionService: collectionService,
		ctx:               context.Background(),
		width:             80,
		height:            24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the collections.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.statusbar.SetState(status.StateLoading)
	return v.loadCollections()
}

func (v *View) loadCollections() tea.Cmd {
	return func() tea.Msg {
		if v.collectionService == nil {
			return messages.CollectionsLoaded{Err: ErrNoCollectionService}
		}
		collections, err := v.collectionService.List(v.ctx)
		return messages.CollectionsLoaded{Collections: collections, Err: err}
	}
}

// Update handles messages for the collections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.CollectionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.collections = msg.Collections
		v.selected = min(v.selected, max(len(v.collections)-1, 0))
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage(fmt.Sprintf("%d collections", len(v.collections)))
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	km := v.keymap
	switch {
	case key.Matches(msg, km.Up):
		v.selected = max(v.selected-1, 0)
	case key.Matches(msg, km.Down):
		if v.selected < len(v.collections)-1 {
			v.selected++
		}
	case key.Matches(msg, km.Reload):
		return v, v.Init()
	case key.Matches(msg, km.Pick):
		c := v.SelectedCollection()
		if c == nil {
			return v, nil
		}
		selected := *c
		return v, func() tea.Msg {
			return messages.CollectionSelected{Collection: selected}
		}
	case key.Matches(msg, km.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case key.Matches(msg, km.Exit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

// View renders the collection list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("docsearch"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("pick a collection"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading collections..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.collections) == 0:
		b.WriteString(v.styles.Muted.Render("No collections. Run 'docsearch import <dir> <collection>' first."))
	default:
		b.WriteString(v.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderList() string {
	lines := make([]string, 0, len(v.collections))
	for i := range v.collections {
		c := &v.collections[i]
		index := "none"
		if c.HasIndex() {
			index = fmt.Sprintf("%s/%s", c.Index.Kind, c.Index.Metric)
		}
		line := fmt.Sprintf("%-24s %6d docs  dim %-5d %s", c.Name, c.Count, c.Dimension, index)

		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+line))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
}

// Collections returns the loaded collections.
func (v *View) Collections() []domain.Collection {
	return v.collections
}

// SelectedCollection returns the highlighted collection, or nil.
func (v *View) SelectedCollection() *domain.Collection {
	if v.selected < 0 || v.selected >= len(v.collections) {
		return nil
	}
	return &v.collections[v.selected]
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
