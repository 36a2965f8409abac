package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/views/collections"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/views/document"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	collectionsView *collections.View
	searchView      *search.View
	documentView    *document.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is where the help view returns to.
	previousView messages.ViewType

	// initialCollection skips the picker when set.
	initialCollection string

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingSearchService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true
	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keymap:          km,
		help:            h,
		collectionsView: collections.NewView(s, ports.Collections),
		searchView:      search.NewView(s, km, ports.Search, ports.SearchOptions),
		documentView:    document.NewView(s),
		currentView:     messages.ViewCollections,
		previousView:    messages.ViewCollections,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.collectionsView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// WithCollection opens the app directly on the search view for name.
func (a *App) WithCollection(name string) *App {
	if name == "" {
		return a
	}
	a.initialCollection = name
	a.searchView.SetCollection(name)
	a.currentView = messages.ViewSearch
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("docsearch"),
	}
	if a.currentView == messages.ViewSearch {
		cmds = append(cmds, a.searchView.Init())
	} else {
		cmds = append(cmds, a.collectionsView.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keymap.ForceQuit) {
			return a, tea.Quit
		}
		return a, a.updateActive(msg)

	case messages.CollectionsLoaded:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
		a.err = a.collectionsView.Err()
		return a, cmd

	case messages.CollectionSelected:
		a.searchView.SetCollection(msg.Collection.Name)
		a.currentView = messages.ViewSearch
		return a, a.searchView.Init()

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ResultSelected:
		a.documentView.SetResult(msg.Result)
		a.currentView = messages.ViewDocument
		return a, nil

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateActive(msg)
}

// updateActive forwards msg to the active view.
func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocument:
		a.documentView, cmd = a.documentView.Update(msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, a.keymap.Help, a.keymap.Exit) {
			a.currentView = a.previousView
		}
	}
	return cmd
}

// switchView changes the active view.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	if view == messages.ViewHelp {
		if a.currentView != messages.ViewHelp {
			a.previousView = a.currentView
		}
		a.currentView = view
		return nil
	}

	a.currentView = view
	if view == messages.ViewCollections {
		return a.collectionsView.Init()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewDocument:
		return a.documentView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.collectionsView.View()
	}
}

// viewHelp renders the help view, one column per screen.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("collections · query · results · document"))
	b.WriteString("\n\n")
	b.WriteString(a.help.View(a.keymap))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Collection returns the collection being searched.
func (a *App) Collection() string {
	return a.searchView.Collection()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.collectionsView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.documentView.SetDimensions(width, height)
}
