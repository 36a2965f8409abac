package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func testCollections() []domain.Collection {
	return []domain.Collection{
		{Name: "docs", Dimension: 384, Count: 3, Loaded: true},
		{Name: "notes", Dimension: 384, Count: 1, Loaded: true},
	}
}

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: 0, SourceName: "greeting.txt", Text: "HelloWorld", Distance: 0},
		{ID: 2, SourceName: "weather.txt", Text: "Tomorrowbringsrain", Distance: 1.25},
	}
}

func newTestApp(t *testing.T, search *MockSearchService) *App {
	t.Helper()
	if search == nil {
		search = &MockSearchService{}
	}
	app, err := NewApp(NewPorts(search, &MockCollectionService{Collections: testCollections()}))
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	return app
}

// keyRunes builds a key message for typed text.
func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the app.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		app.Update(msg)
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockCollectionService{}))

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewCollections, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Collections: &MockCollectionService{}})
	assert.ErrorIs(t, err, ErrMissingSearchService)
	assert.Nil(t, app)

	app, err = NewApp(nil)
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, nil)
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_WithCollection(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("docs")

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Equal(t, "docs", app.Collection())
}

func TestApp_WithCollection_Empty(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("")

	assert.Equal(t, messages.ViewCollections, app.CurrentView())
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, nil)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockCollectionService{}))
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockCollectionService{}))
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 40, app.height)
}

func TestApp_CtrlC_Quits(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_CollectionsLoaded(t *testing.T) {
	app := newTestApp(t, nil)

	app.Update(messages.CollectionsLoaded{Collections: testCollections()})

	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "docs")
	assert.Contains(t, app.View(), "notes")
}

func TestApp_CollectionsLoaded_Error(t *testing.T) {
	app := newTestApp(t, nil)

	app.Update(messages.CollectionsLoaded{Err: errors.New("store offline")})

	assert.EqualError(t, app.Err(), "store offline")
}

func TestApp_SelectCollectionThenSearch(t *testing.T) {
	var gotCollection, gotQuery string
	search := &MockSearchService{
		SearchFunc: func(_ context.Context, collection, query string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
			gotCollection, gotQuery = collection, query
			return testResults(), nil
		},
	}
	app := newTestApp(t, search)
	app.Update(messages.CollectionsLoaded{Collections: testCollections()})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)
	require.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Equal(t, "docs", app.Collection())

	app.Update(keyRunes("hello"))
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)

	assert.Equal(t, "docs", gotCollection)
	assert.Equal(t, "hello", gotQuery)
	assert.Len(t, app.Results(), 2)
	assert.Equal(t, 0, app.SelectedIndex())
}

func TestApp_SearchOptionsPassedThrough(t *testing.T) {
	var got domain.SearchOptions
	search := &MockSearchService{
		SearchFunc: func(_ context.Context, _, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
			got = opts
			return nil, nil
		},
	}
	ports := NewPorts(search, &MockCollectionService{})
	ports.SearchOptions = domain.SearchOptions{TopK: 5, NProbe: 3}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	app.WithCollection("docs")

	app.Update(keyRunes("q"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)

	assert.Equal(t, domain.SearchOptions{TopK: 5, NProbe: 3}, got)
}

func TestApp_OpenResultAndBack(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("docs")
	app.Update(messages.SearchCompleted{Collection: "docs", Results: testResults()})

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)

	require.Equal(t, messages.ViewDocument, app.CurrentView())
	assert.Contains(t, app.View(), "weather.txt")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(app, cmd)

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Len(t, app.Results(), 2)
}

func TestApp_EscFromSearchReturnsToCollections(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("docs")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, reload := app.Update(cmd())

	assert.Equal(t, messages.ViewCollections, app.CurrentView())
	assert.NotNil(t, reload)
}

func TestApp_SearchError(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("docs")

	app.Update(messages.SearchCompleted{Collection: "docs", Err: domain.ErrSearch})

	assert.ErrorIs(t, app.Err(), domain.ErrSearch)
	assert.Contains(t, app.View(), "Error")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, nil).WithCollection("docs")
	testErr := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: testErr})

	assert.Equal(t, testErr, app.Err())
}

func TestApp_HelpReturnsToPreviousView(t *testing.T) {
	app := newTestApp(t, nil)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	require.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "Help")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewCollections, app.CurrentView())
}

func TestApp_View_PerView(t *testing.T) {
	app := newTestApp(t, nil)
	assert.NotEmpty(t, app.View())

	app.WithCollection("docs")
	assert.Contains(t, app.View(), "docs")

	app.Update(messages.ResultSelected{Result: testResults()[0]})
	assert.Contains(t, app.View(), "greeting.txt")
	assert.Contains(t, app.View(), "HelloWorld")
}
