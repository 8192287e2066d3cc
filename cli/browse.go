package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"raceline.dev/raceline/models"
	"raceline.dev/raceline/race"
)

type mainState int

const (
	showTracks mainState = iota
	showResults
	showSettings
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type trackItem struct {
	title, desc string
	index       int
}

func (i trackItem) Title() string       { return i.title }
func (i trackItem) Description() string { return i.desc }
func (i trackItem) FilterValue() string { return i.title }

type resultsMsg struct {
	trackName string
	results   []race.Result
	err       error
}

type uiModel struct {
	app      *App
	list     list.Model
	state    mainState
	settings settingsModel
	results  resultsMsg
	tracks   []trackListEntry
	busy     bool
}

type trackListEntry struct {
	name     string
	width    float64
	friction float64
}

func initialModel(app *App) (uiModel, error) {
	tracks, err := app.Catalog.List()
	if err != nil {
		return uiModel{}, err
	}

	entries := make([]trackListEntry, len(tracks))
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		entries[i] = trackListEntry{name: t.Name, width: t.Width, friction: t.Friction}
		items[i] = trackItem{
			title: t.Name,
			desc:  fmt.Sprintf("width %.1f m, friction %.2f, %d points", t.Width, t.Friction, len(t.Points)),
			index: i,
		}
	}

	m := uiModel{
		app:      app,
		list:     list.New(items, list.NewDefaultDelegate(), 0, 0),
		settings: getSettingsModel(app),
		tracks:   entries,
	}
	m.list.Title = "Tracks (enter to optimize, s for settings)"
	return m, nil
}

func (m uiModel) optimizeSelected() tea.Cmd {
	it, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return nil
	}
	app := m.app
	name := m.tracks[it.index].name
	return func() tea.Msg {
		t, err := app.Catalog.Get(name)
		if err != nil {
			return resultsMsg{trackName: name, err: err}
		}
		results, err := app.Optimizer.Optimize(context.Background(), race.Request{
			TrackPoints:    t.Points,
			TrackWidth:     t.Width,
			Friction:       t.Friction,
			Vehicles:       []models.Vehicle{models.DefaultVehicle("car-1")},
			ModelID:        app.Settings.DefaultModel,
			ResamplePoints: app.Settings.ResamplePoints,
		})
		return resultsMsg{trackName: name, results: results, err: err}
	}
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == showTracks && m.list.FilterState() != list.Filtering {
			switch {
			case msg.Type == tea.KeyEnter && !m.busy:
				m.busy = true
				return m, m.optimizeSelected()
			case msg.String() == "s":
				m.state = showSettings
				return m, nil
			}
		}
		if m.state == showResults && msg.Type == tea.KeyEsc {
			m.state = showTracks
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		m.settings, _ = m.settings.Update(msg, &m)
	case resultsMsg:
		m.busy = false
		m.results = msg
		m.state = showResults
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case showSettings:
		m.settings, cmd = m.settings.Update(msg, &m)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m uiModel) View() string {
	switch m.state {
	case showResults:
		if m.results.err != nil {
			return docStyle.Render(fmt.Sprintf("optimization failed: %v\n\n(esc to go back)", m.results.err))
		}
		return docStyle.Render(renderResults(m.results.trackName, m.results.results) + "\n(esc to go back)")
	case showSettings:
		return m.settings.View()
	}
	if m.busy {
		return docStyle.Render(m.list.View() + "\n\noptimizing...")
	}
	return docStyle.Render(m.list.View())
}

func interactive(app *App) error {
	m, err := initialModel(app)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
