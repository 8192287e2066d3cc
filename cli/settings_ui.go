package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"raceline.dev/raceline/settings"
)

type SettingType int

const (
	String SettingType = iota
	Float
	Int
)

type settingsState int

const (
	showSettingsMenu settingsState = iota
	settingsExit
	settingsInput
	saveSettings
)

type settingsItem struct {
	title, desc string
	state       settingsState
	Type        SettingType
	apply       func(*settings.RacelineSettings, string) error
}

func (i settingsItem) Title() string       { return i.title }
func (i settingsItem) Description() string { return i.desc }
func (i settingsItem) FilterValue() string { return i.title }

type settingsModel struct {
	app          *App
	list         list.Model
	state        settingsState
	textInput    textinput.Model
	selectedItem settingsItem
	prompt       string
}

func (m settingsModel) Update(msg tea.Msg, mm *uiModel) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.state == showSettingsMenu {
			it := m.list.SelectedItem().(settingsItem)
			m.selectedItem = it
			m.state = it.state
			switch m.state {
			case settingsExit:
				m.state = showSettingsMenu
				mm.state = showTracks
			case settingsInput:
				m.prompt = m.selectedItem.Title()
				m.textInput = textinput.New()
				m.textInput.Focus()
			case saveSettings:
				m.state = showSettingsMenu
				mm.state = showTracks
				m.app.Settings.Save()
			}
			return m, nil
		}
		if msg.Type == tea.KeyEnter && m.state == settingsInput {
			m.state = showSettingsMenu

			result := m.textInput.Value()
			if err := m.selectedItem.apply(m.app.Settings, result); err != nil {
				m.prompt = fmt.Sprintf("invalid value: %v", err)
			}
			return m, nil
		}
		if msg.Type == tea.KeyEsc && m.state == settingsInput {
			m.state = showSettingsMenu
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	switch m.state {
	case settingsInput:
		m.textInput, cmd = m.textInput.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m settingsModel) View() string {
	switch m.state {
	case settingsInput:
		return docStyle.Render(fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			m.prompt,
			m.textInput.View(),
			"(esc to cancel)",
		) + "\n")
	default:
		return docStyle.Render(m.list.View())
	}
}

func parseFloatInto(target *float64, value string) error {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}

func parseIntInto(target *int, value string) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}

func getSettingsModel(app *App) settingsModel {
	items := []list.Item{
		settingsItem{
			title: "Default Model",
			desc:  "The model used when an optimization names none",
			Type:  String,
			state: settingsInput,
			apply: func(s *settings.RacelineSettings, v string) error {
				s.DefaultModel = v
				return nil
			},
		},
		settingsItem{
			title: "Log Level",
			desc:  "Modify how verbose logging will be",
			Type:  String,
			state: settingsInput,
			apply: func(s *settings.RacelineSettings, v string) error {
				s.LogLevel = v
				return nil
			},
		},
		settingsItem{
			title: "Default Friction",
			desc:  "Friction coefficient for tracks that carry none",
			Type:  Float,
			state: settingsInput,
			apply: func(s *settings.RacelineSettings, v string) error {
				return parseFloatInto(&s.DefaultFriction, v)
			},
		},
		settingsItem{
			title: "Default Track Width",
			desc:  "Track width in meters for tracks that carry none",
			Type:  Float,
			state: settingsInput,
			apply: func(s *settings.RacelineSettings, v string) error {
				return parseFloatInto(&s.DefaultWidth, v)
			},
		},
		settingsItem{
			title: "Resample Points",
			desc:  "Centerline resolution used by the optimizer",
			Type:  Int,
			state: settingsInput,
			apply: func(s *settings.RacelineSettings, v string) error {
				return parseIntInto(&s.ResamplePoints, v)
			},
		},
		settingsItem{
			title: "Save Settings",
			desc:  "Persists any updates to the settings across restarts",
			state: saveSettings,
		},
		settingsItem{
			title: "Return to Track List",
			desc:  "Exit settings configuration",
			state: settingsExit,
		},
	}

	listDelegate := list.NewDefaultDelegate()
	m := settingsModel{app: app, list: list.New(items, listDelegate, 0, 0)}
	m.list.Title = "Raceline Settings"
	return m
}
