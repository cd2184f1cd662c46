package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
)

// Application states.
const (
	StateTickerInput = iota
	StatePeriodSelect
	StateTimespanSelect
	StateLoading
	StateDataDisplay
)

// SeriesLoader fetches the candles of a relative period. *marketdata.Client implements it.
type SeriesLoader interface {
	Series(ctx context.Context, ticker string, spec marketdata.PeriodSpec, timespan marketdata.Timespan) (*marketdata.TimeSeries, error)
}

// Model is the Bubble Tea model of the history viewer.
type Model struct {
	state        int
	loader       SeriesLoader
	tickerInput  textinput.Model
	periodList   list.Model
	timespanList list.Model
	dataTable    table.Model

	ticker   string
	period   marketdata.PeriodSpec
	timespan marketdata.Timespan
	series   *marketdata.TimeSeries
	warning  error
	err      error
	width    int
	height   int
}

func NewModel(loader SeriesLoader) Model {
	return Model{
		state:        StateTickerInput,
		loader:       loader,
		tickerInput:  NewTickerInput(),
		periodList:   NewPeriodList(),
		timespanList: NewTimespanList(),
		dataTable:    NewDataTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// q is a regular character while typing a ticker
			if m.state != StateTickerInput {
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.periodList.SetSize(msg.Width, msg.Height-4)
		m.timespanList.SetSize(msg.Width, msg.Height-4)
		m.dataTable.SetWidth(msg.Width)
		m.dataTable.SetHeight(msg.Height - 8)

		return m, nil

	case SeriesLoadedMsg:
		m.series = msg.Series
		m.warning = msg.Warning
		m.err = nil
		m.dataTable = UpdateTableRows(m.dataTable, msg.Series)
		m.state = StateDataDisplay

		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err
		m.state = StateDataDisplay

		return m, nil
	}

	switch m.state {
	case StateTickerInput:
		return m.updateTickerInput(msg)
	case StatePeriodSelect:
		return m.updatePeriodSelect(msg)
	case StateTimespanSelect:
		return m.updateTimespanSelect(msg)
	case StateDataDisplay:
		return m.updateDataDisplay(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StatePeriodSelect:
		m.state = StateTickerInput
		m.tickerInput.Focus()

		return m, textinput.Blink
	case StateTimespanSelect:
		m.state = StatePeriodSelect
	case StateDataDisplay:
		m.series = nil
		m.warning = nil
		m.err = nil
		m.ticker = ""
		m.timespan = ""
		m.dataTable.SetRows(nil)
		m.tickerInput.Reset()
		m.tickerInput.Focus()
		m.state = StateTickerInput

		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) updateTickerInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if ticker := ParseTicker(m.tickerInput.Value()); ticker != "" {
			m.ticker = ticker
			m.state = StatePeriodSelect
			m.tickerInput.Blur()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tickerInput, cmd = m.tickerInput.Update(msg)

	return m, cmd
}

func (m Model) updatePeriodSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.periodList.SelectedItem().(periodItem); ok {
			m.period = item.spec
			m.state = StateTimespanSelect

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.periodList, cmd = m.periodList.Update(msg)

	return m, cmd
}

func (m Model) updateTimespanSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.timespanList.SelectedItem().(listItem); ok {
			m.timespan = marketdata.Timespan(item.name)
			m.state = StateLoading

			return m, m.loadSeries()
		}
	}

	var cmd tea.Cmd
	m.timespanList, cmd = m.timespanList.Update(msg)

	return m, cmd
}

func (m Model) updateDataDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.dataTable, cmd = m.dataTable.Update(msg)

	return m, cmd
}

// loadSeries returns a command that fetches the selected period.
func (m Model) loadSeries() tea.Cmd {
	loader := m.loader
	ticker, spec, timespan := m.ticker, m.period, m.timespan

	return func() tea.Msg {
		if loader == nil {
			return LoadErrorMsg{Err: fmt.Errorf("no data source configured")}
		}

		series, err := loader.Series(context.Background(), ticker, spec, timespan)
		if err != nil && !errors.IsInsufficientDataError(err) {
			return LoadErrorMsg{Err: err}
		}

		return SeriesLoadedMsg{Series: series, Warning: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateTickerInput:
		s.WriteString(TitleStyle.Render("MOEX History"))
		s.WriteString("\n\n")
		s.WriteString("Enter a ticker (e.g., SBER):\n\n")
		s.WriteString(m.tickerInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to confirm, ctrl+c to quit"))

	case StatePeriodSelect:
		s.WriteString(TitleStyle.Render("Select Period - " + m.ticker))
		s.WriteString("\n\n")
		s.WriteString(m.periodList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, Esc to go back"))

	case StateTimespanSelect:
		s.WriteString(TitleStyle.Render("Select Timespan - " + m.ticker))
		s.WriteString("\n\n")
		s.WriteString(m.timespanList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, Esc to go back"))

	case StateLoading:
		s.WriteString(fmt.Sprintf("Loading %s...\n", m.ticker))

	case StateDataDisplay:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s %s - last %d %s", m.ticker, m.timespan, m.period.Count, m.period.Unit)))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		if m.warning != nil {
			s.WriteString(WarningStyle.Render(fmt.Sprintf("Warning: %v", m.warning)))
			s.WriteString("\n\n")
		}

		switch {
		case m.series == nil:
		case m.series.IsEmpty():
			s.WriteString("No candles in this period.\n")
		default:
			s.WriteString(m.dataTable.View())
			s.WriteString("\n")
			s.WriteString(Summarize(m.series))
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("q: quit | Esc: new ticker"))
	}

	return s.String()
}
