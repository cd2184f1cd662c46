package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
)

// listItem implements list.Item for the timespan list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// periodItem is a preset relative period.
type periodItem struct {
	spec marketdata.PeriodSpec
}

func (i periodItem) Title() string       { return fmt.Sprintf("%d %s", i.spec.Count, i.spec.Unit) }
func (i periodItem) Description() string { return "last " + i.Title() }
func (i periodItem) FilterValue() string { return i.Title() }

// PeriodPresets are offered in the period list, in order.
var PeriodPresets = []marketdata.PeriodSpec{
	marketdata.NewPeriodSpec(marketdata.PeriodDay, 5),
	marketdata.NewPeriodSpec(marketdata.PeriodDay, 10),
	marketdata.NewPeriodSpec(marketdata.PeriodDay, 30),
	marketdata.NewPeriodSpec(marketdata.PeriodWeek, 4),
	marketdata.NewPeriodSpec(marketdata.PeriodMonth, 3),
	marketdata.NewPeriodSpec(marketdata.PeriodMonth, 6),
	marketdata.NewPeriodSpec(marketdata.PeriodYear, 1),
}

func newList(title string, items []list.Item) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

func NewPeriodList() list.Model {
	items := make([]list.Item, 0, len(PeriodPresets))
	for _, spec := range PeriodPresets {
		items = append(items, periodItem{spec: spec})
	}

	return newList("Select Period", items)
}

func NewTimespanList() list.Model {
	return newList("Select Timespan", []list.Item{
		listItem{name: string(marketdata.TimespanOneDay), description: "daily candles"},
		listItem{name: string(marketdata.TimespanOneHour), description: "hourly candles"},
		listItem{name: string(marketdata.TimespanTenMinutes), description: "10 minute candles"},
		listItem{name: string(marketdata.TimespanOneMinute), description: "1 minute candles"},
		listItem{name: string(marketdata.TimespanOneWeek), description: "weekly candles"},
		listItem{name: string(marketdata.TimespanOneMonth), description: "monthly candles"},
		listItem{name: string(marketdata.TimespanOneQuarter), description: "quarterly candles"},
	})
}

func NewTickerInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "SBER"
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 30
	ti.Prompt = "> "

	return ti
}

// ParseTicker normalizes user input to an upper-case ticker.
func ParseTicker(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

func NewDataTable() table.Model {
	columns := []table.Column{
		{Title: "Begin", Width: 20},
		{Title: "Open", Width: 12},
		{Title: "High", Width: 12},
		{Title: "Low", Width: 12},
		{Title: "Close", Width: 16},
		{Title: "Volume", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateTableRows fills the table with the candles of series, newest first.
func UpdateTableRows(t table.Model, series *marketdata.TimeSeries) table.Model {
	if series == nil {
		t.SetRows(nil)

		return t
	}

	candles := series.Rows()
	rows := make([]table.Row, 0, len(candles))

	for i := len(candles) - 1; i >= 0; i-- {
		md := candles[i]

		previous := math.NaN()
		if i > 0 {
			previous = candles[i-1].Close
		}

		rows = append(rows, table.Row{
			md.Time.Format("2006-01-02 15:04"),
			formatNumber(md.Open, 2),
			formatNumber(md.High, 2),
			formatNumber(md.Low, 2),
			FormatPriceWithColor(md.Close, previous),
			formatNumber(md.Volume, 0),
		})
	}

	t.SetRows(rows)

	return t
}

// Summarize renders mean and standard deviation of the close column.
func Summarize(series *marketdata.TimeSeries) string {
	mean, err := series.Mean("close")
	if err != nil {
		return ""
	}

	std, _ := series.Std("close")

	return HelpStyle.Render(fmt.Sprintf("%d candles | close mean %s | std %s",
		series.Len(), formatNumber(mean, 2), formatNumber(std, 2)))
}

func formatNumber(v float64, precision int) string {
	if math.IsNaN(v) {
		return "-"
	}

	return fmt.Sprintf("%.*f", precision, v)
}
