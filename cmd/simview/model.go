package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/ruhestand-sim/internal/historical"
)

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true).Padding(1, 1)
	alarmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type model struct {
	report historical.Report
	table  table.Model
}

func newModel(report historical.Report) model {
	columns := []table.Column{
		{Title: "Year", Width: 6},
		{Title: "Age", Width: 5},
		{Title: "Regime", Width: 16},
		{Title: "Wealth", Width: 14},
		{Title: "Flex%", Width: 7},
		{Title: "Runway", Width: 10},
		{Title: "Alarm", Width: 7},
	}

	rows := make([]table.Row, 0, len(report.Snapshots))
	for _, s := range report.Snapshots {
		alarm := ""
		if s.AlarmActive {
			alarm = "yes"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", s.Year),
			fmt.Sprintf("%d", s.Age),
			string(s.Regime),
			fmt.Sprintf("%.0f", s.TotalWealth),
			fmt.Sprintf("%.0f", s.FlexRate),
			fmt.Sprintf("%.1f", s.RunwayMonths),
			alarm,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	return model{report: report, table: t}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := "succeeded"
	style := headerStyle
	if !m.report.Success {
		status = "depleted"
		style = alarmStyle
	}

	header := style.Render(fmt.Sprintf(
		"backtest %s · final wealth %.0f · avg flex %.1f%% · %d years simulated",
		status, m.report.FinalWealth, m.report.AvgFlexRate, m.report.YearsSimulated,
	))

	footer := footerStyle.Render("q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View(), footer)
}
