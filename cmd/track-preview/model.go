package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/asv-radar-sim/internal/scope"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Playback speeds, as multiples of real time
var speeds = []int{1, 2, 5, 10, 30, 60}

// Rows and columns used by the header, status and help lines plus the
// scope border
const (
	chromeRows = 8
	chromeCols = 2
)

type tickMsg time.Time

type model struct {
	title   string
	records []trajectory.FlightRecord
	current int
	paused  bool
	speed   int // index into speeds
	rangeM  float64
	width   int
	height  int
}

func newModel(title string, records []trajectory.FlightRecord) model {
	return model{
		title:   title,
		records: records,
		rangeM:  scope.FitRange(records),
		width:   80,
		height:  30,
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(speeds[m.speed]), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) last() int {
	return len(m.records) - 1
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			if m.speed < len(speeds)-1 {
				m.speed++
			}
		case "-", "_":
			if m.speed > 0 {
				m.speed--
			}
		case "right", "l":
			if m.current < m.last() {
				m.current++
			}
		case "left", "h":
			if m.current > 0 {
				m.current--
			}
		case "r", "home":
			m.current = 0
		case "end":
			m.current = max(m.last(), 0)
		}

	case tickMsg:
		if !m.paused && m.current < m.last() {
			m.current++
		}
		return m, m.tick()
	}

	return m, nil
}

func (m model) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	s.WriteString(titleStyle.Render("ASV RADAR TRACK PREVIEW  " + m.title))
	s.WriteString("\n\n")

	if len(m.records) == 0 {
		s.WriteString("No records\n")
		return s.String()
	}

	sc := scope.New(m.width-chromeCols, m.height-chromeRows, m.rangeM)
	s.WriteString(sc.Render(m.records, m.current))
	s.WriteString("\n\n")
	s.WriteString(m.status())
	s.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString(helpStyle.Render("SPACE: Pause  +/-: Speed  ←/→: Step  R: Restart  Q: Quit"))
	return s.String()
}

func (m model) status() string {
	rec := m.records[m.current]
	state := fmt.Sprintf("▶ %dx", speeds[m.speed])
	if m.paused {
		state = "⏸ paused"
	} else if m.current == m.last() {
		state = "■ end"
	}
	return fmt.Sprintf("t=%ds/%ds  range %s  azimuth %.1f°  record %d/%d  %s",
		rec.TSeconds, m.records[m.last()].TSeconds,
		scope.FormatRange(rec.Position.RangeM), rec.Position.AzimuthDeg,
		m.current+1, len(m.records), state)
}
