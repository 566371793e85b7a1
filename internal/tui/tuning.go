package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/pso"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	barFill     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	barEmpty    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2)
)

// StatsMsg delivers one tuner iteration to the view.
type StatsMsg pso.IterationStats

// DoneMsg ends the view with the tuning outcome.
type DoneMsg struct {
	BestGains []float64
	BestCost  float64
}

// TuningView is a progress display for a running gain tuning session.
// The caller feeds it through the updates channel; the tea program's
// command loop pulls one message at a time.
type TuningView struct {
	controller string
	total      int
	updates    <-chan tea.Msg

	history []pso.IterationStats
	done    bool
	final   DoneMsg
}

func NewTuningView(controller string, iterations int, updates <-chan tea.Msg) TuningView {
	return TuningView{
		controller: controller,
		total:      iterations,
		updates:    updates,
		history:    make([]pso.IterationStats, 0, iterations),
	}
}

func (m TuningView) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.updates
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m TuningView) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m TuningView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case StatsMsg:
		m.history = append(m.history, pso.IterationStats(msg))
		return m, m.waitForUpdate()
	case DoneMsg:
		m.done = true
		m.final = msg
		return m, tea.Quit
	}
	return m, nil
}

func (m TuningView) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tuning "+m.controller) + "\n\n")

	iter := len(m.history)
	frac := 0.0
	if m.total > 0 {
		frac = float64(iter) / float64(m.total)
	}
	b.WriteString(progressBar(frac, 40))
	b.WriteString(fmt.Sprintf("  %d/%d\n\n", iter, m.total))

	if iter > 0 {
		last := m.history[iter-1]
		b.WriteString(labelStyle.Render("best cost  ") + valueStyle.Render(fmt.Sprintf("%.6g", last.BestCost)) + "\n")
		b.WriteString(labelStyle.Render("mean cost  ") + valueStyle.Render(fmt.Sprintf("%.6g", last.MeanCost)) + "\n")
		b.WriteString(labelStyle.Render("worst cost ") + valueStyle.Render(fmt.Sprintf("%.6g", last.WorstCost)) + "\n")
		b.WriteString(labelStyle.Render("inertia    ") + valueStyle.Render(fmt.Sprintf("%.3f", last.Inertia)) + "\n\n")

		costs := make([]float64, iter)
		for i, st := range m.history {
			costs[i] = st.BestCost
		}
		b.WriteString(labelStyle.Render("convergence ") + sparkline(costs, 40) + "\n")
	}

	if m.done {
		b.WriteString("\n" + doneStyle.Render(fmt.Sprintf("best gains %v (cost %.6g)", m.final.BestGains, m.final.BestCost)) + "\n")
	} else {
		b.WriteString("\n" + labelStyle.Render("q to quit") + "\n")
	}

	return borderStyle.Render(b.String())
}

func progressBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return barFill.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled))
}

func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		b.WriteRune(chars[idx])
	}
	return b.String()
}
