package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/growth"
)

const (
	historyCapacity = 600
	graphWidth      = 60
	graphHeight     = 12
)

var (
	panelStyle       = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(CurrentTheme.Chart).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type TickMsg time.Time

// Model steps a growth model in real time and charts its total biomass.
// Tuning a parameter re-initializes the model with the new vector and
// restarts the trajectory from the initial state.
type Model struct {
	model      growth.Model
	sys        dynamo.System
	integrator dynamo.Integrator

	state, initialState dynamo.State
	t, dt, duration     float64
	tolerance           float64

	params        []float64
	initialParams []float64
	paramNames    []string
	selected      int

	totals   []float64
	rates    []float64
	logScale bool
	running  bool
	showHelp bool
	err      error
}

// NewModel takes an initialized model and the System that evaluates it.
func NewModel(m growth.Model, sys dynamo.System, integ dynamo.Integrator, initState []float64, dt, duration float64) Model {
	params := growth.Params(m)

	lm := Model{
		model:         m,
		sys:           sys,
		integrator:    integ,
		state:         dynamo.State(initState).Clone(),
		initialState:  dynamo.State(initState).Clone(),
		dt:            dt,
		duration:      duration,
		tolerance:     1e-6,
		params:        params,
		initialParams: append([]float64(nil), params...),
		paramNames:    m.ParamNames(),
		totals:        make([]float64, 0, historyCapacity),
		rates:         make([]float64, 0, historyCapacity),
		running:       true,
	}
	lm.totals = append(lm.totals, total(lm.state))
	return lm
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "l":
			m.logScale = !m.logScale
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			nextTheme()
		}
	case TickMsg:
		if m.running && m.err == nil && m.t < m.duration {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.paramNames) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramNames)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	next := append([]float64(nil), m.params...)
	v := next[m.selected]
	if v == 0 {
		v = 1e-3
	}
	next[m.selected] = v * factor
	if err := growth.Init(m.model, next); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.params = next
	m.restart()
}

func (m *Model) step() {
	h := math.Min(m.dt, m.duration-m.t)

	var (
		next dynamo.State
		err  error
	)
	nextDt := m.dt
	if adaptive, ok := m.integrator.(dynamo.AdaptiveIntegrator); ok {
		var suggested float64
		next, suggested, err = adaptive.StepAdaptive(m.sys, m.state, m.t, h, m.tolerance)
		if errors.Is(err, dynamo.ErrStepRejected) {
			if suggested > 0 && suggested < m.dt {
				m.dt = suggested
			}
			return
		}
		if suggested > 0 {
			nextDt = math.Min(suggested, 10*m.dt)
		}
	} else {
		next, err = m.integrator.Step(m.sys, m.state, m.t, h)
	}
	if err == nil && !next.IsValid() {
		err = dynamo.ErrInvalidState
	}
	if err != nil {
		m.err = err
		m.running = false
		return
	}

	prev := total(m.state)
	m.state = next
	m.t += h
	m.dt = nextDt

	cur := total(m.state)
	m.totals = appendCapped(m.totals, cur)
	if prev > 0 && cur > 0 {
		m.rates = appendCapped(m.rates, math.Log(cur/prev)/h)
	}
}

// reset restores the initial parameters and restarts the trajectory.
func (m *Model) reset() {
	params := append([]float64(nil), m.initialParams...)
	if err := growth.Init(m.model, params); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.params = params
	m.restart()
}

func (m *Model) restart() {
	m.t = 0
	m.state = m.initialState.Clone()
	m.totals = append(m.totals[:0], total(m.state))
	m.rates = m.rates[:0]
	m.err = nil
	m.running = true
}

func total(x dynamo.State) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// series returns the plotted history, log-transformed when enabled.
func (m Model) series() []float64 {
	if !m.logScale {
		return m.totals
	}
	out := make([]float64, 0, len(m.totals))
	for _, v := range m.totals {
		if v > 0 {
			out = append(out, math.Log(v))
		}
	}
	return out
}

func (m Model) View() string {
	var left strings.Builder
	caption := "total biomass"
	if m.logScale {
		caption = "log total biomass"
	}
	if data := m.series(); len(data) > 1 {
		chart := asciigraph.Plot(data, asciigraph.Height(graphHeight), asciigraph.Width(graphWidth), asciigraph.Caption(caption))
		left.WriteString(graphStyle.Render(chart))
	} else {
		left.WriteString(Subtle.Render("waiting for data..."))
	}
	if len(m.rates) > 1 {
		left.WriteString("\n\n" + MetricLabel.Render("specific rate ") + SparklineChart(m.rates, graphWidth-14))
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.model.Name())) + "\n")

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = errorStyle.Render("STOPPED")
	case m.t >= m.duration:
		status = Subtle.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f / %.0f", m.t, m.duration)) + "\n")
	s.WriteString(ProgressBar(m.t/m.duration, 24) + "\n")
	s.WriteString(labelStyle.Render("Total") + valueStyle.Render(fmt.Sprintf("%.4g", total(m.state))) + "\n")
	for i, v := range m.state {
		s.WriteString(labelStyle.Render(fmt.Sprintf("y%d", i)) + valueStyle.Render(fmt.Sprintf("%.4g", v)) + "\n")
	}
	if n := len(m.rates); n > 0 {
		s.WriteString(labelStyle.Render("mu") + MetricValue.Render(fmt.Sprintf("%.4f", m.rates[n-1])) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	for i, name := range m.paramNames {
		line := fmt.Sprintf("%-8s %.4g", name, m.params[i])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + MetricLabel.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nL:Log    T:Theme ?:Help\nTab ↑↓:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(left.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return BoxWithTitle("Keys", strings.Join([]string{
			"Space    pause/resume",
			"R        reset state and parameters",
			"L        toggle log scale",
			"Tab      select parameter",
			"Up/K     increase parameter (+5%), restart",
			"Down/J   decrease parameter (-5%), restart",
			"T        cycle themes",
			"Q        quit",
		}, "\n"), 40) + "\n\n" + mainView
	}
	return mainView
}
