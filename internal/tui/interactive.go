package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lokhorst/rebound/internal/config"
	"github.com/lokhorst/rebound/internal/diagnostics"
	"github.com/lokhorst/rebound/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"binary":       "circular two-body orbit",
	"figure_eight": "three-body choreography",
	"chaos":        "shadow-particle divergence",
	"cluster":      "tree-gravity collapse",
	"disc":         "merging debris disc",
}

type state int

const (
	stateMenu state = iota
	stateConfig
	stateSim
)

type model struct {
	state    state
	cursor   int
	presets  []string
	selected string

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string

	running   bool
	paused    bool
	s         *sim.Simulation
	duration  float64
	speed     float64
	trail     []struct{ x, y float64 }
	history   []float64
	scale     float64
	lastFrame time.Time
	fps       float64
	runErr    error

	width  int
	height int
}

func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: []string{"binary", "figure_eight", "chaos", "cluster", "disc"},
		params:  map[string]float64{},
		speed:   1.0,
		width:   80,
		height:  28,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.s != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				dt := now.Sub(m.lastFrame).Seconds()
				if dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running && m.state == stateSim {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter":
		m.selected = m.presets[m.cursor]
		m.setParamsForPreset()
		m.paramCursor = 0
		m.state = stateConfig
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.params[m.paramNames[m.paramCursor]] = v
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				m.editBuf += msg.String()
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
		return m, tea.ClearScreen
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "left", "h":
		name := m.paramNames[m.paramCursor]
		m.params[name] = adjust(m.params[name], -1)
	case "right", "l":
		name := m.paramNames[m.paramCursor]
		m.params[name] = adjust(m.params[name], 1)
	case "enter":
		m.editing = true
		m.editBuf = ""
	case "s":
		m.start()
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.ClearScreen
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 64)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

// adjust nudges a value by ten percent of its magnitude, or a small fixed
// amount near zero.
func adjust(v float64, dir int) float64 {
	step := math.Abs(v) * 0.1
	if step == 0 {
		step = 0.1
	}
	return v + float64(dir)*step
}

func (m *model) setParamsForPreset() {
	cfg := config.GetPreset(m.selected)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m.paramNames = []string{"dt", "duration"}
	m.params["dt"] = cfg.Dt
	m.params["duration"] = cfg.Duration
	if cfg.Init.Setup == "cluster" || cfg.Init.Setup == "disc" {
		m.paramNames = append(m.paramNames, "bodies")
		m.params["bodies"] = float64(cfg.Init.Bodies)
	}
	if cfg.Gravity == "tree" {
		m.paramNames = append(m.paramNames, "theta")
		m.params["theta"] = cfg.Theta
	}
}

func (m *model) start() {
	base := config.GetPreset(m.selected)
	if base == nil {
		base = config.DefaultConfig()
	}
	cfg := *base
	if dt := m.params["dt"]; dt > 0 {
		cfg.Dt = dt
	}
	if bodies, ok := m.params["bodies"]; ok && bodies > 0 {
		cfg.Init.Bodies = int(bodies)
	}
	if theta, ok := m.params["theta"]; ok && theta > 0 {
		cfg.Theta = theta
	}
	m.duration = m.params["duration"]

	s, err := cfg.Build()
	m.s = s
	m.runErr = err

	m.trail = make([]struct{ x, y float64 }, 0, 100)
	m.history = make([]float64, 0, 300)
	m.scale = 0
	m.speed = 1.0
	m.lastFrame = time.Time{}
	m.running = err == nil
	m.paused = false
}

func (m *model) reset() {
	m.trail = nil
	m.history = nil
	m.s = nil
	m.runErr = nil
}

func (m *model) step() {
	if m.s == nil {
		return
	}
	if m.duration > 0 && m.s.T >= m.duration {
		m.paused = true
		return
	}
	if err := m.s.Step(); err != nil {
		m.runErr = err
		m.paused = true
		return
	}
	m.history = append(m.history, diagnostics.Energy(m.s))
	if len(m.history) > 300 {
		m.history = m.history[1:]
	}

	// Trail and view scale live on the model, not the view, so they
	// survive across frames.
	for i := 0; i < m.s.NReal(); i++ {
		p := m.s.Particles[i]
		if v := math.Abs(p.X); v > m.scale {
			m.scale = v
		}
		if v := math.Abs(p.Y); v > m.scale {
			m.scale = v
		}
	}
	if m.s.NReal() > 0 {
		p := m.s.Particles[0]
		m.trail = append(m.trail, struct{ x, y float64 }{p.X, p.Y})
		if len(m.trail) > 80 {
			m.trail = m.trail[1:]
		}
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("r e b o u n d") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(presetInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%8.4f", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 10
	if cw < 50 {
		cw = 50
	}
	if ch < 12 {
		ch = 12
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	m.drawParticles(canvas, cw, ch)

	var b strings.Builder
	b.WriteString("\n")
	status := fmt.Sprintf("t=%.3f  n=%d  %.0f fps  speed %gx", simTime(m.s), simN(m.s), m.fps, m.speed)
	if m.paused {
		status += "  paused"
	}
	if m.runErr != nil {
		status = "error: " + m.runErr.Error()
	}
	b.WriteString("   " + cyan.Render(m.selected) + "  " + dim.Render(status) + "\n")
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", cw)) + "\n")

	for _, row := range canvas {
		b.WriteString("   ")
		b.WriteString(white.Render(string(row)))
		b.WriteString("\n")
	}

	b.WriteString(dimmer.Render("   "+strings.Repeat("─", cw)) + "\n")
	if len(m.history) > 1 {
		spark := sparkline(m.history, cw-10)
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("energy"), cyan.Render(spark)))
	}
	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  c config  q quit") + "\n")

	return b.String()
}

func (m model) drawParticles(canvas [][]rune, cw, ch int) {
	if m.s == nil {
		return
	}
	n := m.s.NReal()
	scale := m.scale
	if scale <= 0 {
		scale = 1
	}

	project := func(x, y float64) (int, int) {
		px := cw/2 + int(x/scale*float64(cw)/2.2)
		py := ch/2 - int(y/scale*float64(ch)/2.2)
		return px, py
	}

	for _, pt := range m.trail {
		x, y := project(pt.x, pt.y)
		set(canvas, x, y, '·', cw, ch)
	}

	var maxM float64
	for i := 0; i < n; i++ {
		if m.s.Particles[i].M > maxM {
			maxM = m.s.Particles[i].M
		}
	}
	for i := 0; i < n; i++ {
		p := m.s.Particles[i]
		x, y := project(p.X, p.Y)
		c := '*'
		if maxM > 0 && p.M > 0.5*maxM {
			c = '●'
		}
		set(canvas, x, y, c, cw, ch)
	}
}

func simTime(s *sim.Simulation) float64 {
	if s == nil {
		return 0
	}
	return s.T
}

func simN(s *sim.Simulation) int {
	if s == nil {
		return 0
	}
	return s.NReal()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
