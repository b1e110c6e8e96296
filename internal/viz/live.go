package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/lattice"
	"github.com/san-kum/windtunnel/internal/tunnel"
)

const (
	defaultCols    = 80
	defaultRows    = 24
	dragHistory    = 200
	inletStep      = 0.01
	minBrush       = 1.0
	maxBrush       = 20.0
	smokeThreshold = 0.05
	sidePanelWidth = 44
	frameInterval  = time.Second / 30
)

// MaxInlet caps the interactive inlet speed at Mach 0.5.
var MaxInlet = 0.5 * lattice.SoundSpeed

type TickMsg time.Time

type LiveOptions struct {
	Name            string
	Inlet           float64
	ReferenceLength float64
	Mode            Mode
	Cols, Rows      int
}

// LiveModel is the interactive tunnel view.
type LiveModel struct {
	tunnel  *tunnel.Tunnel
	name    string
	inlet   float64
	refLen  float64
	mode    Mode
	braille bool

	running  bool
	showHelp bool
	err      error

	cols, rows       int
	cursorX, cursorY int
	brush            float64

	drag []float64
}

func NewLiveModel(t *tunnel.Tunnel, opts LiveOptions) LiveModel {
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	s := t.Solver()
	return LiveModel{
		tunnel:  t,
		name:    opts.Name,
		inlet:   opts.Inlet,
		refLen:  opts.ReferenceLength,
		mode:    opts.Mode,
		running: true,
		cols:    cols,
		rows:    rows,
		cursorX: s.Width() / 4,
		cursorY: s.Height() / 2,
		brush:   5,
		drag:    make([]float64, 0, dragHistory),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.cols = max(10, msg.Width-sidePanelWidth-4)
		m.rows = max(5, msg.Height-4)
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m LiveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.tunnel.Solver()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "+", "=":
		m.inlet = math.Min(m.inlet+inletStep, MaxInlet)
	case "-", "_":
		m.inlet = math.Max(m.inlet-inletStep, 0)
	case "left":
		m.cursorX = max(0, m.cursorX-m.stepX())
	case "right":
		m.cursorX = min(s.Width()-1, m.cursorX+m.stepX())
	case "up":
		m.cursorY = max(0, m.cursorY-m.stepY())
	case "down":
		m.cursorY = min(s.Height()-1, m.cursorY+m.stepY())
	case "[":
		m.brush = math.Max(minBrush, m.brush-1)
	case "]":
		m.brush = math.Min(maxBrush, m.brush+1)
	case "p":
		m.tunnel.Paint(float64(m.cursorX), float64(m.cursorY), m.brush, true)
	case "e":
		m.tunnel.Paint(float64(m.cursorX), float64(m.cursorY), m.brush, false)
	case "c":
		m.tunnel.ClearObstacles()
	case "r":
		m.tunnel.Reset()
		m.drag = m.drag[:0]
		m.err = nil
	case "s":
		if sm := m.tunnel.Smoke(); sm != nil {
			m.tunnel.SetSmokeActive(!sm.Active())
		}
	case "m":
		m.mode = m.mode.Next()
	case "b":
		m.braille = !m.braille
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// stepX and stepY move the cursor by one screen cell.
func (m LiveModel) stepX() int { return max(1, m.tunnel.Solver().Width()/m.cols) }
func (m LiveModel) stepY() int { return max(1, m.tunnel.Solver().Height()/m.rows) }

func (m *LiveModel) step() {
	if err := m.tunnel.Frame(m.inlet); err != nil {
		m.err = err
		return
	}
	m.drag = append(m.drag, m.tunnel.Latest().Drag)
	if len(m.drag) > dragHistory {
		m.drag = m.drag[1:]
	}
}

func (m LiveModel) Inlet() float64     { return m.inlet }
func (m LiveModel) Mode() Mode         { return m.mode }
func (m LiveModel) Running() bool      { return m.running }
func (m LiveModel) Brush() float64     { return m.brush }
func (m LiveModel) Err() error         { return m.err }
func (m LiveModel) Cursor() (int, int) { return m.cursorX, m.cursorY }

func (m LiveModel) View() string {
	var lines []string
	var force aero.Sample
	var tickCount int
	var smokeOn bool

	m.tunnel.View(func(f *tunnel.Frame) {
		if m.braille {
			lines = Braille(f.Solver, f.Smoke, m.cols, m.rows, smokeThreshold).Lines()
		} else {
			lines = RenderField(f.Solver, f.Smoke, m.mode, m.cols, m.rows)
		}
		force = f.Force
		tickCount = f.Tick
		smokeOn = f.Smoke != nil && f.Smoke.Active()
	})
	m.overlayCursor(lines)
	canvasView := canvasStyle.Render(strings.Join(lines, "\n"))

	var s strings.Builder
	title := "WIND TUNNEL"
	if m.name != "" {
		title += " · " + strings.ToUpper(m.name)
	}
	s.WriteString(TitleStyle.Render(title) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusDiverged.Render("DIVERGED") + " (R to reset)\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(row("Tick", fmt.Sprintf("%d", tickCount)))
	s.WriteString(row("Inlet", fmt.Sprintf("%.3f", m.inlet)))
	s.WriteString(row("Field", m.fieldName()))
	s.WriteString(row("Smoke", onOff(smokeOn)))
	s.WriteString(row("Brush", fmt.Sprintf("r=%.0f at (%d,%d)", m.brush, m.cursorX, m.cursorY)))
	s.WriteString(row("Drag", fmt.Sprintf("%.4f", force.Drag)))
	s.WriteString(row("Lift", fmt.Sprintf("%.4f", force.Lift)))
	if m.refLen > 0 && m.inlet > 0 {
		cd, cl := aero.Coefficients(force, m.inlet, m.refLen)
		s.WriteString(row("Cd / Cl", fmt.Sprintf("%.3f / %.3f", cd, cl)))
	}

	if len(m.drag) > 1 {
		chart := asciigraph.Plot(m.drag, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Drag"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(KeyHint.Render("\nSP:Pause +/-:Inlet M:Field B:Braille\nP/E:Paint/Erase [ ]:Brush S:Smoke\nC:Clear R:Reset ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func (m LiveModel) fieldName() string {
	if m.braille {
		return "smoke (braille)"
	}
	return m.mode.String()
}

// overlayCursor marks the brush position on the rendered grid.
func (m LiveModel) overlayCursor(lines []string) {
	s := m.tunnel.Solver()
	if len(lines) == 0 {
		return
	}
	r := m.cursorY * len(lines) / s.Height()
	if r < 0 || r >= len(lines) {
		return
	}
	line := []rune(lines[r])
	c := m.cursorX * len(line) / s.Width()
	if c < 0 || c >= len(line) {
		return
	}
	lines[r] = string(line[:c]) + cursorStyle.Render("+") + string(line[c+1:])
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  + / -    - Inlet speed              ║
║  Arrows   - Move brush cursor        ║
║  P / E    - Paint / Erase            ║
║  [ / ]    - Brush radius             ║
║  M        - Cycle field mode         ║
║  B        - Braille smoke view       ║
║  S        - Toggle smoke             ║
║  C        - Clear obstacles          ║
║  R        - Reset flow               ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`

// RunLive starts the interactive view on the alternate screen.
func RunLive(t *tunnel.Tunnel, opts LiveOptions) error {
	_, err := tea.NewProgram(NewLiveModel(t, opts), tea.WithAltScreen()).Run()
	return err
}
