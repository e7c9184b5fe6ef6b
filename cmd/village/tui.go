package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/napolitain/village-sim/internal/advisor"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

type mode int

const (
	modeGrid mode = iota
	modePlace
	modeEvent
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cellStyle    = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
	emptyStyle   = cellStyle.Foreground(lipgloss.Color("240"))
	buildStyle   = cellStyle.Foreground(lipgloss.Color("11")).Faint(true)
	readyStyle   = cellStyle.Foreground(lipgloss.Color("10")).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedItem = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

type tickMsg time.Time

// model is the interactive village view. Every change goes through the
// session so the terminal sees the same rules as scripts and the server.
type model struct {
	session *game.Session
	snap    village.Snapshot
	cursor  models.Position

	mode     mode
	selected int
	options  []string

	status string
	failed bool

	realtime bool
}

func newModel(session *game.Session) model {
	return model{session: session, snap: session.Snapshot(), realtime: true}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	if !m.realtime {
		return nil
	}
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.session.Tick(time.Time(msg))
		m.snap = m.session.Snapshot()
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modePlace, modeEvent:
			return m.updateMenu(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	size := m.snap.GridSize
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor.Y > 0 {
			m.cursor.Y--
		}
	case "down", "j":
		if m.cursor.Y < size-1 {
			m.cursor.Y++
		}
	case "left", "h":
		if m.cursor.X > 0 {
			m.cursor.X--
		}
	case "right", "l":
		if m.cursor.X < size-1 {
			m.cursor.X++
		}
	case "p":
		m.options = nil
		for _, bt := range m.session.Catalog().Types() {
			m.options = append(m.options, string(bt))
		}
		m.mode, m.selected = modePlace, 0
	case "e":
		b, ok := m.snap.BuildingAt(m.cursor.X, m.cursor.Y)
		if !ok || len(b.Events) == 0 {
			return m.fail("No events here"), nil
		}
		m.options = append([]string(nil), b.Events...)
		m.mode, m.selected = modeEvent, 0
	case "u":
		return m.apply(game.Command{Op: game.OpUpgradeBuilding, Cell: m.cell()}), nil
	case "+", "=":
		return m.apply(game.Command{Op: game.OpAddWorker, Cell: m.cell()}), nil
	case "-":
		return m.apply(game.Command{Op: game.OpRemoveWorker, Cell: m.cell()}), nil
	case "r":
		p, ok := m.session.DuePrayer()
		if !ok {
			return m.fail("No prayer due"), nil
		}
		return m.apply(game.Command{Op: game.OpCompletePrayer, Prayer: p.Name}), nil
	case "a":
		best, ok := advisor.Best(m.snap, m.session.Catalog())
		if !ok {
			return m.fail("Nothing affordable"), nil
		}
		m.cursor = best.Position
		return m.apply(best.Command()), nil
	case "t":
		return m.apply(game.Command{Op: game.OpTick, Advance: "1m"}), nil
	case "T":
		return m.apply(game.Command{Op: game.OpTick, Advance: "10m"}), nil
	}
	return m, nil
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeGrid
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.options)-1 {
			m.selected++
		}
	case "enter":
		choice := m.options[m.selected]
		cmd := game.Command{Op: game.OpStartEvent, Cell: m.cell(), EventID: choice}
		if m.mode == modePlace {
			cmd = game.Command{Op: game.OpPlaceBuilding, Type: models.BuildingType(choice), X: m.cursor.X, Y: m.cursor.Y}
		}
		m.mode = modeGrid
		return m.apply(cmd), nil
	}
	return m, nil
}

func (m model) cell() *models.Position {
	pos := m.cursor
	return &pos
}

func (m model) apply(cmd game.Command) model {
	res, err := m.session.Apply(cmd)
	if err != nil {
		return m.fail(err.Error())
	}
	m.snap = res.Snapshot
	m.failed = false
	m.status = cmd.String()
	if res.Reward != nil {
		m.status = fmt.Sprintf("%s: +%.0f virtue", cmd.Prayer, res.Reward.VirtuePoints)
	}
	for _, st := range res.Settlements {
		m.status += fmt.Sprintf(" | %s finished", st.Definition)
	}
	return m
}

func (m model) fail(msg string) model {
	m.status = msg
	m.failed = true
	return m
}

func (m model) View() string {
	header := titleStyle.Render(fmt.Sprintf("Village · level %d · %s", m.snap.Level, m.snap.Now.Format("Mon 15:04:05")))
	body := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(m.gridView()), panelStyle.Render(m.sideView()))

	status := dimStyle.Render("arrows move · p place · u upgrade · +/- workers · e event · a advise · r pray · t/T advance · q quit")
	if m.status != "" {
		style := okStyle
		if m.failed {
			style = errorStyle
		}
		status = style.Render(m.status) + "\n" + status
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m model) gridView() string {
	var rows []string
	for y := 0; y < m.snap.GridSize; y++ {
		cells := make([]string, 0, m.snap.GridSize)
		for x := 0; x < m.snap.GridSize; x++ {
			cell := emptyStyle.Render("·")
			if b, ok := m.snap.BuildingAt(x, y); ok {
				label := strings.ToUpper(string(b.Type))
				if len(label) > 2 {
					label = label[:2]
				}
				if b.Productive {
					cell = readyStyle.Render(label)
				} else {
					cell = buildStyle.Render(label)
				}
			}
			if x == m.cursor.X && y == m.cursor.Y {
				cell = cursorStyle.Render(cell)
			}
			cells = append(cells, cell)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) sideView() string {
	var sb strings.Builder
	b := m.snap.Balances
	fmt.Fprintf(&sb, "Coins %.1f  Knowledge %.1f  Virtue %.1f\n", b.Coins, b.Knowledge, b.VirtuePoints)
	fmt.Fprintf(&sb, "Happiness %d  Population %d/%d  Idle workers %d\n",
		m.snap.Happiness, m.snap.Population, m.snap.TotalCapacity, m.snap.AvailableWorkers)
	y := m.snap.TotalYield
	fmt.Fprintf(&sb, "Yield/h %.1fc %.1fk %.1fv\n\n", y.CoinsPerHour, y.KnowledgePerHour, y.VirtuePerHour)

	switch m.mode {
	case modePlace:
		sb.WriteString(titleStyle.Render("Place building") + "\n")
		sb.WriteString(m.menuView())
		return sb.String()
	case modeEvent:
		sb.WriteString(titleStyle.Render("Start event") + "\n")
		sb.WriteString(m.menuView())
		return sb.String()
	}

	if bv, ok := m.snap.BuildingAt(m.cursor.X, m.cursor.Y); ok {
		fmt.Fprintf(&sb, "%s (level %d)\n", bv.Name, bv.Level)
		if bv.Productive {
			sb.WriteString(okStyle.Render("complete") + "\n")
		} else {
			fmt.Fprintf(&sb, "%s %d%%\n", bv.Phase, bv.Progress)
		}
		fmt.Fprintf(&sb, "Workers %d/%d  ×%.2f\n", bv.Workers, bv.MaxWorkers, bv.Multiplier)
	} else {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("empty (%d,%d)", m.cursor.X, m.cursor.Y)) + "\n")
	}

	if len(m.snap.Events) > 0 {
		sb.WriteString("\n" + titleStyle.Render("Events") + "\n")
		for _, ev := range m.snap.Events {
			fmt.Fprintf(&sb, "%s %s\n", ev.Title, formatDuration(time.Duration(ev.RemainingSeconds*float64(time.Second))))
		}
	}

	sb.WriteString("\n" + titleStyle.Render("Prayers") + "\n")
	for _, st := range m.session.Prayers() {
		mark := "○"
		if st.Completed {
			mark = okStyle.Render("●")
		}
		fmt.Fprintf(&sb, "%s %-8s %s\n", mark, st.Prayer.Name, st.Prayer.Time)
	}
	return sb.String()
}

func (m model) menuView() string {
	var sb strings.Builder
	for i, opt := range m.options {
		if i == m.selected {
			sb.WriteString(selectedItem.Render("> "+opt) + "\n")
		} else {
			sb.WriteString("  " + opt + "\n")
		}
	}
	sb.WriteString(dimStyle.Render("enter select · esc cancel"))
	return sb.String()
}
