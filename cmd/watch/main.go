// Command watch plays one self-play game and renders it live in the
// terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/danielmussell/ubiquitous-funicular/arena"
	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
	"github.com/danielmussell/ubiquitous-funicular/rules"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	foodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	snakeStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
	}
)

type turnMsg arena.Progress

type doneMsg struct {
	result arena.Result
	err    error
}

type model struct {
	updates chan tea.Msg
	cancel  context.CancelFunc

	state  *game.GameState
	moves  map[string]int
	result *arena.Result
	err    error
}

func waitForUpdate(updates chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
	case turnMsg:
		m.state = msg.State
		m.moves = msg.Moves
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.result = &msg.result
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("arena"))
	b.WriteString("\n\n")

	if m.state == nil {
		b.WriteString(statusStyle.Render("waiting for first turn..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(boardStyle.Render(renderBoard(m.state)))
	b.WriteString("\n")

	for i := range m.state.Snakes {
		s := &m.state.Snakes[i]
		style := snakeStyles[i%len(snakeStyles)]
		line := fmt.Sprintf("%s  health %3d  length %2d", s.Id, s.Health, len(s.Body))
		if mv, ok := m.moves[s.Id]; ok {
			line += "  " + game.MoveName(mv)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil && m.err != context.Canceled:
		b.WriteString(statusStyle.Render(fmt.Sprintf("aborted: %v", m.err)))
	case m.result != nil && m.result.Winner != "":
		b.WriteString(statusStyle.Render(fmt.Sprintf("turn %d, winner %s, q to quit", m.result.Turns, m.result.Winner)))
	case m.result != nil:
		b.WriteString(statusStyle.Render(fmt.Sprintf("turn %d, draw, q to quit", m.result.Turns)))
	default:
		b.WriteString(statusStyle.Render(fmt.Sprintf("turn %d, q to quit", m.state.Turn)))
	}
	b.WriteString("\n")
	return b.String()
}

// renderBoard draws the grid top row first, since (0,0) is the bottom-left
// corner of the board.
func renderBoard(state *game.GameState) string {
	cells := make([]string, state.Width*state.Height)
	for i := range cells {
		cells[i] = emptyStyle.Render(".")
	}
	at := func(p game.Point) *string {
		return &cells[p.Y*state.Width+p.X]
	}

	for _, f := range state.Food {
		*at(f) = foodStyle.Render("*")
	}
	for i := range state.Snakes {
		s := &state.Snakes[i]
		style := snakeStyles[i%len(snakeStyles)]
		for _, p := range s.Body {
			*at(p) = style.Render("o")
		}
		*at(s.Head()) = style.Render("@")
	}

	var b strings.Builder
	for y := state.Height - 1; y >= 0; y-- {
		for x := int32(0); x < state.Width; x++ {
			if x > 0 {
				b.WriteString(" ")
			}
			b.WriteString(cells[y*state.Width+x])
		}
		if y > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	depth := fs.Int("depth", engine.DefaultConfig().Depth, "Search depth in plies")
	snakes := fs.Int("snakes", 2, "Snakes in the game")
	seed := fs.Int64("seed", 0, "Game seed (0 uses the clock)")
	delay := fs.Duration("delay", 150*time.Millisecond, "Pause between turns")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan tea.Msg, 16)
	go func() {
		e := engine.New(engine.Config{Depth: *depth})
		res, _, err := arena.PlayGame(ctx, e, arena.Options{
			Seed:   *seed,
			Snakes: *snakes,
			Food:   rules.DefaultFoodSettings,
		}, func(p arena.Progress) {
			updates <- turnMsg(p)
			time.Sleep(*delay)
		})
		updates <- doneMsg{result: res, err: err}
	}()

	p := tea.NewProgram(model{updates: updates, cancel: cancel}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
