package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekheat/arena"
	"github.com/brensch/snekheat/game"
)

type resultMsg arena.Result

type boardMsg struct {
	gameID string
	turn   int
	board  string
	tiers  string
}

type tickMsg time.Time

type model struct {
	a           *arena.Arena
	results     <-chan arena.Result
	boards      <-chan boardMsg
	startTime   time.Time
	gamesPlayed int
	wins        map[string]int
	draws       int
	moves       int64
	recentGames []string
	board       boardMsg
	done        bool
}

func initialModel(a *arena.Arena, results <-chan arena.Result, boards <-chan boardMsg) model {
	return model{
		a:         a,
		results:   results,
		boards:    boards,
		startTime: time.Now(),
		wins:      make(map[string]int),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForResult(results <-chan arena.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return tea.Quit()
		}
		return resultMsg(r)
	}
}

func waitForBoard(boards <-chan boardMsg) tea.Cmd {
	return func() tea.Msg {
		return <-boards
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForResult(m.results), waitForBoard(m.boards), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.moves = m.a.Moves()
		return m, tickCmd()
	case boardMsg:
		m.board = msg
		return m, waitForBoard(m.boards)
	case resultMsg:
		m.gamesPlayed++
		if msg.Winner == "" {
			m.draws++
		} else {
			m.wins[msg.Winner]++
		}
		m.recentGames = append([]string{formatResult(arena.Result(msg))}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForResult(m.results)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec, movesPerSec := 0.0, 0.0
	if duration.Seconds() >= 1 {
		gamesPerSec = float64(m.gamesPlayed) / duration.Seconds()
		movesPerSec = float64(m.moves) / duration.Seconds()
	}

	var s strings.Builder
	fmt.Fprintf(&s, "Games Played:   %d\n", m.gamesPlayed)
	fmt.Fprintf(&s, "Total Moves:    %d\n", m.moves)
	fmt.Fprintf(&s, "Duration:       %s\n", duration.Round(time.Second))
	fmt.Fprintf(&s, "Games/Sec:      %.2f\n", gamesPerSec)
	fmt.Fprintf(&s, "Moves/Sec:      %.2f\n\n", movesPerSec)

	s.WriteString("Wins:\n")
	names := make([]string, 0, len(m.wins))
	for n := range m.wins {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&s, "  %-12s %d\n", n, m.wins[n])
	}
	fmt.Fprintf(&s, "  %-12s %d\n\n", "draw", m.draws)

	if m.board.board != "" {
		fmt.Fprintf(&s, "Game %s turn %d  %s\n%s\n", shortID(m.board.gameID), m.board.turn, m.board.tiers, m.board.board)
	}

	s.WriteString("Recent Games:\n")
	for _, g := range m.recentGames {
		s.WriteString(g + "\n")
	}

	s.WriteString("\nPress q to quit.\n")
	return s.String()
}

func formatResult(r arena.Result) string {
	winner := r.Winner
	if winner == "" {
		winner = "draw"
	}
	return fmt.Sprintf("%s: winner %s, turns %d, %s", shortID(r.GameID), winner, r.Turns, r.Elapsed.Round(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderTurn(t arena.Turn) boardMsg {
	ids := make([]string, 0, len(t.Decisions))
	for id := range t.Decisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		d := t.Decisions[id]
		parts = append(parts, fmt.Sprintf("%s=%s(%s)", id, d.Move, d.Tier))
	}
	return boardMsg{gameID: t.GameID, turn: t.State.Turn, board: game.Render(t.State), tiers: strings.Join(parts, " ")}
}
