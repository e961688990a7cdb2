package main

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"limitbook/internal/sim"
	"limitbook/tui"
)

func main() {
	// Background bots keep the books moving while the user trades.
	s := sim.New(sim.DefaultConfig())
	defer s.Close()

	p := tea.NewProgram(tui.NewModel(s.Market), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("terminal error: %v", err)
	}
}
