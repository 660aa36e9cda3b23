package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	playheadStyle = lipgloss.NewStyle().Reverse(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(8)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#f55"))
)

// gridModel shows the pattern with the playhead. The first key press
// resumes audio and starts the loop, like a first click on a web page.
type gridModel struct {
	eng      *Engine
	bpm      int
	playhead int
	started  bool
	err      error
	quitting bool
}

type stepMsg int

func listenForSteps(seq *Sequencer) tea.Cmd {
	return func() tea.Msg {
		return stepMsg(<-seq.Steps())
	}
}

func newGridModel(eng *Engine, bpm int) gridModel {
	return gridModel{eng: eng, bpm: bpm, playhead: -1}
}

func (m gridModel) Init() tea.Cmd {
	return listenForSteps(m.eng.Sequencer())
}

func (m gridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.eng.StopLoop()
			m.quitting = true
			return m, tea.Quit
		}

		if !m.started {
			m.started = true
			if m.err = m.eng.EnsureAudio(); m.err != nil {
				return m, nil
			}
			m.eng.StartLoop()
			return m, nil
		}

		switch msg.String() {
		case " ", "p":
			if !m.eng.ToggleLoop() {
				m.playhead = -1
			}
		case "r":
			m.err = m.eng.EnsureAudio()
		}

	case stepMsg:
		if m.eng.Sequencer().Playing() {
			m.playhead = int(msg)
		}
		return m, listenForSteps(m.eng.Sequencer())
	}

	return m, nil
}

func (m gridModel) View() string {
	if m.quitting {
		return ""
	}

	p := m.eng.Sequencer().Pattern()

	var rows []string
	for v := Voice(0); v < NumVoices; v++ {
		var cells []string
		for i := 0; i < Steps; i++ {
			char := "·"
			style := dimStyle
			if p.Active(v, i) {
				char = "●"
				style = activeStyle
			}
			if i == m.playhead {
				style = playheadStyle
			}
			cells = append(cells, style.Render(char))
		}
		rows = append(rows, labelStyle.Render(v.String())+strings.Join(cells, ""))
	}

	playState := "stop"
	if m.eng.Sequencer().Playing() {
		playState = "play"
	}
	status := statusStyle.Render(fmt.Sprintf("%s %3dbpm  audio %s", playState, m.bpm, m.eng.Context().State()))
	if m.err != nil {
		status += "  " + errStyle.Render(m.err.Error())
	}

	help := dimStyle.Render("any key:start  space/p:play/stop  r:resume audio  q:quit")
	if !m.started {
		help = dimStyle.Render("press any key to start the beat")
	}

	return fmt.Sprintf("\n%s\n\n%s\n%s\n", strings.Join(rows, "\n"), status, help)
}

// RunGrid runs the grid view until the user quits.
func RunGrid(eng *Engine, bpm int) error {
	p := tea.NewProgram(newGridModel(eng, bpm), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
