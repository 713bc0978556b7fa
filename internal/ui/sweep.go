// Package ui renders the interactive sweep view with bubbletea.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/topmix/internal/tasks"
)

// progressMsg wraps a sweep progress update as a [tea.Msg].
type progressMsg tasks.ProgressUpdate

// doneMsg signals that the progress channel closed.
type doneMsg struct{}

// SweepModel displays live progress of a credential sweep.
type SweepModel struct {
	spinner  spinner.Model
	progress <-chan tasks.ProgressUpdate
	current  string
	results  []tasks.ProgressUpdate
	failed   int
	done     bool
}

// NewSweepModel creates a sweep view reading updates from the given channel.
func NewSweepModel(progress <-chan tasks.ProgressUpdate) SweepModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return SweepModel{spinner: sp, progress: progress}
}

// waitForUpdate reads the next progress update from the channel.
func (m SweepModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return doneMsg{}
		}
		return progressMsg(update)
	}
}

func (m SweepModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case progressMsg:
		update := tasks.ProgressUpdate(msg)
		switch update.Phase {
		case tasks.UserDone:
			m.results = append(m.results, update)
			if update.Err != nil {
				m.failed++
			}
			m.current = ""
		case tasks.SweepDone:
			m.done = true
			m.current = update.Message
		default:
			m.current = update.Message
		}

		if m.done {
			return m, tea.Quit
		}
		return m, m.waitForUpdate()

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SweepModel) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Sweeping stored users") + "\n")

	for _, result := range m.results {
		if result.Err != nil {
			b.WriteString(styles.err.Render("✗ ") + result.Message + "\n")
		} else {
			b.WriteString(styles.ok.Render("✓ ") + result.Message + "\n")
		}
	}

	if m.done {
		b.WriteString(fmt.Sprintf("\nDone: %d users, %d failed\n", len(m.results), m.failed))
	} else if m.current != "" {
		b.WriteString(m.spinner.View() + " " + m.current + "\n")
		b.WriteString(styles.help.Render("q to quit") + "\n")
	}

	return b.String()
}
