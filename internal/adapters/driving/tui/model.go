// Package tui provides an interactive chat session over the indexed
// corpus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdex/internal/core/domain"
)

// Engine is the TUI-facing subset of the engine.
type Engine interface {
	Ask(ctx context.Context, question string, topK int) (domain.Answer, error)
	Stats(ctx context.Context) domain.Stats
}

// entry is one question/answer exchange in the transcript.
type entry struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	engine     Engine
	input      textinput.Model
	viewport   viewport.Model
	transcript []entry
	status     string
	topK       int
	ready      bool
}

// New creates a new chat model.
func New(engine Engine, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	stats := engine.Stats(context.Background())
	status := fmt.Sprintf("%d documents, %d chunks indexed (%s)",
		stats.TotalDocuments, stats.TotalChunks, stats.EmbeddingModel)

	return Model{engine: engine, input: ti, viewport: vp, topK: topK, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-4)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			answer, err := m.engine.Ask(context.Background(), question, m.topK)
			m.transcript = append(m.transcript, entry{question: question, answer: answer, err: err})
			if err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Answered from %d chunks", answer.ChunksUsed)
			}
			m.input.Reset()
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Ragdex")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Ask a question to get started."
	}

	var sb strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("You: " + e.question))
		sb.WriteString("\n")
		if e.err != nil {
			sb.WriteString(errorStyle.Render("Error: " + e.err.Error()))
			continue
		}
		sb.WriteString(e.answer.Answer)
		if len(e.answer.Sources) > 0 {
			cites := make([]string, len(e.answer.Sources))
			for j, s := range e.answer.Sources {
				cites[j] = fmt.Sprintf("%s p.%d", s.File, s.Page)
			}
			sb.WriteString("\n")
			sb.WriteString(sourceStyle.Render("Sources: " + strings.Join(cites, ", ")))
		}
	}
	return sb.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
