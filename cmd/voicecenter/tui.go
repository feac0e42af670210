package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/chiyokera/audio-sdk/core"
	"github.com/chiyokera/audio-sdk/core/agents"
)

const (
	speakerCustomer = "You"
	speakerAgent    = "Agent"
)

type transcriptMsg struct {
	speaker string
	text    string
}

type interimTranscriptMsg string

type agentChangedMsg string

type guardrailTrippedMsg struct{}

type noticeExpiredMsg struct{}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")).Padding(0, 1)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	idleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	customerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	replyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	interimStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))

	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type transcriptLine struct {
	speaker string
	text    string
}

type model struct {
	pipeline *orchestration.VoicePipeline

	transcript viewport.Model
	lines      []transcriptLine
	interim    string
	spinner    spinner.Model

	agent     string
	notice    string
	recording bool
	thinking  bool

	width  int
	height int
	ready  bool
}

func newModel(pipeline *orchestration.VoicePipeline, roster *agents.Roster) model {
	agent := "Triage Agent"
	if triage, ok := roster.Get(agents.TriageAgentName); ok {
		agent = triage.DisplayName
	}

	return model{
		pipeline:   pipeline,
		transcript: viewport.New(0, 0),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(agentStyle)),
		agent:      agent,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = msg.Width
		m.transcript.Height = max(msg.Height-4, 1)
		m.ready = true
		m.renderTranscript()

	case transcriptMsg:
		if msg.speaker == speakerCustomer {
			m.interim = ""
			m.thinking = true
		} else {
			m.thinking = false
		}
		m.lines = append(m.lines, transcriptLine{speaker: msg.speaker, text: msg.text})
		m.renderTranscript()
		if m.thinking {
			return m, m.spinner.Tick
		}

	case interimTranscriptMsg:
		m.interim = strings.TrimSpace(string(msg))
		m.renderTranscript()

	case agentChangedMsg:
		m.agent = string(msg)

	case guardrailTrippedMsg:
		m.thinking = false
		m.notice = "off-topic question blocked"
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return noticeExpiredMsg{}
		})

	case noticeExpiredMsg:
		m.notice = ""

	case spinner.TickMsg:
		if !m.thinking {
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "k":
			if m.recording {
				_ = m.pipeline.StopRecording()
			} else {
				_ = m.pipeline.StartRecording(context.Background())
			}
			m.recording = m.pipeline.IsRecording()
		}
	}

	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	status := idleStyle.Render("muted")
	if m.recording {
		status = recordingStyle.Render("● recording")
	}

	parts := []string{
		headerStyle.Render("Airline Call Center"),
		"  ",
		agentStyle.Render(m.agent),
		"  ",
		status,
	}
	if m.thinking {
		parts = append(parts, "  ", m.spinner.View())
	}
	if m.notice != "" {
		parts = append(parts, "  ", noticeStyle.Render(m.notice))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	help := helpStyle.Render("k: toggle recording · q: quit")

	return fmt.Sprintf("%s\n\n%s\n%s", header, m.transcript.View(), help)
}

func (m *model) renderTranscript() {
	if m.width == 0 {
		return
	}

	var b strings.Builder
	for _, line := range m.lines {
		speaker := customerStyle.Render(line.speaker + ":")
		if line.speaker == speakerAgent {
			speaker = replyStyle.Render(line.speaker + ":")
		}
		b.WriteString(wordwrap.String(speaker+" "+line.text, m.width))
		b.WriteString("\n")
	}
	if m.interim != "" {
		b.WriteString(wordwrap.String(interimStyle.Render(m.interim+"…"), m.width))
		b.WriteString("\n")
	}

	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}
