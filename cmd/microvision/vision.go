package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/microvision-ai/microvision-core/core/conversations"
	"github.com/microvision-ai/microvision-core/core/llms/gemini"
)

type analysisMsg string

type reportMsg *gemini.SampleReport

type analysisErrMsg struct{ err error }

// visionModel is the single-shot sample analysis surface: point it at an
// image or video file and get back one text interpretation.
type visionModel struct {
	llm          *gemini.Client
	conversation *conversations.Conversation

	path   textinput.Model
	prompt textinput.Model

	result  string
	report  *gemini.SampleReport
	waiting bool
	err     error
}

func newVisionModel(llm *gemini.Client, conversation *conversations.Conversation) visionModel {
	path := textinput.New()
	path.Placeholder = "Path to a sample image or clip"
	path.Width = 60

	prompt := textinput.New()
	prompt.Placeholder = "Optional analysis prompt"
	prompt.Width = 60

	return visionModel{llm: llm, conversation: conversation, path: path, prompt: prompt}
}

func (m *visionModel) focus() tea.Cmd {
	m.prompt.Blur()
	return m.path.Focus()
}

func (m visionModel) Update(msg tea.Msg) (visionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if m.path.Focused() {
				m.path.Blur()
				return m, m.prompt.Focus()
			}
			m.prompt.Blur()
			return m, m.path.Focus()
		case "enter":
			if m.waiting {
				return m, nil
			}
			path := strings.TrimSpace(m.path.Value())
			if path == "" {
				return m, nil
			}
			m.waiting = true
			m.err = nil
			m.result = ""
			m.report = nil
			return m, m.analyzeCmd(path, strings.TrimSpace(m.prompt.Value()))
		case "ctrl+r":
			if m.waiting || m.result == "" {
				return m, nil
			}
			m.waiting = true
			m.err = nil
			return m, m.reportCmd(m.result)
		}

	case analysisMsg:
		m.waiting = false
		m.result = string(msg)
		m.conversation.Append(conversations.NewMessage(
			conversations.RoleAssistant, conversations.KindAnalysis, string(msg),
		))
		return m, nil

	case reportMsg:
		m.waiting = false
		m.report = (*gemini.SampleReport)(msg)
		return m, nil

	case analysisErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil
	}

	var pathCmd, promptCmd tea.Cmd
	m.path, pathCmd = m.path.Update(msg)
	m.prompt, promptCmd = m.prompt.Update(msg)
	return m, tea.Batch(pathCmd, promptCmd)
}

func (m visionModel) analyzeCmd(path, prompt string) tea.Cmd {
	llm := m.llm
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return analysisErrMsg{err: fmt.Errorf("failed to read sample: %w", err)}
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		result, err := llm.AnalyzeMedia(context.Background(), data, mimeType, prompt)
		if err != nil {
			return analysisErrMsg{err: err}
		}
		return analysisMsg(result)
	}
}

func (m visionModel) reportCmd(analysis string) tea.Cmd {
	llm := m.llm
	return func() tea.Msg {
		report, err := llm.SampleReportFromAnalysis(context.Background(), analysis)
		if err != nil {
			return analysisErrMsg{err: err}
		}
		return reportMsg(report)
	}
}

func (m visionModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MicroVision AI — Sample Analysis"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Sample file") + "\n" + m.path.View() + "\n\n")
	b.WriteString(labelStyle.Render("Prompt") + "\n" + m.prompt.View() + "\n\n")

	if m.waiting {
		b.WriteString(statusNeutralStyle.Render("analyzing...") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.result != "" {
		b.WriteString(wordwrap.String(m.result, 76) + "\n")
	}
	if m.report != nil {
		b.WriteString("\n" + labelStyle.Render("Report") + "\n")
		b.WriteString(wordwrap.String(m.report.String(), 76) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab: switch field • enter: analyze • ctrl+r: structured report • esc: chat"))
	return b.String()
}
