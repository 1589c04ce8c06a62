package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/microvision-ai/microvision-core/core/llms/gemini"
)

type imageSavedMsg string

type generatorErrMsg struct{ err error }

// generatorModel renders lab illustrations from a prompt and writes them next
// to the working directory.
type generatorModel struct {
	llm *gemini.Client

	prompt textinput.Model
	size   gemini.ImageSize

	saved   string
	waiting bool
	err     error
}

func newGeneratorModel(llm *gemini.Client) generatorModel {
	prompt := textinput.New()
	prompt.Placeholder = "Describe the lab illustration to generate"
	prompt.Width = 60

	return generatorModel{llm: llm, prompt: prompt, size: gemini.ImageSize1K}
}

func (m *generatorModel) focus() tea.Cmd {
	return m.prompt.Focus()
}

func (m generatorModel) Update(msg tea.Msg) (generatorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			switch m.size {
			case gemini.ImageSize1K:
				m.size = gemini.ImageSize2K
			case gemini.ImageSize2K:
				m.size = gemini.ImageSize4K
			default:
				m.size = gemini.ImageSize1K
			}
			return m, nil
		case "enter":
			if m.waiting {
				return m, nil
			}
			prompt := strings.TrimSpace(m.prompt.Value())
			if prompt == "" {
				return m, nil
			}
			m.waiting = true
			m.err = nil
			m.saved = ""
			return m, m.generateCmd(prompt)
		}

	case imageSavedMsg:
		m.waiting = false
		m.saved = string(msg)
		return m, nil

	case generatorErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m generatorModel) generateCmd(prompt string) tea.Cmd {
	llm := m.llm
	size := m.size
	return func() tea.Msg {
		data, err := llm.GenerateLabImage(context.Background(), prompt, size)
		if err != nil {
			return generatorErrMsg{err: err}
		}

		path := fmt.Sprintf("lab-image-%s.png", time.Now().Format("20060102-150405"))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return generatorErrMsg{err: fmt.Errorf("failed to save image: %w", err)}
		}
		return imageSavedMsg(path)
	}
}

func (m generatorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MicroVision AI — Image Generator"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Prompt") + "\n" + m.prompt.View() + "\n\n")
	b.WriteString(labelStyle.Render("Size: ") + string(m.size) + "\n\n")

	if m.waiting {
		b.WriteString(statusNeutralStyle.Render("generating...") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.saved != "" {
		b.WriteString("Saved to " + m.saved + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: generate • ctrl+s: cycle size • esc: chat"))
	return b.String()
}
