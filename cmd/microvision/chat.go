package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/microvision-ai/microvision-core/core/conversations"
	"github.com/microvision-ai/microvision-core/core/llms/gemini"
)

type chatReplyMsg conversations.MessageV0

type chatErrMsg struct{ err error }

// chatModel is the plain request/response chat surface with web-grounded
// answers and their citations.
type chatModel struct {
	llm          *gemini.Client
	conversation *conversations.Conversation

	viewport viewport.Model
	input    textarea.Model

	waiting bool
	err     error
	width   int
}

func newChatModel(llm *gemini.Client, conversation *conversations.Conversation) chatModel {
	input := textarea.New()
	input.Placeholder = "Ask the lab assistant..."
	input.SetHeight(3)
	input.ShowLineNumbers = false

	return chatModel{
		llm:          llm,
		conversation: conversation,
		viewport:     viewport.New(80, 20),
		input:        input,
		width:        80,
	}
}

func (m *chatModel) resize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-8, 4)
	m.input.SetWidth(width - 2)
	m.refresh()
}

func (m *chatModel) focus() tea.Cmd {
	return m.input.Focus()
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" && !m.waiting {
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" {
				return m, nil
			}
			m.conversation.Append(conversations.NewMessage(conversations.RoleUser, conversations.KindChat, prompt))
			m.input.Reset()
			m.waiting = true
			m.err = nil
			m.refresh()
			return m, m.sendCmd(prompt)
		}

	case chatReplyMsg:
		m.waiting = false
		m.conversation.Append(conversations.MessageV0(msg))
		m.refresh()
		return m, nil

	case chatErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil
	}

	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

// sendCmd excludes the just-appended prompt from the history it forwards;
// the client appends the prompt itself.
func (m chatModel) sendCmd(prompt string) tea.Cmd {
	history := m.conversation.History()
	if n := len(history); n > 0 && history[n-1].Text == prompt {
		history = history[:n-1]
	}

	return func() tea.Msg {
		reply, err := m.llm.Chat(context.Background(), prompt, history)
		if err != nil {
			return chatErrMsg{err: err}
		}
		return chatReplyMsg(reply)
	}
}

func (m *chatModel) refresh() {
	var b strings.Builder
	for _, msg := range m.conversation.History() {
		label := userStyle.Render("You")
		if msg.Role == conversations.RoleAssistant {
			label = assistantStyle.Render("MicroVision")
		}
		b.WriteString(label + "\n")
		b.WriteString(wordwrap.String(msg.Text, max(m.width-2, 20)) + "\n")
		for _, source := range msg.Grounding {
			b.WriteString(citationStyle.Render(fmt.Sprintf("  • %s — %s", source.Title, source.URI)) + "\n")
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MicroVision AI — Chat"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.waiting {
		b.WriteString(statusNeutralStyle.Render("thinking...") + "\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • ctrl+l: live • ctrl+v: analyze • ctrl+g: generate • ctrl+c: quit"))
	return b.String()
}
