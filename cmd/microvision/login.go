package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	livesession "github.com/microvision-ai/microvision-core/core"
)

type loginDoneMsg livesession.Profile

// loginModel is the profile form shown before anything else. It is not
// authentication; the fields only personalize the assistant.
type loginModel struct {
	inputs  []textinput.Model
	focused int
}

var loginLabels = []string{"University", "Institute", "Department", "Student", "Professor"}

func newLoginModel() loginModel {
	inputs := make([]textinput.Model, len(loginLabels))
	for i, label := range loginLabels {
		input := textinput.New()
		input.Placeholder = label
		input.CharLimit = 80
		input.Width = 40
		inputs[i] = input
	}
	inputs[0].Focus()
	return loginModel{inputs: inputs}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFocus((m.focused + 1) % len(m.inputs))
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focused + len(m.inputs) - 1) % len(m.inputs))
			return m, nil
		case "enter":
			if m.focused < len(m.inputs)-1 {
				m.setFocus(m.focused + 1)
				return m, nil
			}
			return m, func() tea.Msg {
				return loginDoneMsg{
					University: m.inputs[0].Value(),
					Institute:  m.inputs[1].Value(),
					Department: m.inputs[2].Value(),
					Student:    m.inputs[3].Value(),
					Professor:  m.inputs[4].Value(),
				}
			}
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *loginModel) setFocus(index int) {
	m.inputs[m.focused].Blur()
	m.focused = index
	m.inputs[m.focused].Focus()
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MicroVision AI"))
	b.WriteString("\n\n")
	for i, input := range m.inputs {
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", labelStyle.Render(loginLabels[i]), input.View()))
	}
	b.WriteString(helpStyle.Render("tab: next field • enter: continue • ctrl+c: quit"))
	return b.String()
}
