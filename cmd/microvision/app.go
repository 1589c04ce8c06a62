package main

import (
	tea "github.com/charmbracelet/bubbletea"

	livesession "github.com/microvision-ai/microvision-core/core"
	"github.com/microvision-ai/microvision-core/core/conversations"
	"github.com/microvision-ai/microvision-core/core/llms/gemini"
)

type appMode int

const (
	modeLogin appMode = iota
	modeChat
	modeLive
	modeVision
	modeGenerator
)

// App is the root model. One sub-model per mode; the login form gates the
// rest and its profile feeds the live session's system instruction.
type App struct {
	mode    appMode
	profile livesession.Profile

	llm          *gemini.Client
	conversation *conversations.Conversation

	login     loginModel
	chat      chatModel
	live      liveModel
	vision    visionModel
	generator generatorModel

	width  int
	height int
}

func newApp(llm *gemini.Client, framesDir string) *App {
	conversation := &conversations.Conversation{}
	return &App{
		mode:         modeLogin,
		llm:          llm,
		conversation: conversation,
		login:        newLoginModel(),
		chat:         newChatModel(llm, conversation),
		live:         newLiveModel(framesDir),
		vision:       newVisionModel(llm, conversation),
		generator:    newGeneratorModel(llm),
	}
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.chat.resize(msg.Width, msg.Height)
		a.live.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.live.shutdown()
			return a, tea.Quit
		case "ctrl+l":
			if a.mode != modeLogin {
				a.mode = modeLive
				return a, nil
			}
		case "ctrl+v":
			if a.mode != modeLogin {
				a.mode = modeVision
				return a, a.vision.focus()
			}
		case "ctrl+g":
			if a.mode != modeLogin {
				a.mode = modeGenerator
				return a, a.generator.focus()
			}
		case "esc":
			if a.mode != modeLogin && a.mode != modeChat {
				a.mode = modeChat
				return a, a.chat.focus()
			}
		}

	case loginDoneMsg:
		a.profile = livesession.Profile(msg)
		a.live.profile = a.profile
		a.mode = modeChat
		return a, a.chat.focus()

	case savedTranscriptMsg:
		// The finished live transcript lands in the plain chat history and
		// the UI returns to it.
		for _, entry := range msg {
			role := conversations.RoleUser
			if entry.Role == livesession.RoleAssistant {
				role = conversations.RoleAssistant
			}
			a.conversation.Append(conversations.NewMessage(role, conversations.KindLive, entry.Text))
		}
		a.chat.refresh()
		a.mode = modeChat
		return a, tea.Batch(a.chat.focus(), a.live.listenCmd())
	}

	var cmd tea.Cmd
	switch a.mode {
	case modeLogin:
		a.login, cmd = a.login.Update(msg)
	case modeChat:
		a.chat, cmd = a.chat.Update(msg)
	case modeLive:
		a.live, cmd = a.live.Update(msg)
	case modeVision:
		a.vision, cmd = a.vision.Update(msg)
	case modeGenerator:
		a.generator, cmd = a.generator.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	switch a.mode {
	case modeLogin:
		return a.login.View()
	case modeChat:
		return a.chat.View()
	case modeLive:
		return a.live.View()
	case modeVision:
		return a.vision.View()
	case modeGenerator:
		return a.generator.View()
	}
	return ""
}
