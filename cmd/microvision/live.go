package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	livesession "github.com/microvision-ai/microvision-core/core"
	"github.com/microvision-ai/microvision-core/core/audio/miniaudio"
	"github.com/microvision-ai/microvision-core/core/realtime/gemini"
	"github.com/microvision-ai/microvision-core/core/vision"
)

type lifecycleMsg livesession.Lifecycle

type transcriptMsg []livesession.TranscriptEntry

type savedTranscriptMsg []livesession.TranscriptEntry

type liveErrMsg struct{ err error }

type sessionStartedMsg struct {
	session *livesession.Session
	device  *miniaudio.Client
}

// liveModel hosts the real-time session: lifecycle display, mute and camera
// controls, and the growing transcript.
type liveModel struct {
	profile   livesession.Profile
	framesDir string

	session *livesession.Session
	device  *miniaudio.Client
	events  chan tea.Msg

	lifecycle  livesession.Lifecycle
	transcript []livesession.TranscriptEntry
	err        error

	viewport viewport.Model
	width    int
}

func newLiveModel(framesDir string) liveModel {
	return liveModel{
		framesDir: framesDir,
		events:    make(chan tea.Msg, 64),
		lifecycle: livesession.LifecycleIdle,
		viewport:  viewport.New(80, 16),
		width:     80,
	}
}

func (m *liveModel) resize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-7, 4)
}

// push never blocks the session's callback goroutines; a full queue drops the
// oldest kind of update first by simply skipping.
func push(events chan tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

func (m liveModel) listenCmd() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// startCmd builds the device, transport, and session off the UI loop; the
// dial can take a while.
func (m liveModel) startCmd() tea.Cmd {
	profile := m.profile
	framesDir := m.framesDir
	events := m.events
	device := m.device

	return func() tea.Msg {
		if device == nil {
			var err error
			if device, err = miniaudio.NewClient(); err != nil {
				return liveErrMsg{err: err}
			}
		}

		opts := []livesession.SessionOption{
			livesession.WithTransport(gemini.NewLiveClient()),
			livesession.WithAudioInput(device),
			livesession.WithPlaybackSink(device),
			livesession.WithProfile(profile),
			livesession.OnLifecycleChange(func(l livesession.Lifecycle) {
				push(events, lifecycleMsg(l))
			}),
			livesession.OnTranscriptUpdated(func(entries []livesession.TranscriptEntry) {
				push(events, transcriptMsg(entries))
			}),
			livesession.OnTranscriptSaved(func(entries []livesession.TranscriptEntry) {
				push(events, savedTranscriptMsg(entries))
			}),
			livesession.OnError(func(err error) {
				push(events, liveErrMsg{err: err})
			}),
		}
		if framesDir != "" {
			opts = append(opts, livesession.WithFrameSource(vision.NewFileFrameSource(framesDir)))
		}

		session, err := livesession.NewSession(opts...)
		if err != nil {
			return liveErrMsg{err: err}
		}
		if err := session.Start(context.Background()); err != nil {
			return liveErrMsg{err: err}
		}
		return sessionStartedMsg{session: session, device: device}
	}
}

func (m liveModel) Update(msg tea.Msg) (liveModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			if m.session == nil || !m.running() {
				m.err = nil
				m.transcript = nil
				m.lifecycle = livesession.LifecycleConnecting
				return m, tea.Batch(m.startCmd(), m.listenCmd())
			}
			m.session.Stop()
			return m, nil
		case "m":
			if m.session != nil {
				m.session.ToggleMute()
			}
			return m, nil
		case "c":
			if m.session != nil {
				m.session.ToggleCamera(context.Background())
			}
			return m, nil
		case "t":
			if m.session != nil {
				m.session.SaveTranscript()
			}
			return m, nil
		}

	case sessionStartedMsg:
		m.session = msg.session
		m.device = msg.device
		return m, nil

	case lifecycleMsg:
		m.lifecycle = livesession.Lifecycle(msg)
		return m, m.listenCmd()

	case transcriptMsg:
		m.transcript = msg
		m.refresh()
		return m, m.listenCmd()

	case liveErrMsg:
		m.err = msg.err
		m.lifecycle = livesession.LifecycleFailed
		return m, m.listenCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m liveModel) running() bool {
	switch m.lifecycle {
	case livesession.LifecycleConnecting, livesession.LifecycleActive:
		return true
	}
	return false
}

func (m *liveModel) refresh() {
	var b strings.Builder
	for _, entry := range m.transcript {
		label := userStyle.Render("You")
		if entry.Role == livesession.RoleAssistant {
			label = assistantStyle.Render("MicroVision")
		}
		b.WriteString(label + " " + wordwrap.String(entry.Text, max(m.width-14, 20)) + "\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *liveModel) shutdown() {
	if m.session != nil {
		m.session.Stop()
	}
	if m.device != nil {
		_ = m.device.Terminate()
	}
}

func (m liveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MicroVision AI — Live Session"))
	b.WriteString("\n")

	status := statusNeutralStyle.Render(string(m.lifecycle))
	switch m.lifecycle {
	case livesession.LifecycleActive:
		status = statusActiveStyle.Render(string(m.lifecycle))
	case livesession.LifecycleFailed:
		status = statusFailedStyle.Render(string(m.lifecycle))
	}
	b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("status:"), status))
	if m.session != nil {
		if m.session.Muted() {
			b.WriteString("  " + statusFailedStyle.Render("muted"))
		}
		if m.framesDir != "" {
			b.WriteString("  " + labelStyle.Render("camera: ") + string(m.session.Facing()))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("s: start/stop • m: mute • c: camera • t: save transcript • esc: chat"))
	return b.String()
}
