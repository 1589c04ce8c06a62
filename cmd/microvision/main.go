// Command microvision is a terminal host for the MicroVision lab assistant:
// grounded chat, sample analysis, lab image generation, and a real-time live
// session with streaming transcription.
//
// It needs GEMINI_API_KEY in the environment. MICROVISION_FRAMES_DIR may
// point at a directory of images to use as the live session's camera feed.
package main

import (
	"context"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/microvision-ai/microvision-core/core/llms/gemini"
)

func main() {
	ctx := context.Background()

	llm, err := gemini.NewClient(ctx)
	if err != nil {
		log.Fatalf("Failed to create inference client: %v", err)
	}

	app := newApp(llm, os.Getenv("MICROVISION_FRAMES_DIR"))
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("Failed to run UI: %v", err)
	}
}
