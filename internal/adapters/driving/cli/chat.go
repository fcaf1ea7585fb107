package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdex/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively in the terminal",
	Long: `Launches an interactive chat session over the indexed corpus.

Controls:
  Enter      - Ask the typed question
  Up/Down    - Scroll the transcript
  Esc/Ctrl+C - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Chat has nothing to show before the engine is up, so build it
	// synchronously.
	engine, err := buildEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.New(engine, cfg.Retrieval.TopK), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
