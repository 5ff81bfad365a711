package main

import (
	"fmt"
	"os"
	"time"

	"github.com/RichardoC/Doc-i/internal/orchestrator"
	"github.com/RichardoC/Doc-i/internal/reveal"
	"github.com/RichardoC/Doc-i/internal/transport"
	"github.com/RichardoC/Doc-i/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	// .env keeps local settings out of the shell, same as the backend.
	godotenv.Load()

	var (
		serverURL   string
		logFile     string
		revealDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doc-i",
		Short: "Terminal client for a document-augmented chat backend",
		Long: "Doc-i is a terminal chat client: create and switch between conversation\n" +
			"sessions, attach documents, and ask questions about them.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(serverURL, logFile, revealDelay)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", envOr("DOC_I_SERVER", "http://localhost:5000"),
		"base URL of the chat backend")
	cmd.Flags().StringVar(&logFile, "log-file", envOr("DOC_I_LOG_FILE", "doc-i.log"),
		"diagnostic log destination (stdout belongs to the UI)")
	cmd.Flags().DurationVar(&revealDelay, "reveal-delay", reveal.DefaultDelay,
		"pause between revealed answer tokens")
	return cmd
}

func run(serverURL, logFile string, revealDelay time.Duration) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{logFile}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting doc-i",
		zap.String("server", serverURL),
		zap.Duration("revealDelay", revealDelay))

	api := transport.New(serverURL, logger.Named("transport"))
	animator := reveal.New(revealDelay, logger.Named("reveal"))
	bridge := tui.NewBridge()
	engine := orchestrator.New(api, animator, bridge, bridge, logger.Named("orchestrator"))
	defer engine.Close()

	program := tea.NewProgram(
		tui.NewModel(engine, logger.Named("tui")),
		tea.WithAltScreen(),
	)
	bridge.Attach(program)

	if _, err := program.Run(); err != nil {
		logger.Error("interface exited with error", zap.Error(err))
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
