package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/client"
	"github.com/docuchat/docuchat/internal/conversation"
	"github.com/docuchat/docuchat/internal/conversation/filestore"
	"github.com/docuchat/docuchat/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "docuchat:", err)
		os.Exit(1)
	}
}

func run() error {
	defaultConfig := ""
	if home, err := os.UserHomeDir(); err == nil {
		defaultConfig = filepath.Join(home, ".docuchat", "config.yaml")
	}

	configPath := flag.String("config", defaultConfig, "path to the client config file")
	serverURL := flag.String("server", "", "server base URL (overrides config)")
	flag.Parse()

	cfg, err := tui.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The terminal is owned by the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := zerolog.New(logFile).With().Timestamp().Logger()

	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open conversation store: %w", err)
	}
	manager := conversation.NewManager(store, log)
	remote := client.New(cfg.ServerURL, cfg.RequestTimeout, log)

	model, err := tui.New(manager, remote, cfg.Theme)
	if err != nil {
		return fmt.Errorf("build ui: %w", err)
	}

	log.Info().Str("server", cfg.ServerURL).Msg("starting chat client")
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
