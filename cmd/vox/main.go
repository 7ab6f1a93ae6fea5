package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/voxtui/vox/internal/api"
	"github.com/voxtui/vox/internal/config"
	"github.com/voxtui/vox/internal/log"
	"github.com/voxtui/vox/internal/notify"
	"github.com/voxtui/vox/internal/playback"
	"github.com/voxtui/vox/internal/player"
	"github.com/voxtui/vox/internal/poller"
	"github.com/voxtui/vox/internal/reconcile"
	"github.com/voxtui/vox/internal/store"
	"github.com/voxtui/vox/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("vox %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.Null()
	}
	slog.SetDefault(logger)

	logger.Info("starting vox", "version", Version)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("vox needs an interactive terminal")
	}

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
	}

	client := api.NewClient(cfg.Server.URL, logger)

	st, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("opening local store failed, continuing without persistence", "error", err)
		st, _ = store.Open("")
	}
	defer st.Close()

	factory := player.NewFactory(cfg.Player.Command, cfg.Player.Args, logger)
	controller := playback.NewController(factory, logger)

	p := poller.New(client, time.Duration(cfg.Poll.IntervalSeconds)*time.Second, logger)
	r := reconcile.New(client, controller, time.Duration(cfg.Files.IntervalSeconds)*time.Second, logger)
	sink := notify.NewSink(st, cfg.Notifications.Enabled, logger)

	// Show last-known files instantly; the first fetch replaces them.
	if files, ok := st.GetFiles(); ok {
		r.SeedFiles(files)
	}

	model := tui.NewModel(cfg, client, st, p, r, controller, sink, logger)

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := program.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	controller.Stop()
	logger.Info("shutting down")
	return nil
}

// runSetupFlow prompts for the backend URL on first run and verifies it
// before saving.
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to vox!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter your conversion server URL (e.g., http://192.168.1.100:5000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL := strings.TrimSpace(input)

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		if err := probeServer(serverURL); err != nil {
			fmt.Printf("✗ Could not reach the server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}

		cfg.Server.URL = serverURL
		break
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// probeServer checks the URL answers the file-listing endpoint.
func probeServer(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.NewClient(serverURL, slog.Default())
	_, err := client.ListFiles(ctx)
	return err
}
