package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/deckwatch/deckwatch/internal/activity"
	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/tui"
	"github.com/deckwatch/deckwatch/internal/wsfeed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var endpoint string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/deckwatch/config.yml)")
	flag.StringVar(&endpoint, "endpoint", "", "override WebSocket endpoint of the Bravo visualizer feed")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Deckwatch - Bravo Deck Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to the configured file, or discards. Stderr is off
// limits while the alternate screen is up.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("opening log file: %w", err)
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}

func runTUI(cfg cliConfig) error {
	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	skin, err := tui.LoadSkin(skinPath(cfg.Skin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	clock := clockwork.NewRealClock()
	store := deck.NewStore()
	feed := activity.NewFeed(clock)
	dashboard := tui.New(cfg.Endpoint, store, feed, clock, tui.WrapDial(wsfeed.Dial), logger, skin)

	p := tea.NewProgram(dashboard, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
