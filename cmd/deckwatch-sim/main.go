package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deckwatch/deckwatch/internal/deck"
	"github.com/deckwatch/deckwatch/internal/model"
	"github.com/deckwatch/deckwatch/internal/simfeed"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var addr string
	var demo bool
	var showVersion bool

	flag.StringVar(&addr, "addr", "localhost:8765", "listen address for the visualizer feed")
	flag.BoolVar(&demo, "demo", false, "run the built-in transfer sequence after startup")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Deckwatch Sim - Bravo Visualizer Feed\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if err := run(addr, demo); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, demo bool) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	store := deck.NewStore()
	store.SetLayout(model.DefaultLayout())

	srv := simfeed.NewServer(addr, store, clockwork.NewRealClock(), logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting feed server: %w", err)
	}
	logger.Info().Str("addr", srv.Addr()).Msg("visualizer feed listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if demo {
		g.Go(func() error {
			return srv.RunDemo(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		return srv.Stop()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
