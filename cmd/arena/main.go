// Command arena plays local games between engine configurations and archives
// every decision to Parquet.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/arena"
	"github.com/brensch/snekheat/config"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/inference"
	"github.com/brensch/snekheat/logging"
	"github.com/brensch/snekheat/store"
)

func main() {
	configPath := flag.String("config", config.GetEnvOrDefault("SNEK_CONFIG", "snekheat.yaml"), "Path to YAML config (missing file uses defaults)")
	outDir := flag.String("out-dir", "data/arena", "Output directory for decision parquet batches (empty disables)")
	snakes := flag.String("snakes", "heat-a,heat-b", "Comma separated entrant names; every entrant runs the configured engine")
	workers := flag.Int("workers", 4, "Concurrent games")
	maxGames := flag.Int64("max-games", 0, "If > 0, stop after this many games")
	size := flag.Int("size", 11, "Board width and height")
	maxTurns := flag.Int("max-turns", 500, "Turn limit per game")
	moveTimeout := flag.Duration("move-timeout", 300*time.Millisecond, "Per-move deadline")
	seed := flag.Int64("seed", 0, "RNG seed (0 uses the clock)")
	useTUI := flag.Bool("tui", false, "Show the live terminal dashboard")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logOut := os.Stderr
	if *useTUI {
		// Keep the dashboard clean.
		f, err := os.OpenFile("arena.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
		logOut = f
	}
	logger := logging.New(logOut, cfg.Log.Format, level)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var classifier arbiter.Classifier
	if cfg.Classifier.ModelPath != "" {
		pool, err := inference.NewOnnxPool(cfg.InferenceConfig(logger.With("component", "inference")), cfg.Classifier.Sessions)
		if err != nil {
			logger.Error("classifier disabled", "model", cfg.Classifier.ModelPath, "error", err)
		} else {
			defer pool.Close()
			classifier = pool
		}
	}

	var entrants []arena.Entrant
	for _, name := range strings.Split(*snakes, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entrants = append(entrants, arena.Entrant{
			Name:   name,
			Engine: arbiter.New(cfg.EngineOptions(classifier, logger.With("component", "arbiter", "snake", name))),
		})
	}
	if len(entrants) == 0 {
		log.Fatalf("no entrants in -snakes=%q", *snakes)
	}

	a := &arena.Arena{
		Config: arena.Config{
			Width:       *size,
			Height:      *size,
			MaxTurns:    *maxTurns,
			MoveTimeout: *moveTimeout,
			Rules:       arena.DefaultConfig().Rules,
			Seed:        *seed,
		},
		Entrants:  entrants,
		Extractor: &features.Extractor{LookaheadDepth: cfg.Engine.LookaheadDepth},
		Logger:    logger.With("component", "arena"),
	}

	if *outDir != "" {
		opts := cfg.ArchiveOptions(logger.With("component", "archive"))
		opts.Dir = *outDir
		opts.LogPath = ""
		archive, err := store.OpenArchive(opts)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				log.Printf("close archive: %v", err)
			}
		}()
		a.Archive = archive
	}

	results := make(chan arena.Result, *workers)
	boards := make(chan boardMsg, 1)
	if *useTUI {
		var lastBoard atomic.Int64
		a.OnTurn = func(t arena.Turn) {
			now := time.Now().UnixNano()
			if now-lastBoard.Load() < int64(100*time.Millisecond) {
				return
			}
			lastBoard.Store(now)
			select {
			case boards <- renderTurn(t):
			default:
			}
		}
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- a.Run(ctx, *workers, *maxGames, func(r arena.Result) {
			select {
			case results <- r:
			case <-ctx.Done():
			}
		})
		close(results)
	}()

	log.Printf("Arena: %d entrants, %d workers, %dx%d", len(entrants), *workers, *size, *size)

	if *useTUI {
		p := tea.NewProgram(initialModel(a, results, boards), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Fatal(err)
		}
		cancel()
	} else {
		logResults(ctx, a, results)
	}

	if err := <-runErr; err != nil {
		log.Fatalf("arena: %v", err)
	}
	log.Printf("Arena done: games=%d moves=%d", a.Games(), a.Moves())
}

func logResults(ctx context.Context, a *arena.Arena, results <-chan arena.Result) {
	startTime := time.Now()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	wins := map[string]int{}
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return
			}
			wins[winnerName(r)]++
			log.Print(formatResult(r))
		case <-ticker.C:
			d := time.Since(startTime).Seconds()
			log.Printf("Stats: games=%d moves/s=%.1f wins=%v", a.Games(), float64(a.Moves())/d, wins)
		case <-ctx.Done():
			// Drain so Run's callbacks are not left blocked.
			for range results {
			}
			return
		}
	}
}

func winnerName(r arena.Result) string {
	if r.Winner == "" {
		return "draw"
	}
	return r.Winner
}
