// Package main runs the Battlesnake HTTP server.
//
// Every move goes through the arbiter's tier chain under a deadline derived
// from the game timeout. Decisions are optionally archived to Parquet and
// streamed to websocket watchers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/snekheat/api"
	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/config"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/inference"
	"github.com/brensch/snekheat/logging"
	"github.com/brensch/snekheat/session"
	"github.com/brensch/snekheat/store"
	"github.com/brensch/snekheat/watch"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath := fs.String("config", config.GetEnvOrDefault("SNEK_CONFIG", "snekheat.yaml"), "Path to YAML config (missing file uses defaults)")
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	modelPath := fs.String("model-path", "", "Path to ONNX move classifier (overrides config)")
	archiveDir := fs.String("archive-dir", "", "Write decisions as Parquet under this dir (overrides config)")
	noWatch := fs.Bool("no-watch", false, "Disable the /watch websocket feed")
	printConfig := fs.Bool("print-config", false, "Print the effective config and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *modelPath != "" {
		cfg.Classifier.ModelPath = *modelPath
	}
	if *archiveDir != "" {
		cfg.Archive.Dir = *archiveDir
	}
	if *printConfig {
		out, err := cfg.Marshal()
		if err != nil {
			log.Fatalf("marshal config: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logger := logging.New(os.Stderr, cfg.Log.Format, level)

	var classifier arbiter.Classifier
	if cfg.Classifier.ModelPath != "" {
		log.Printf("Loading model from: %s", cfg.Classifier.ModelPath)
		pool, err := inference.NewOnnxPool(cfg.InferenceConfig(logger.With("component", "inference")), cfg.Classifier.Sessions)
		if err != nil {
			// The classifier is one tier of four; run without it.
			logger.Error("classifier disabled", "model", cfg.Classifier.ModelPath, "error", err)
		} else {
			defer pool.Close()
			classifier = pool
		}
	}

	engine := arbiter.New(cfg.EngineOptions(classifier, logger.With("component", "arbiter")))
	log.Printf("Tiers: %v", engine.Tiers())

	srv := &Server{
		Engine:    engine,
		Extractor: &features.Extractor{LookaheadDepth: cfg.Engine.LookaheadDepth},
		Tracker:   session.NewTracker(logger.With("component", "session")),
		Info: api.InfoResponse{
			APIVersion: "1",
			Author:     cfg.Server.Author,
			Color:      cfg.Server.Color,
			Head:       cfg.Server.Head,
			Tail:       cfg.Server.Tail,
			Version:    features.Version,
		},
		MoveTimeout: DefaultMoveTimeout,
		Overhead:    cfg.Server.Overhead,
		MinCompute:  cfg.Server.MinCompute,
		Logger:      logger.With("component", "server"),
	}

	if cfg.Archive.Dir != "" {
		archive, err := store.OpenArchive(cfg.ArchiveOptions(logger.With("component", "archive")))
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Error("close archive", "error", err)
			}
		}()
		srv.Archive = archive
		log.Printf("Archiving decisions to %s", cfg.Archive.Dir)
	}
	if !*noWatch {
		srv.Hub = watch.NewHub(watch.DefaultBuffer, logger.With("component", "watch"))
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Printf("Battlesnake server listening on http://%s", cfg.Server.Listen)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("Server stopped")
}
