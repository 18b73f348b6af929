package config

import (
	"log/slog"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/inference"
	"github.com/brensch/snekheat/store"
)

// EngineOptions maps the engine section onto arbiter options. cls may be nil.
func (c *Config) EngineOptions(cls arbiter.Classifier, logger *slog.Logger) arbiter.Options {
	return arbiter.Options{
		Weights:        c.Engine.Weights,
		MinSpace:       c.Engine.MinSpace,
		LookaheadDepth: c.Engine.LookaheadDepth,
		MinConfidence:  c.Engine.MinConfidence,
		Classifier:     cls,
		DefaultMove:    c.DefaultDirection(),
		Logger:         logger,
	}
}

func (c *Config) InferenceConfig(logger *slog.Logger) inference.Config {
	return inference.Config{
		ModelPath:    c.Classifier.ModelPath,
		BatchSize:    c.Classifier.BatchSize,
		BatchTimeout: c.Classifier.BatchTimeout,
		InputName:    c.Classifier.InputName,
		OutputName:   c.Classifier.OutputName,
		Labels:       c.Classifier.Labels,
		UseCUDA:      c.Classifier.UseCUDA,
		Logger:       logger,
	}
}

func (c *Config) ArchiveOptions(logger *slog.Logger) store.ArchiveOptions {
	return store.ArchiveOptions{
		Dir:        c.Archive.Dir,
		LogPath:    c.Archive.LogPath,
		FlushGames: c.Archive.FlushGames,
		Logger:     logger,
	}
}
