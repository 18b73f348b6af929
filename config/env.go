package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func applyEnv(c *Config) {
	// PORT is what most hosting platforms hand us.
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Listen = ":" + port
	}
	c.Server.Listen = GetEnvOrDefault("SNEK_LISTEN", c.Server.Listen)
	c.Server.Overhead = GetEnvDurationOrDefault("SNEK_OVERHEAD", c.Server.Overhead)

	c.Engine.DefaultMove = GetEnvOrDefault("SNEK_DEFAULT_MOVE", c.Engine.DefaultMove)
	c.Engine.LookaheadDepth = GetEnvIntOrDefault("SNEK_LOOKAHEAD_DEPTH", c.Engine.LookaheadDepth)

	c.Classifier.ModelPath = GetEnvOrDefault("SNEK_MODEL_PATH", c.Classifier.ModelPath)
	c.Classifier.Sessions = GetEnvIntOrDefault("SNEK_MODEL_SESSIONS", c.Classifier.Sessions)
	c.Classifier.UseCUDA = GetEnvBoolOrDefault("SNEK_USE_CUDA", c.Classifier.UseCUDA)
	if labels := os.Getenv("SNEK_MODEL_LABELS"); labels != "" {
		c.Classifier.Labels = strings.Split(labels, ",")
	}

	c.Archive.Dir = GetEnvOrDefault("SNEK_ARCHIVE_DIR", c.Archive.Dir)
	c.Archive.LogPath = GetEnvOrDefault("SNEK_ARCHIVE_LOG", c.Archive.LogPath)
	c.Archive.FlushGames = GetEnvIntOrDefault("SNEK_FLUSH_GAMES", c.Archive.FlushGames)

	c.Log.Level = GetEnvOrDefault("SNEK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnvOrDefault("SNEK_LOG_FORMAT", c.Log.Format)
}

func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func GetEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func GetEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
