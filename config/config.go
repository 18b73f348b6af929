// Package config loads the settings shared by the server and the local tools.
//
// Precedence, lowest first: Default, the YAML file, SNEK_* environment
// variables, then whatever flags the binary applies on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/heatmap"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" validate:"required"`
	// Overhead is subtracted from the game timeout to leave room for the
	// round trip.
	Overhead   time.Duration `yaml:"overhead" validate:"gte=0"`
	MinCompute time.Duration `yaml:"min_compute" validate:"gt=0"`
	Author     string        `yaml:"author"`
	Color      string        `yaml:"color" validate:"omitempty,hexcolor"`
	Head       string        `yaml:"head"`
	Tail       string        `yaml:"tail"`
}

type EngineConfig struct {
	Weights        heatmap.Weights `yaml:"weights"`
	LookaheadDepth int             `yaml:"lookahead_depth" validate:"gte=0,lte=8"`
	MinSpace       int             `yaml:"min_space" validate:"gte=0"`
	MinConfidence  float32         `yaml:"min_confidence" validate:"gte=0,lte=1"`
	DefaultMove    string          `yaml:"default_move" validate:"direction"`
}

type ClassifierConfig struct {
	// ModelPath empty disables the classifier tier.
	ModelPath    string        `yaml:"model_path"`
	Sessions     int           `yaml:"sessions" validate:"gte=1,lte=64"`
	BatchSize    int           `yaml:"batch_size" validate:"gte=1,lte=4096"`
	BatchTimeout time.Duration `yaml:"batch_timeout" validate:"gte=0"`
	InputName    string        `yaml:"input_name" validate:"required"`
	OutputName   string        `yaml:"output_name" validate:"required"`
	Labels       []string      `yaml:"labels" validate:"min=1,dive,direction"`
	UseCUDA      bool          `yaml:"use_cuda"`
}

type ArchiveConfig struct {
	// Dir empty disables the decision archive.
	Dir        string `yaml:"dir"`
	LogPath    string `yaml:"log_path"`
	FlushGames int    `yaml:"flush_games" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"oneof=pretty json text"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:     ":8000",
			Overhead:   200 * time.Millisecond,
			MinCompute: 50 * time.Millisecond,
			Author:     "brensch",
			Color:      "#ff7a00",
			Head:       "smart-caterpillar",
			Tail:       "round-bum",
		},
		Engine: EngineConfig{
			Weights:        heatmap.DefaultWeights(),
			LookaheadDepth: 2,
			MinSpace:       10,
			MinConfidence:  0.6,
			DefaultMove:    "up",
		},
		Classifier: ClassifierConfig{
			Sessions:     1,
			BatchSize:    32,
			BatchTimeout: time.Millisecond,
			InputName:    "input",
			OutputName:   "probabilities",
			Labels:       []string{"down", "left", "right", "up"},
		},
		Archive: ArchiveConfig{
			LogPath:    "archive/written_games.log",
			FlushGames: 200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		_, err := game.ParseDirection(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultDirection returns Engine.DefaultMove parsed. Validate guarantees it
// parses.
func (c *Config) DefaultDirection() game.Direction {
	d, err := game.ParseDirection(c.Engine.DefaultMove)
	if err != nil {
		return game.Up
	}
	return d
}

// Load reads path over the defaults, applies the environment, and validates.
// An empty or missing path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML, for -print-config style output.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
