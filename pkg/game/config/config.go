// Package config loads heist settings from YAML. Values in the file are merged over the defaults
// and command-line overrides are applied last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full settings file.
type Config struct {
	Server Server `yaml:"server"`
	Game   Game   `yaml:"game"`
	Client Client `yaml:"client"`
	Log    Log    `yaml:"log"`
}

// Server configures the host application.
type Server struct {
	Addr        string        `yaml:"addr"`
	IdleTimeout time.Duration `yaml:"idleTimeout"` // Rooms untouched for longer are removed
	JanitorTick time.Duration `yaml:"janitorTick"`
}

// Game holds the timer, event and power tuning the host applies to every room.
type Game struct {
	InitialTimer time.Duration `yaml:"initialTimer"`
	StageBonus   time.Duration `yaml:"stageBonus"`
	MinPlayers   int           `yaml:"minPlayers"`

	EventEvery      time.Duration `yaml:"eventEvery"`
	EventChance     float64       `yaml:"eventChance"`    // Base chance per roll
	EventAlertStep  float64       `yaml:"eventAlertStep"` // Added per alert level
	EventMin        time.Duration `yaml:"eventMin"`
	EventMax        time.Duration `yaml:"eventMax"`
	LookoutWarning  time.Duration `yaml:"lookoutWarning"`
	LookoutDuration time.Duration `yaml:"lookoutDuration"`

	HackerBonus  time.Duration `yaml:"hackerBonus"`
	VoteDuration time.Duration `yaml:"voteDuration"`
	VoteBonus    time.Duration `yaml:"voteBonus"`
}

// Client configures the player frontends.
type Client struct {
	Server     string `yaml:"server"` // Host address; empty plays offline
	Locale     string `yaml:"locale"`
	LocalesDir string `yaml:"localesDir"`
	Seed       int64  `yaml:"seed"` // Zero seeds from the clock
}

// Log configures the logger.
type Log struct {
	Verbose bool   `yaml:"verbose"`
	JSON    bool   `yaml:"json"`
	File    string `yaml:"file"` // Empty logs to stderr
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        ":8080",
			IdleTimeout: 30 * time.Minute,
			JanitorTick: 60 * time.Second,
		},
		Game: Game{
			InitialTimer:    300 * time.Second,
			StageBonus:      240 * time.Second,
			MinPlayers:      2,
			EventEvery:      30 * time.Second,
			EventChance:     0.2,
			EventAlertStep:  0.1,
			EventMin:        5 * time.Second,
			EventMax:        15 * time.Second,
			LookoutWarning:  5 * time.Second,
			LookoutDuration: 60 * time.Second,
			HackerBonus:     30 * time.Second,
			VoteDuration:    20 * time.Second,
			VoteBonus:       60 * time.Second,
		},
		Client: Client{
			Locale:     "en_US",
			LocalesDir: "locales",
		},
	}
}

// Load reads path and merges it over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", cleanPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %q: %w", cleanPath, err)
	}
	return cfg.Sanitize(), nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

// Sanitize replaces out-of-range values with defaults.
func (c Config) Sanitize() Config {
	def := Default()
	positive := func(v *time.Duration, fallback time.Duration) {
		if *v <= 0 {
			*v = fallback
		}
	}
	positive(&c.Server.IdleTimeout, def.Server.IdleTimeout)
	positive(&c.Server.JanitorTick, def.Server.JanitorTick)
	positive(&c.Game.InitialTimer, def.Game.InitialTimer)
	positive(&c.Game.EventEvery, def.Game.EventEvery)
	positive(&c.Game.EventMin, def.Game.EventMin)
	positive(&c.Game.VoteDuration, def.Game.VoteDuration)
	if c.Game.StageBonus < 0 {
		c.Game.StageBonus = def.Game.StageBonus
	}
	if c.Game.EventMax < c.Game.EventMin {
		c.Game.EventMax = c.Game.EventMin
	}
	if c.Game.MinPlayers < 1 {
		c.Game.MinPlayers = def.Game.MinPlayers
	}
	c.Game.EventChance = clamp01(c.Game.EventChance)
	c.Game.EventAlertStep = clamp01(c.Game.EventAlertStep)
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	return c
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// Overrides are optional command-line values applied on top of the file.
type Overrides struct {
	Addr    *string
	Server  *string
	Locale  *string
	Verbose *bool
	JSON    *bool
	Seed    *int64
}

// Apply returns cfg with every set override applied.
func (o Overrides) Apply(cfg Config) Config {
	if o.Addr != nil {
		cfg.Server.Addr = *o.Addr
	}
	if o.Server != nil {
		cfg.Client.Server = *o.Server
	}
	if o.Locale != nil {
		cfg.Client.Locale = *o.Locale
	}
	if o.Verbose != nil {
		cfg.Log.Verbose = *o.Verbose
	}
	if o.JSON != nil {
		cfg.Log.JSON = *o.JSON
	}
	if o.Seed != nil {
		cfg.Client.Seed = *o.Seed
	}
	return cfg.Sanitize()
}
