// Package config loads the village server and CLI settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/prayer"
	"github.com/napolitain/village-sim/internal/village"
)

// Config is the root of a config file
type Config struct {
	Village  VillageConfig `yaml:"village"`
	Prayer   PrayerConfig  `yaml:"prayer"`
	Server   ServerConfig  `yaml:"server"`
	LogLevel string        `yaml:"log_level"`
}

// VillageConfig sets up a new village
type VillageConfig struct {
	GridSize      int              `yaml:"grid_size"`
	BaseHappiness int              `yaml:"base_happiness"`
	Level         int              `yaml:"level"`
	Balances      models.Resources `yaml:"balances"`
	CatalogPath   string           `yaml:"catalog_path"` // empty uses the embedded catalog
}

// PrayerConfig sets up the prayer tracker
type PrayerConfig struct {
	Reward   float64         `yaml:"reward"`
	Window   time.Duration   `yaml:"window"`
	Schedule []prayer.Prayer `yaml:"schedule"`
}

// ServerConfig holds transport settings
type ServerConfig struct {
	GRPCAddr     string        `yaml:"grpc_addr"`
	HTTPAddr     string        `yaml:"http_addr"`
	TickInterval time.Duration `yaml:"tick_interval"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second
	Burst        int           `yaml:"burst"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Village: VillageConfig{
			GridSize:      village.DefaultGridSize,
			BaseHappiness: village.BaseHappiness,
			Level:         1,
			Balances:      models.Resources{Coins: 500, Knowledge: 200, VirtuePoints: 100},
		},
		Prayer: PrayerConfig{
			Reward:   prayer.DefaultReward,
			Window:   prayer.DefaultWindow,
			Schedule: prayer.DefaultSchedule(),
		},
		Server: ServerConfig{
			GRPCAddr:     ":50051",
			HTTPAddr:     ":8080",
			TickInterval: time.Second,
			RateLimit:    20,
			Burst:        40,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.Village.GridSize < 1 {
		errs = append(errs, fmt.Errorf("village.grid_size must be at least 1, got %d", c.Village.GridSize))
	}
	if c.Village.Level < 1 {
		errs = append(errs, fmt.Errorf("village.level must be at least 1, got %d", c.Village.Level))
	}
	b := c.Village.Balances
	if b.Coins < 0 || b.Knowledge < 0 || b.VirtuePoints < 0 {
		errs = append(errs, errors.New("village.balances must not be negative"))
	}
	if c.Prayer.Reward < 0 {
		errs = append(errs, errors.New("prayer.reward must not be negative"))
	}
	if c.Prayer.Window < 0 {
		errs = append(errs, errors.New("prayer.window must not be negative"))
	}
	if _, err := prayer.ParseSchedule(c.Prayer.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("prayer.schedule: %w", err))
	}
	if c.Server.TickInterval <= 0 {
		errs = append(errs, errors.New("server.tick_interval must be positive"))
	}
	if c.Server.RateLimit <= 0 || c.Server.Burst < 1 {
		errs = append(errs, errors.New("server.rate_limit and server.burst must be positive"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the zerolog level for LogLevel, defaulting to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// VillageOptions turns the village settings into engine options
func (c Config) VillageOptions(logger zerolog.Logger) []village.Option {
	return []village.Option{
		village.WithGridSize(c.Village.GridSize),
		village.WithBaseHappiness(c.Village.BaseHappiness),
		village.WithLevel(c.Village.Level),
		village.WithBalances(c.Village.Balances),
		village.WithLogger(logger),
	}
}

// Tracker builds the prayer tracker
func (c Config) Tracker(logger zerolog.Logger) (*prayer.Tracker, error) {
	schedule, err := prayer.ParseSchedule(c.Prayer.Schedule)
	if err != nil {
		return nil, err
	}
	return prayer.NewTracker(schedule,
		prayer.WithReward(c.Prayer.Reward),
		prayer.WithWindow(c.Prayer.Window),
		prayer.WithLogger(logger),
	), nil
}
