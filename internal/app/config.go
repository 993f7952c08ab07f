package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/retry"
)

type Config struct {
	Course struct {
		Root         string `toml:"root"`
		DropDir      string `toml:"drop_dir"`
		OutboxDir    string `toml:"outbox_dir"`
		PollSchedule string `toml:"poll_schedule"`
	} `toml:"course"`

	Backend struct {
		Command      string `toml:"command"`
		GradebookDSN string `toml:"gradebook_dsn"`
	} `toml:"backend"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Marker struct {
		Enabled     bool   `toml:"enabled"`
		RedisURL    string `toml:"redis_url"`
		KeyTemplate string `toml:"key_template"`
	} `toml:"marker"`

	Retry struct {
		DelaysMinutes []int `toml:"delays_minutes"`
	} `toml:"retry"`

	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	// DSNs and redis URLs usually carry secrets, let them come from env
	config.Database.DSN = os.ExpandEnv(config.Database.DSN)
	config.Backend.GradebookDSN = os.ExpandEnv(config.Backend.GradebookDSN)
	config.Marker.RedisURL = os.ExpandEnv(config.Marker.RedisURL)

	if config.Course.Root == "" {
		return nil, fmt.Errorf("course root is not specified in config")
	}
	if config.Database.DSN == "" {
		return nil, fmt.Errorf("database DSN is not specified in config")
	}
	if config.Course.PollSchedule == "" {
		config.Course.PollSchedule = "@every 1m"
	}

	logger.Debug.Printf("Loaded config for course root %q", config.Course.Root)

	return &config, nil
}

// RetryDelays converts the configured schedule into durations, falling
// back to the historical 1/5/10/15/20 minute one when unset.
func (c *Config) RetryDelays() []time.Duration {
	if len(c.Retry.DelaysMinutes) == 0 {
		return retry.DefaultDelays
	}
	delays := make([]time.Duration, len(c.Retry.DelaysMinutes))
	for i, m := range c.Retry.DelaysMinutes {
		delays[i] = time.Duration(m) * time.Minute
	}
	return delays
}
