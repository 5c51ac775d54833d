package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mcdev12/transfermarket/internal/market/engine"
	"github.com/mcdev12/transfermarket/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Market struct {
		ListingWindow      string         `yaml:"listing_window"`
		MinAskingFraction  float64        `yaml:"min_asking_fraction"`
		ExpiredSalePolicy  string         `yaml:"expired_sale_policy"`
		MaxRosterSize      int            `yaml:"max_roster_size"`
		PositionalMinimums map[string]int `yaml:"positional_minimums"`
	} `yaml:"market"`
	Settlement struct {
		PollInterval string `yaml:"poll_interval"`
		BatchSize    int32  `yaml:"batch_size"`
		NumWorkers   int    `yaml:"num_workers"`
	} `yaml:"settlement"`
	Outbox struct {
		PollInterval string `yaml:"poll_interval"`
		BatchSize    int32  `yaml:"batch_size"`
		MaxRetries   int    `yaml:"max_retries"`
		RetryDelay   string `yaml:"retry_delay"`
	} `yaml:"outbox"`
	Nats struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func (c *Config) listingWindow() time.Duration {
	return parseDuration(c.Market.ListingWindow, 24*time.Hour)
}

func (c *Config) settlementPollInterval() time.Duration {
	return parseDuration(c.Settlement.PollInterval, 5*time.Second)
}

func (c *Config) outboxPollInterval() time.Duration {
	return parseDuration(c.Outbox.PollInterval, 5*time.Second)
}

func (c *Config) outboxRetryDelay() time.Duration {
	return parseDuration(c.Outbox.RetryDelay, time.Second)
}

func (c *Config) expiredSalePolicy() engine.ExpiredSalePolicy {
	if c.Market.ExpiredSalePolicy == "" {
		return engine.ExpiredSaleMarketBuyout
	}
	return engine.ExpiredSalePolicy(c.Market.ExpiredSalePolicy)
}

func (c *Config) positionalMinimums() map[models.Position]int {
	if len(c.Market.PositionalMinimums) == 0 {
		return nil
	}
	out := make(map[models.Position]int, len(c.Market.PositionalMinimums))
	for pos, n := range c.Market.PositionalMinimums {
		out[models.Position(pos)] = n
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
