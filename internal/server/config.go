package server

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Zereker/oncall/pkg/genkit"
	"github.com/Zereker/oncall/pkg/knowledge"
	"github.com/Zereker/oncall/pkg/log"
	"github.com/Zereker/oncall/pkg/mq"
	"github.com/Zereker/oncall/pkg/paging"
	"github.com/Zereker/oncall/pkg/redis"
	"github.com/Zereker/oncall/pkg/ticket"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig               `toml:"server"`
	Log       log.Config                 `toml:"log"`
	Models    genkit.Config              `toml:"genkit"`
	Knowledge knowledge.OpenSearchConfig `toml:"knowledge"`
	Kafka     mq.KafkaConfig             `toml:"kafka"`
	Redis     redis.Config               `toml:"redis"`
	Paging    paging.Config              `toml:"paging"`
	Ticket    ticket.Config              `toml:"ticket"`
	Catalog   CatalogConfig              `toml:"catalog"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `toml:"port"`
}

// CatalogConfig points at the workflow catalog file
type CatalogConfig struct {
	File string `toml:"file"`
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port is required and must be between 1 and 65535")
	}
	return nil
}

// Validate checks catalog configuration
func (c *CatalogConfig) Validate() error {
	if c.File == "" {
		c.File = "configs/workflows.toml"
	}
	return nil
}

// Validate checks all configuration fields
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Models.Validate(); err != nil {
		return fmt.Errorf("genkit: %w", err)
	}

	if err := c.Knowledge.Validate(); err != nil {
		return fmt.Errorf("knowledge: %w", err)
	}

	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := c.Paging.Validate(); err != nil {
		return fmt.Errorf("paging: %w", err)
	}

	if err := c.Ticket.Validate(); err != nil {
		return fmt.Errorf("ticket: %w", err)
	}

	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	return nil
}

// LoadConfig reads and parses the configuration file
func LoadConfig(filename string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
