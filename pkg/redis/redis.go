package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Package-level singleton instance
var clientInstance *redis.Client

// Config Redis 配置
type Config struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	Enabled     bool   `toml:"enabled"`
	DialTimeout string `toml:"dial_timeout"` // 默认 5s
	PoolSize    int    `toml:"pool_size"`    // 默认取 go-redis 内置值
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required when redis is enabled")
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if _, err := time.ParseDuration(c.DialTimeout); err != nil {
		return fmt.Errorf("dial_timeout is invalid: %w", err)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative")
	}
	return nil
}

// Init initializes the Redis client singleton with config.
// 会话历史读写都走这个连接，启动时 ping 一次尽早暴露配置错误。
func Init(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	dialTimeout, _ := time.ParseDuration(cfg.DialTimeout)

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
		PoolSize:    cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	clientInstance = client
	return nil
}

// Client returns the singleton Redis client instance.
// Returns nil if Redis is not enabled or not initialized.
func Client() *redis.Client {
	return clientInstance
}

// Close closes the Redis client connection.
func Close() error {
	if clientInstance == nil {
		return nil
	}
	return clientInstance.Close()
}
