package util

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	PersistMemory = "memory"
	PersistRedis  = "redis"
)

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	PW   string `yaml:"pw"`
	DB   int    `yaml:"db"`
}

type NatsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Config is the server configuration, loaded from YAML with environment
// variables taking precedence.
type Config struct {
	ListenAddr string      `yaml:"listen_addr"`
	Persist    string      `yaml:"persist"`
	Redis      RedisConfig `yaml:"redis"`
	Nats       NatsConfig  `yaml:"nats"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		Persist:    PersistMemory,
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Nats: NatsConfig{
			URL: "nats://localhost:4222",
		},
	}
}

// LoadConfig reads the YAML config file if one is given, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	env := GameServerEnvironment
	if addr := env.GetListenAddr(); addr != "" {
		cfg.ListenAddr = addr
	}
	if method := env.GetPersistMethod(); method != "" {
		cfg.Persist = method
	}
	if host := env.GetRedisHost(); host != "" {
		cfg.Redis.Host = host
	}
	if port := env.GetRedisPort(); port != 0 {
		cfg.Redis.Port = port
	}
	if pw := env.GetRedisPW(); pw != "" {
		cfg.Redis.PW = pw
	}
	if db := env.GetRedisDB(); db != 0 {
		cfg.Redis.DB = db
	}
	if url := env.GetNatsURL(); url != "" {
		cfg.Nats.URL = url
		cfg.Nats.Enabled = true
	}

	if cfg.Persist != PersistMemory && cfg.Persist != PersistRedis {
		return nil, errors.Errorf("unknown persist method %s", cfg.Persist)
	}
	return cfg, nil
}

// RedisAddr renders host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
