// Package config loads gateway settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every environment-driven setting the gateway needs.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the gateway's own HTTP listener.
type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	Host             string        `mapstructure:"host"`
	UpstreamTimeout  time.Duration `mapstructure:"upstream_timeout"`
	MaxRequestBodyMB int64         `mapstructure:"max_request_body_mb"`
}

// OpenAIConfig addresses the upstream OpenAI-shape server.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig controls the logrus wrapper in pkg/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the environment, applying the defaults
// named in the external-interfaces contract (PORT 8092, OPENAI_BASE_URL
// http://localhost:8094/v1, OPENAI_API_KEY optional).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8092)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.upstream_timeout", 10*time.Minute)
	v.SetDefault("server.max_request_body_mb", 10)
	v.SetDefault("openai.base_url", "http://localhost:8094/v1")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.host", "SERVER_HOST")
	_ = v.BindEnv("server.upstream_timeout", "REQUEST_TIMEOUT")
	_ = v.BindEnv("server.max_request_body_mb", "MAX_REQUEST_BODY_SIZE")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
}
