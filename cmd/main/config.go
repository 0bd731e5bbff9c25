package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/CTAG07/Verbena/pkg/media"
	"github.com/CTAG07/Verbena/pkg/templating"
	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
)

// envPrefix is prepended to every environment variable that overrides config.json.
const envPrefix = "VERBENA_"

// ServerConfig holds the configuration for the HTTP server and database.
type ServerConfig struct {
	ServerAddr   string `json:"server_addr" env:"ADDR"`
	LogLevel     string `json:"log_level" env:"LOG_LEVEL"`
	DatabasePath string `json:"database_path" env:"DATABASE_PATH"`
	ServeUploads bool   `json:"serve_uploads" env:"SERVE_UPLOADS"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config" envPrefix:"SERVER_"`
	Media     *media.Settings            `json:"media_config" envPrefix:"MEDIA_"`
	Templates *templating.TemplateConfig `json:"template_config" envPrefix:"TEMPLATE_"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:   ":7277",
		LogLevel:     "info",
		DatabasePath: "./data/verbena.db?_journal_mode=WAL&_busy_timeout=5000",
		ServeUploads: true,
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	templates := templating.DefaultConfig()
	return &Config{
		Server:    DefaultServerConfig(),
		Media:     media.DefaultSettings(),
		Templates: &templates,
	}
}

// Validate reports the first setting that would keep the server from working.
func (c *Config) Validate() error {
	if c.Server == nil || c.Media == nil || c.Templates == nil {
		return errors.New("config is missing a section")
	}
	if c.Server.ServerAddr == "" {
		return errors.New("server_addr must not be empty")
	}
	u, err := url.Parse(c.Media.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("media base_url %q must be an absolute URL", c.Media.BaseURL)
	}
	if c.Media.UploadDir == "" {
		return errors.New("media upload_dir must not be empty")
	}
	if c.Templates.Dir == "" {
		return errors.New("template dir must not be empty")
	}
	return nil
}

// LoadConfig reads the configuration from a JSON file at the given path and
// then applies VERBENA_* environment overrides. If the file doesn't exist, it
// creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		var data []byte
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			// The defaults are still usable without the file.
			fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err = json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err = applyEnv(config); err != nil {
		return nil, err
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyEnv overlays environment variables such as VERBENA_SERVER_ADDR or
// VERBENA_MEDIA_BASE_URL onto config.
func applyEnv(config *Config) error {
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Media == nil {
		config.Media = media.DefaultSettings()
	}
	if config.Templates == nil {
		templates := templating.DefaultConfig()
		config.Templates = &templates
	}
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ConfigManager handles thread-safe access to the configuration and pushes
// changes to the components that depend on it.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	tm         *templating.TemplateManager
	helpers    *media.Helpers
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		logger:     slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger replaces the logger used for config change messages.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// SetTemplateManager registers the template manager to receive config updates.
func (cm *ConfigManager) SetTemplateManager(tm *templating.TemplateManager) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tm = tm
	if tm != nil {
		tm.SetConfig(*cm.config.Templates)
	}
}

// SetHelpers registers the media helpers to receive settings updates.
func (cm *ConfigManager) SetHelpers(h *media.Helpers) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.helpers = h
	if h != nil {
		h.SetSettings(cm.config.Media)
	}
}

// Get returns a copy of the current configuration. The sections are copied
// as well, so callers may modify the result freely.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server := *cm.config.Server
	settings := *cm.config.Media
	templates := *cm.config.Templates
	return Config{Server: &server, Media: &settings, Templates: &templates}
}

// Update validates and applies newConfig, then saves it to disk. A template
// configuration that fails to load is rolled back and rejected.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.tm != nil {
		oldTmplConfig := *cm.config.Templates
		cm.tm.SetConfig(*newConfig.Templates)
		if err := cm.tm.Refresh(); err != nil {
			cm.tm.SetConfig(oldTmplConfig)
			_ = cm.tm.Refresh()
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}
	if cm.helpers != nil {
		cm.helpers.SetSettings(newConfig.Media)
	}

	server := *newConfig.Server
	settings := *newConfig.Media
	templates := *newConfig.Templates
	cm.config = &Config{Server: &server, Media: &settings, Templates: &templates}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cm.logger.Info("Configuration updated and saved. Some changes may require a restart.")
	return nil
}
