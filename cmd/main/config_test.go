package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Verbena/pkg/templating"
	"github.com/spf13/afero"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.ServerAddr != ":7277" || cfg.Media.UploadPath != "/uploads" || cfg.Templates.Dir == "" {
		t.Errorf("unexpected defaults: %+v %+v %+v", cfg.Server, cfg.Media, cfg.Templates)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	for _, key := range []string{`"server_config"`, `"media_config"`, `"template_config"`, `"max_srcset_width": 2048`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("written config is missing %s", key)
		}
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeTestFile(t, path, `{
  "server_config": {"server_addr": ":9000"},
  "media_config": {"base_url": "https://file.example", "lazy_loading": false}
}`)
	t.Setenv("VERBENA_MEDIA_BASE_URL", "https://env.example")
	t.Setenv("VERBENA_TEMPLATE_MISSING_KEY", "error")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.ServerAddr != ":9000" {
		t.Errorf("file value not applied, ServerAddr = %q", cfg.Server.ServerAddr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("absent keys should keep defaults, LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Media.BaseURL != "https://env.example" {
		t.Errorf("env override not applied, BaseURL = %q", cfg.Media.BaseURL)
	}
	if cfg.Media.LazyLoading {
		t.Error("lazy_loading false from the file was lost")
	}
	if cfg.Templates.MissingKey != "error" {
		t.Errorf("env override not applied, MissingKey = %q", cfg.Templates.MissingKey)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad json", `{"server_config": `},
		{"relative base url", `{"media_config": {"base_url": "/site"}}`},
		{"empty addr", `{"server_config": {"server_addr": ""}}`},
		{"empty upload dir", `{"media_config": {"upload_dir": ""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			writeTestFile(t, path, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestConfigManager_Update(t *testing.T) {
	a, env := setupTestApp(t)
	cm := a.cm

	newConfig := cm.Get()
	newConfig.Media.BaseURL = "https://cdn.example.org"
	if err := cm.Update(newConfig); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := a.helpers.Settings().BaseURL; got != "https://cdn.example.org" {
		t.Errorf("helpers did not receive new settings, BaseURL = %q", got)
	}

	var saved Config
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if err = json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
	if saved.Media.BaseURL != "https://cdn.example.org" {
		t.Errorf("config was not persisted, BaseURL = %q", saved.Media.BaseURL)
	}

	// Get returns copies.
	c := cm.Get()
	c.Server.ServerAddr = ":1"
	if cm.Get().Server.ServerAddr == ":1" {
		t.Error("Get should not expose internal state")
	}

	bad := cm.Get()
	bad.Media.BaseURL = "not a url"
	if err = cm.Update(bad); err == nil {
		t.Error("expected Update to reject an invalid config")
	}
	if cm.Get().Media.BaseURL != "https://cdn.example.org" {
		t.Error("a rejected update should leave the config unchanged")
	}
}

func TestConfigManager_UpdateRollsBackTemplates(t *testing.T) {
	a, _ := setupTestApp(t)

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "page.tmpl.html", []byte(`{{.missing}}`), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm, err := templating.NewTemplateManager(logger, a.helpers, templating.DefaultConfig(), fs)
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}
	a.cm.SetTemplateManager(tm)

	newConfig := a.cm.Get()
	newConfig.Templates.MissingKey = "error"
	if err = a.cm.Update(newConfig); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if tm.GetConfig().MissingKey != "error" {
		t.Error("template manager did not receive the new config")
	}

	if err = afero.WriteFile(fs, "broken.tmpl.html", []byte(`{{end}}`), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	newConfig.Templates.MissingKey = "zero"
	if err = a.cm.Update(newConfig); err == nil {
		t.Fatal("expected Update to fail while a template is broken")
	}
	if tm.GetConfig().MissingKey != "error" {
		t.Errorf("template config was not rolled back, got %q", tm.GetConfig().MissingKey)
	}
	if a.cm.Get().Templates.MissingKey != "error" {
		t.Error("a rejected update should leave the config unchanged")
	}
}
