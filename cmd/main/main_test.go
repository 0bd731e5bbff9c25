package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CTAG07/Verbena/pkg/attachments"
)

// testEnv is a data directory laid out the way config.json describes it.
type testEnv struct {
	dir        string
	configPath string
	uploads    string
	templates  string
}

// setupTestEnv writes a config.json pointing every path into a temporary
// directory, with a logo SVG, one image and two page templates on disk.
func setupTestEnv(tb testing.TB) testEnv {
	tb.Helper()
	dir := tb.TempDir()
	env := testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.json"),
		uploads:    filepath.Join(dir, "uploads"),
		templates:  filepath.Join(dir, "templates"),
	}

	cfg := DefaultConfig()
	cfg.Server.LogLevel = "error"
	cfg.Server.DatabasePath = filepath.Join(dir, "verbena.db")
	cfg.Media.BaseURL = "https://example.com"
	cfg.Media.UploadDir = env.uploads
	cfg.Media.LazyLoading = false
	cfg.Templates.Dir = env.templates
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		tb.Fatalf("failed to marshal config: %v", err)
	}
	writeTestFile(tb, env.configPath, string(data))

	writeTestFile(tb, filepath.Join(env.uploads, "icons", "logo.svg"), `<svg viewBox="0 0 10 10"><circle r="5"/></svg>`)
	writeTestFile(tb, filepath.Join(env.uploads, "2024", "05", "harbour.jpg"), "jpeg bytes")
	writeTestFile(tb, filepath.Join(env.templates, "index.tmpl.html"), `<main>{{image 1 "medium" "hero"}}</main>`)
	writeTestFile(tb, filepath.Join(env.templates, "about.tmpl.html"), `<h1>{{.Page}}</h1>{{svg "icons/logo" "" "logo"}}`)
	return env
}

func writeTestFile(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tb.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("failed to write %s: %v", path, err)
	}
}

func harbour() attachments.Attachment {
	return attachments.Attachment{
		ID:       1,
		File:     "2024/05/harbour.jpg",
		MimeType: "image/jpeg",
		Width:    2400,
		Height:   1600,
		Alt:      "Boats in the harbour",
		Sizes: []attachments.Size{
			{Name: "thumbnail", File: "2024/05/harbour-150x150.jpg", Width: 150, Height: 150},
			{Name: "medium", File: "2024/05/harbour-300x200.jpg", Width: 300, Height: 200},
		},
	}
}

// setupTestApp opens an app over a fresh test environment with the harbour
// attachment recorded.
func setupTestApp(tb testing.TB) (*app, testEnv) {
	tb.Helper()
	env := setupTestEnv(tb)
	a, err := openApp(env.configPath, &bytes.Buffer{})
	if err != nil {
		tb.Fatalf("openApp failed: %v", err)
	}
	tb.Cleanup(a.Close)
	if _, err = a.store.Insert(context.Background(), harbour()); err != nil {
		tb.Fatalf("failed to insert attachment: %v", err)
	}
	return a, env
}
