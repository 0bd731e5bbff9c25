package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/spf13/afero"
)

// memSource is an in-memory AttachmentSource.
type memSource struct {
	byID map[int64]attachments.Attachment
	err  error
}

func (m *memSource) Get(_ context.Context, id int64) (attachments.Attachment, error) {
	if m.err != nil {
		return attachments.Attachment{}, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return attachments.Attachment{}, attachments.ErrNotFound
	}
	return a, nil
}

func (m *memSource) FindByPath(_ context.Context, file string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	for id, a := range m.byID {
		if a.File == file {
			return id, nil
		}
		for _, s := range a.Sizes {
			if s.File == file {
				return id, nil
			}
		}
	}
	return 0, attachments.ErrNotFound
}

const harbourID = 7

func testSource() *memSource {
	return &memSource{byID: map[int64]attachments.Attachment{
		harbourID: {
			ID:       harbourID,
			File:     "2024/05/harbour.jpg",
			MimeType: "image/jpeg",
			Width:    2400,
			Height:   1600,
			Alt:      "Boats in the harbour",
			Sizes: []attachments.Size{
				{Name: "thumbnail", File: "2024/05/harbour-150x150.jpg", Width: 150, Height: 150},
				{Name: "medium", File: "2024/05/harbour-300x200.jpg", Width: 300, Height: 200},
				{Name: "large", File: "2024/05/harbour-1024x683.jpg", Width: 1024, Height: 683},
			},
		},
		8: {ID: 8, File: "docs/menu.pdf", MimeType: "application/pdf"},
	}}
}

func testSettings() *Settings {
	return &Settings{
		BaseURL:        "https://example.com/",
		UploadDir:      "/srv/www/uploads",
		UploadPath:     "/uploads",
		MaxSrcsetWidth: 2048,
		LazyLoading:    true,
	}
}

const logoSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><circle r="5"/></svg>`

// setupTestHelpers creates Helpers over testSource and an in-memory upload
// filesystem holding icons/logo.svg.
func setupTestHelpers(tb testing.TB) (*Helpers, afero.Fs) {
	tb.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "icons/logo.svg", []byte(logoSVG), 0644); err != nil {
		tb.Fatalf("failed to write logo.svg: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHelpers(logger, testSource(), testSettings(), fs)
	if err != nil {
		tb.Fatalf("NewHelpers failed: %v", err)
	}
	return h, fs
}

func TestNewHelpers_RequiresSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewHelpers(logger, nil, testSettings(), nil); err == nil {
		t.Fatal("expected an error for a nil source")
	}
}

func TestHelpers_SetSettings(t *testing.T) {
	h, _ := setupTestHelpers(t)
	s := testSettings()
	s.BaseURL = "https://cdn.example.org"
	h.SetSettings(s)

	got, err := h.MediaURL("a.png")
	if err != nil {
		t.Fatalf("MediaURL failed: %v", err)
	}
	if got != "https://cdn.example.org/uploads/a.png" {
		t.Errorf("SetSettings not applied, MediaURL = %q", got)
	}
}

func TestAttachmentID(t *testing.T) {
	h, _ := setupTestHelpers(t)
	src := testSource()
	src.byID[9] = attachments.Attachment{ID: 9, File: "2024/06/harbour at dusk.jpg", MimeType: "image/jpeg"}
	h.source = src
	ctx := context.Background()

	tests := []struct {
		url    string
		wantID int64
		wantOK bool
	}{
		{"https://example.com/uploads/2024/05/harbour.jpg", harbourID, true},
		{"https://example.com/uploads/2024/05/harbour-300x200.jpg?ver=3", harbourID, true},
		{"/uploads/2024/05/harbour-1024x683.jpg", harbourID, true},
		{"/uploads/2024/06/harbour%20at%20dusk.jpg", 9, true},
		{"https://example.com/uploads/2024/06/harbour%20at%20dusk.jpg", 9, true},
		{"https://example.com/uploads/2024/05/missing.jpg", 0, false},
		{"https://elsewhere.net/uploads/2024/05/harbour.jpg", 0, false},
		{"https://example.com/about/", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok, err := h.AttachmentID(ctx, tt.url)
			if err != nil {
				t.Fatalf("AttachmentID(%q) error = %v", tt.url, err)
			}
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("AttachmentID(%q) = (%d, %v), want (%d, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestAttachmentID_SourceError(t *testing.T) {
	h, _ := setupTestHelpers(t)
	boom := errors.New("database is locked")
	h.source = &memSource{err: boom}

	if _, _, err := h.AttachmentID(context.Background(), "/uploads/a.jpg"); !errors.Is(err, boom) {
		t.Errorf("expected source error to propagate, got %v", err)
	}
}

func TestAttachmentURL(t *testing.T) {
	h, _ := setupTestHelpers(t)
	ctx := context.Background()

	u, ok, err := h.AttachmentURL(ctx, harbourID, "medium")
	if err != nil || !ok {
		t.Fatalf("AttachmentURL failed: ok=%v err=%v", ok, err)
	}
	if u != "https://example.com/uploads/2024/05/harbour-300x200.jpg" {
		t.Errorf("unexpected medium url %q", u)
	}

	u, _, _ = h.AttachmentURL(ctx, harbourID, "no-such-size")
	if u != "https://example.com/uploads/2024/05/harbour.jpg" {
		t.Errorf("unknown size should fall back to the full file, got %q", u)
	}

	u, ok, err = h.AttachmentURL(ctx, 404, "medium")
	if err != nil || ok || u != "" {
		t.Errorf("missing attachment should be unresolved, got (%q, %v, %v)", u, ok, err)
	}
}
