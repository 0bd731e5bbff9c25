package media

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	h, _ := setupTestHelpers(t)

	tests := []struct {
		ref  string
		want string
	}{
		{"https://example.com/uploads/2024/05/a.jpg", "2024/05/a.jpg"},
		{"https://example.com/uploads/2024/05/a.jpg?ver=2#top", "2024/05/a.jpg"},
		{"http://EXAMPLE.com/uploads/x.svg", "x.svg"},
		{"//example.com/uploads/x.svg", "x.svg"},
		{"https://example.com/uploads/a%20b.jpg", "a b.jpg"},
		{"/uploads/icons/x.svg", "icons/x.svg"},
		{"/uploads/a%20b.jpg", "a b.jpg"},
		{"/uploads/icons/x.svg?v=2#top", "icons/x.svg"},
		{"/srv/www/uploads/icons/x.svg", "icons/x.svg"},
		{"icons/x.svg", "icons/x.svg"},
		{"icons/../x.svg?v=1", "x.svg"},
		{"  icons/x.svg  ", "icons/x.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := h.ResolvePath(tt.ref)
			if err != nil {
				t.Fatalf("ResolvePath(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolvePath_Outside(t *testing.T) {
	h, _ := setupTestHelpers(t)

	for _, ref := range []string{
		"",
		"https://other.com/uploads/x.svg",
		"https://example.com/about",
		"https://example.com/uploads/",
		"/etc/passwd",
		"/srv/www/uploads",
		"../secret.svg",
		"icons/../../secret.svg",
		"/uploads/%2e%2e/secret.svg",
		"/uploads/%zz.svg",
	} {
		t.Run(ref, func(t *testing.T) {
			if _, err := h.ResolvePath(ref); !errors.Is(err, ErrOutsideUploads) {
				t.Errorf("ResolvePath(%q) error = %v, want ErrOutsideUploads", ref, err)
			}
		})
	}
}

func TestMediaPathAndURL(t *testing.T) {
	h, _ := setupTestHelpers(t)

	p, err := h.MediaPath("https://example.com/uploads/2024/05/a b.jpg")
	if err != nil {
		t.Fatalf("MediaPath failed: %v", err)
	}
	if want := filepath.Join("/srv/www/uploads", "2024", "05", "a b.jpg"); p != want {
		t.Errorf("MediaPath = %q, want %q", p, want)
	}

	u, err := h.MediaURL("/srv/www/uploads/icons/a b.svg")
	if err != nil {
		t.Fatalf("MediaURL failed: %v", err)
	}
	if u != "https://example.com/uploads/icons/a%20b.svg" {
		t.Errorf("MediaURL = %q", u)
	}
}

func TestSettings_UploadURL(t *testing.T) {
	tests := []struct {
		s    Settings
		want string
	}{
		{Settings{BaseURL: "https://example.com", UploadPath: "/uploads"}, "https://example.com/uploads"},
		{Settings{BaseURL: "https://example.com/", UploadPath: "wp-content/uploads/"}, "https://example.com/wp-content/uploads"},
		{Settings{BaseURL: "", UploadPath: "/media"}, "/media"},
		{Settings{BaseURL: "https://cdn.example.com", UploadPath: ""}, "https://cdn.example.com"},
	}
	for _, tt := range tests {
		if got := tt.s.UploadURL(); got != tt.want {
			t.Errorf("%+v.UploadURL() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
