package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestInjectSVGAttributes(t *testing.T) {
	attrs := Attributes{"class": "icon", "aria-hidden": "true"}

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			"plain",
			`<svg viewBox="0 0 1 1"><path/></svg>`,
			`<svg class="icon" aria-hidden="true" viewBox="0 0 1 1"><path/></svg>`,
		},
		{
			"upper case tag",
			`<SVG viewBox="0 0 1 1"></SVG>`,
			`<SVG class="icon" aria-hidden="true" viewBox="0 0 1 1"></SVG>`,
		},
		{
			"xml prolog",
			`<?xml version="1.0"?><svg></svg>`,
			`<?xml version="1.0"?><svg class="icon" aria-hidden="true"></svg>`,
		},
		{
			"only first tag",
			`<svg><svg></svg></svg>`,
			`<svg class="icon" aria-hidden="true"><svg></svg></svg>`,
		},
		{
			"existing attribute is not merged",
			`<svg class="old"></svg>`,
			`<svg class="icon" aria-hidden="true" class="old"></svg>`,
		},
		{
			"no svg tag",
			`<div></div>`,
			`<div></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InjectSVGAttributes(tt.markup, attrs); got != tt.want {
				t.Errorf("InjectSVGAttributes() = %s\nwant                    %s", got, tt.want)
			}
		})
	}

	if got := InjectSVGAttributes(`<svg></svg>`, nil); got != `<svg></svg>` {
		t.Errorf("empty attributes should leave markup unchanged, got %s", got)
	}

	unsafe := Attributes{"x><script>alert(1)</script><b y": "1"}
	if got := InjectSVGAttributes(`<svg viewBox="0 0 1 1"></svg>`, unsafe); got != `<svg viewBox="0 0 1 1"></svg>` {
		t.Errorf("invalid attribute names should not be injected, got %s", got)
	}
}

func TestInjectSVGAttributes_EachAttributeOnce(t *testing.T) {
	attrs := Attributes{"id": "logo", "class": "brand", "focusable": "false", "role": "img"}
	got := InjectSVGAttributes(`<Svg width="10"><g/></Svg>`, attrs)
	for name, value := range attrs {
		pair := name + `="` + value + `"`
		if c := strings.Count(got, pair); c != 1 {
			t.Errorf("expected %s exactly once, found %d times in %s", pair, c, got)
		}
	}
	if !strings.HasPrefix(got, `<Svg id="logo" class="brand" `) {
		t.Errorf("attributes should follow the tag name, got %s", got)
	}
}

func TestSVGPath(t *testing.T) {
	tests := map[string]string{
		"icons/logo":     "icons/logo.svg",
		"icons/logo.svg": "icons/logo.svg",
		"icons.v2/logo":  "icons.v2/logo.svg",
		"icons/logo.SVG": "icons/logo.SVG",
		"/uploads/arrow": "/uploads/arrow.svg",
	}
	for in, want := range tests {
		if got := SVGPath(in); got != want {
			t.Errorf("SVGPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHelpers_SVG(t *testing.T) {
	h, _ := setupTestHelpers(t)
	ctx := context.Background()

	withExt, err := h.SVG(ctx, "icons/logo.svg", Attributes{"class": "logo"}, "")
	if err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	withoutExt, err := h.SVG(ctx, "icons/logo", Attributes{"class": "logo"}, "")
	if err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if withExt != withoutExt {
		t.Errorf("path without extension should match the .svg path:\n%s\n%s", withoutExt, withExt)
	}
	if !strings.Contains(string(withExt), `<svg class="logo" xmlns=`) {
		t.Errorf("attributes were not injected: %s", withExt)
	}

	byURL, err := h.SVG(ctx, "https://example.com/uploads/icons/logo", nil, "")
	if err != nil {
		t.Fatalf("SVG by url failed: %v", err)
	}
	if string(byURL) != logoSVG {
		t.Errorf("SVG without attributes should return the file as is, got %s", byURL)
	}
}

func TestHelpers_SVG_IDOverridesAttributes(t *testing.T) {
	h, _ := setupTestHelpers(t)
	attrs := Attributes{"id": "old", "class": "logo"}

	got, err := h.SVG(context.Background(), "icons/logo", attrs, "main-logo")
	if err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if !strings.Contains(string(got), `<svg id="main-logo" class="logo" `) {
		t.Errorf("id parameter was not applied: %s", got)
	}
	if strings.Contains(string(got), "old") {
		t.Errorf("id parameter should replace the id attribute: %s", got)
	}
	if attrs["id"] != "old" {
		t.Error("SVG modified the caller's attributes")
	}
}

func TestHelpers_SVG_Unresolved(t *testing.T) {
	h, _ := setupTestHelpers(t)
	ctx := context.Background()

	got, err := h.SVG(ctx, "icons/missing", Attributes{"class": "x"}, "")
	if err != nil || got != "" {
		t.Errorf("missing file should yield (\"\", nil), got (%q, %v)", got, err)
	}

	_, err = h.SVG(ctx, "../../etc/passwd", nil, "")
	if !errors.Is(err, ErrOutsideUploads) {
		t.Errorf("expected ErrOutsideUploads, got %v", err)
	}
}

func TestHelpers_SVG_Filter(t *testing.T) {
	h, fs := setupTestHelpers(t)
	if err := afero.WriteFile(fs, "icons/arrow.svg", []byte(`<!-- exported --><svg></svg>`), 0644); err != nil {
		t.Fatal(err)
	}
	var seen string
	h.Filters().AddSVGMarkup(func(_ context.Context, markup, ref string) string {
		seen = ref
		return strings.TrimPrefix(markup, "<!-- exported -->")
	})

	got, err := h.SVG(context.Background(), "icons/arrow", Attributes{"class": "arrow"}, "")
	if err != nil {
		t.Fatalf("SVG failed: %v", err)
	}
	if string(got) != `<svg class="arrow"></svg>` {
		t.Errorf("unexpected filtered svg: %s", got)
	}
	if seen != "icons/arrow.svg" {
		t.Errorf("filter received ref %q", seen)
	}
}
