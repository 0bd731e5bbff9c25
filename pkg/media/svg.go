package media

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"regexp"

	"github.com/spf13/afero"
)

// svgOpenTag matches the literal start of an <svg> tag in any letter case.
var svgOpenTag = regexp.MustCompile(`(?i)<svg`)

// InjectSVGAttributes inserts attrs right after the first "<svg" in markup,
// matched case-insensitively. The markup is not parsed: attributes already on
// the tag are left in place, so a name present in both appears twice. Markup
// without an <svg tag, or an empty attrs, is returned unchanged.
func InjectSVGAttributes(markup string, attrs Attributes) string {
	serialized := attrs.HTML("id", "class")
	if serialized == "" {
		return markup
	}
	loc := svgOpenTag.FindStringIndex(markup)
	if loc == nil {
		return markup
	}
	return markup[:loc[1]] + " " + serialized + markup[loc[1]:]
}

// SVGPath appends ".svg" to ref when its last path segment has no extension.
func SVGPath(ref string) string {
	if path.Ext(ref) == "" {
		return ref + ".svg"
	}
	return ref
}

// SVG reads the SVG file that ref points at and returns its markup with attrs
// injected into the root tag. A non-empty id is set as the id attribute,
// replacing any id in attrs. ref may be an upload URL, a path below the upload
// directory, or a relative path; ".svg" is appended when it has no extension.
//
// A file that does not exist yields "", nil.
func (h *Helpers) SVG(ctx context.Context, ref string, attrs Attributes, id string) (template.HTML, error) {
	if id != "" {
		attrs = attrs.With("id", id)
	}

	rel, err := h.ResolvePath(ref)
	if err != nil {
		return "", err
	}
	rel = SVGPath(rel)

	raw, err := afero.ReadFile(h.Uploads(), rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.DebugContext(ctx, "svg: file not found", slog.String("ref", ref), slog.String("path", rel))
			return "", nil
		}
		return "", err
	}

	markup := h.filters.applySVGMarkup(ctx, string(raw), rel)
	return template.HTML(InjectSVGAttributes(markup, attrs)), nil
}
