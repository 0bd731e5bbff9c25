package media

import (
	"context"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/CTAG07/Verbena/pkg/attachments"
)

// DefaultImageSize is used when no size name is given.
const DefaultImageSize = "thumbnail"

// srcsetRatioTolerance is the relative aspect ratio difference allowed between
// the chosen variant and a srcset candidate.
const srcsetRatioTolerance = 0.01

// Image returns responsive <img> markup for the named size of an image
// attachment. attrs override the generated defaults (src, width, height,
// class, alt, srcset, sizes, decoding and loading) and the result passes
// through the registered image filters.
//
// A non-positive ID, a missing attachment or a non-image attachment yields
// "", nil.
func (h *Helpers) Image(ctx context.Context, id int64, size string, attrs Attributes) (template.HTML, error) {
	if size == "" {
		size = DefaultImageSize
	}

	a, ok, err := h.attachment(ctx, id)
	if err != nil || !ok {
		return "", err
	}
	if !a.IsImage() {
		return "", nil
	}

	defaults, err := h.imageDefaults(a, size)
	if err != nil {
		return "", err
	}

	merged := attrs.Merge(defaults)
	merged = h.filters.applyImageAttributes(ctx, merged, a, size)

	markup := "<img " + merged.HTML("src", "width", "height") + " />"
	markup = h.filters.applyImageMarkup(ctx, markup, strconv.FormatInt(a.ID, 10))
	return template.HTML(markup), nil
}

// ImageWithClass is Image with only a class attribute. An empty size means
// DefaultImageSize.
func (h *Helpers) ImageWithClass(ctx context.Context, id int64, class, size string) (template.HTML, error) {
	attrs, err := NormalizeAttributes(class)
	if err != nil {
		return "", err
	}
	return h.Image(ctx, id, size, attrs)
}

func (h *Helpers) imageDefaults(a attachments.Attachment, size string) (Attributes, error) {
	s := h.Settings()
	chosen := a.Variant(size)

	src, err := h.fileURL(chosen.File)
	if err != nil {
		return nil, err
	}

	defaults := Attributes{
		"src":      src,
		"class":    "attachment-" + size + " size-" + size,
		"alt":      strings.TrimSpace(a.Alt),
		"decoding": "async",
	}
	if chosen.Width > 0 && chosen.Height > 0 {
		defaults["width"] = strconv.Itoa(chosen.Width)
		defaults["height"] = strconv.Itoa(chosen.Height)
	}
	if s.LazyLoading {
		defaults["loading"] = "lazy"
	}

	srcset, err := h.srcset(a, chosen, s.MaxSrcsetWidth)
	if err != nil {
		return nil, err
	}
	if srcset != "" {
		defaults["srcset"] = srcset
		defaults["sizes"] = "(max-width: " + strconv.Itoa(chosen.Width) + "px) 100vw, " + strconv.Itoa(chosen.Width) + "px"
	}
	return defaults, nil
}

// srcset lists every variant with the chosen variant's aspect ratio that is
// no wider than maxWidth, narrowest first. It returns "" unless at least two
// candidates remain. maxWidth <= 0 disables the width cap.
func (h *Helpers) srcset(a attachments.Attachment, chosen attachments.Size, maxWidth int) (string, error) {
	if chosen.Width <= 0 || chosen.Height <= 0 {
		return "", nil
	}
	ratio := float64(chosen.Width) / float64(chosen.Height)

	var candidates []string
	seen := make(map[int]struct{})
	for _, v := range a.Variants() {
		if v.Width <= 0 || v.Height <= 0 {
			continue
		}
		if maxWidth > 0 && v.Width > maxWidth {
			continue
		}
		if _, dup := seen[v.Width]; dup {
			continue
		}
		r := float64(v.Width) / float64(v.Height)
		if math.Abs(r-ratio)/ratio > srcsetRatioTolerance {
			continue
		}
		u, err := h.fileURL(v.File)
		if err != nil {
			return "", err
		}
		seen[v.Width] = struct{}{}
		candidates = append(candidates, u+" "+strconv.Itoa(v.Width)+"w")
	}
	if len(candidates) < 2 {
		return "", nil
	}
	return strings.Join(candidates, ", "), nil
}
