package media

import (
	"context"
	"sync"

	"github.com/CTAG07/Verbena/pkg/attachments"
)

// AttributeFilter rewrites the attributes of an image before it is rendered.
// It receives a copy it may modify. Returning nil leaves the attributes as
// they were.
type AttributeFilter func(ctx context.Context, attrs Attributes, a attachments.Attachment, size string) Attributes

// MarkupFilter rewrites rendered markup. ref is the attachment ID for images
// and the upload-relative path for SVGs.
type MarkupFilter func(ctx context.Context, markup, ref string) string

// Filters is the ordered set of hooks the helpers run their output through.
// Hooks run in the order they were added. All methods are concurrent-safe.
type Filters struct {
	mu          sync.RWMutex
	imageAttrs  []AttributeFilter
	imageMarkup []MarkupFilter
	svgMarkup   []MarkupFilter
}

// AddImageAttributes registers a hook that runs on the final attribute set of
// every rendered image.
func (f *Filters) AddImageAttributes(fn AttributeFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageAttrs = append(f.imageAttrs, fn)
}

// AddImageMarkup registers a hook that runs on every rendered <img> tag.
func (f *Filters) AddImageMarkup(fn MarkupFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageMarkup = append(f.imageMarkup, fn)
}

// AddSVGMarkup registers a hook that runs on raw SVG file contents before
// attributes are injected.
func (f *Filters) AddSVGMarkup(fn MarkupFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.svgMarkup = append(f.svgMarkup, fn)
}

func (f *Filters) applyImageAttributes(ctx context.Context, attrs Attributes, a attachments.Attachment, size string) Attributes {
	f.mu.RLock()
	hooks := f.imageAttrs
	f.mu.RUnlock()

	for _, fn := range hooks {
		if out := fn(ctx, attrs.Clone(), a, size); out != nil {
			attrs = out
		}
	}
	return attrs
}

func (f *Filters) applyImageMarkup(ctx context.Context, markup, ref string) string {
	f.mu.RLock()
	hooks := f.imageMarkup
	f.mu.RUnlock()
	return applyMarkup(ctx, hooks, markup, ref)
}

func (f *Filters) applySVGMarkup(ctx context.Context, markup, ref string) string {
	f.mu.RLock()
	hooks := f.svgMarkup
	f.mu.RUnlock()
	return applyMarkup(ctx, hooks, markup, ref)
}

func applyMarkup(ctx context.Context, hooks []MarkupFilter, markup, ref string) string {
	for _, fn := range hooks {
		markup = fn(ctx, markup, ref)
	}
	return markup
}
