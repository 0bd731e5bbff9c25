package attachments

import (
	"sort"
	"strings"
)

// FullSize is the reserved size name that always refers to the original file.
const FullSize = "full"

// Size describes one pre-generated variant of an attachment.
type Size struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Attachment is a single media record. File and every Size.File are
// slash-separated paths relative to the upload directory.
type Attachment struct {
	ID       int64  `json:"id"`
	File     string `json:"file"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Alt      string `json:"alt"`
	Title    string `json:"title"`
	Sizes    []Size `json:"sizes,omitempty"`
}

// IsImage reports whether the attachment has an image mime type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// Full returns the original file as a Size named FullSize.
func (a Attachment) Full() Size {
	return Size{Name: FullSize, File: a.File, Width: a.Width, Height: a.Height}
}

// Variant returns the named size. Unknown names, and FullSize itself,
// resolve to the original file.
func (a Attachment) Variant(name string) Size {
	for _, s := range a.Sizes {
		if s.Name == name {
			return s
		}
	}
	return a.Full()
}

// Variants returns the original file followed by every named size, ordered by
// ascending width.
func (a Attachment) Variants() []Size {
	out := make([]Size, 0, len(a.Sizes)+1)
	out = append(out, a.Full())
	out = append(out, a.Sizes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Width < out[j].Width
	})
	return out
}
