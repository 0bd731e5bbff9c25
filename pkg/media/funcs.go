package media

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"github.com/CTAG07/Verbena/pkg/attachments"
)

// FuncMap returns the template functions backed by h:
//
//	image ID SIZE [ATTRS]         responsive <img> markup
//	imageWithClass ID CLASS [SIZE] image with only a class attribute
//	imageURL ID [SIZE]            URL of one size of an attachment
//	attachmentID URL              attachment owning an upload URL, or 0
//	mediaPath REF                 filesystem path of an upload
//	mediaURL REF|ID               public URL of an upload or attachment
//	svg REF [ATTRS [ID]]          inline SVG with attributes
//	attrs NAME VALUE ...          build attributes from pairs
//	flags NAME ...                build flag attributes
//
// ATTRS is anything NormalizeAttributes accepts. Missing attachments render as
// empty output rather than failing the template. Lookups run with
// context.Background; use FuncMapContext to bind a request context.
func (h *Helpers) FuncMap() template.FuncMap {
	return h.FuncMapContext(context.Background())
}

// FuncMapContext is FuncMap with every lookup made under ctx.
func (h *Helpers) FuncMapContext(ctx context.Context) template.FuncMap {
	f := boundFuncs{h: h, ctx: ctx}
	return template.FuncMap{
		"image":          f.image,
		"imageWithClass": f.imageWithClass,
		"imageURL":       f.imageURL,
		"attachmentID":   f.attachmentID,
		"mediaPath":      h.MediaPath,
		"mediaURL":       f.mediaURL,
		"svg":            f.svg,
		"attrs":          attrsFunc,
		"flags":          flagsFunc,
	}
}

// boundFuncs adapts the typed Helpers API to the loosely typed arguments
// templates pass.
type boundFuncs struct {
	h   *Helpers
	ctx context.Context
}

func (f boundFuncs) image(id any, size string, attrs ...any) (template.HTML, error) {
	attachmentID, err := toID(id)
	if err != nil {
		return "", err
	}
	a, err := optionalAttributes(attrs)
	if err != nil {
		return "", err
	}
	return f.h.Image(f.ctx, attachmentID, size, a)
}

func (f boundFuncs) imageWithClass(id any, class string, size ...string) (template.HTML, error) {
	attachmentID, err := toID(id)
	if err != nil {
		return "", err
	}
	if len(size) > 1 {
		return "", errors.New("imageWithClass: too many arguments")
	}
	s := ""
	if len(size) == 1 {
		s = size[0]
	}
	return f.h.ImageWithClass(f.ctx, attachmentID, class, s)
}

func (f boundFuncs) imageURL(id any, size ...string) (string, error) {
	attachmentID, err := toID(id)
	if err != nil {
		return "", err
	}
	if len(size) > 1 {
		return "", errors.New("imageURL: too many arguments")
	}
	s := attachments.FullSize
	if len(size) == 1 {
		s = size[0]
	}
	u, _, err := f.h.AttachmentURL(f.ctx, attachmentID, s)
	return u, err
}

func (f boundFuncs) attachmentID(rawURL string) (int64, error) {
	id, _, err := f.h.AttachmentID(f.ctx, rawURL)
	return id, err
}

func (f boundFuncs) mediaURL(ref any) (string, error) {
	if s, ok := ref.(string); ok {
		return f.h.MediaURL(s)
	}
	id, err := toID(ref)
	if err != nil {
		return "", err
	}
	u, _, err := f.h.AttachmentURL(f.ctx, id, attachments.FullSize)
	return u, err
}

// svg takes the optional attributes and ID positionally; pass "" as the
// attributes to set only an ID.
func (f boundFuncs) svg(ref string, args ...any) (template.HTML, error) {
	if len(args) > 2 {
		return "", errors.New("svg: too many arguments")
	}
	var attrs Attributes
	if len(args) > 0 {
		a, err := NormalizeAttributes(args[0])
		if err != nil {
			return "", err
		}
		attrs = a
	}
	id := ""
	if len(args) == 2 {
		s, ok := args[1].(string)
		if !ok {
			return "", fmt.Errorf("svg: id must be a string, got %T", args[1])
		}
		id = s
	}
	return f.h.SVG(f.ctx, ref, attrs, id)
}

func attrsFunc(pairs ...any) (Attributes, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("attrs: odd number of arguments (%d)", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("attrs: attribute name must be a string, got %T", pairs[i])
		}
		m[name] = pairs[i+1]
	}
	return NormalizeAttributes(m)
}

func flagsFunc(names ...string) (Attributes, error) {
	return NormalizeAttributes(names)
}

func optionalAttributes(args []any) (Attributes, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return NormalizeAttributes(args[0])
	default:
		return nil, errors.New("too many attribute arguments")
	}
}

// toID accepts the integer types templates produce, plus numeric strings.
func toID(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("attachment id %d out of range", n)
		}
		return int64(n), nil
	case float64:
		if math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("attachment id %v is not an integer", n)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("attachment id %v out of range", n)
		}
		return int64(n), nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("attachment id %q is not a number", n)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("attachment id must be an integer, got %T", v)
	}
}
