package media

import (
	"errors"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// ErrInvalidAttributes is returned when an attribute argument is neither a
// class string nor a non-empty attribute collection.
var ErrInvalidAttributes = errors.New("attributes must be a class string or a non-empty collection")

// Attributes maps HTML attribute names to values. A flag attribute such as
// "hidden" has an empty value.
type Attributes map[string]string

// Attr is one entry of a mixed attribute list. An Attr with an empty Value is
// a flag.
type Attr struct {
	Name  string
	Value string
}

// Flag returns a flag attribute.
func Flag(name string) Attr {
	return Attr{Name: name}
}

// Pair returns a name="value" attribute.
func Pair(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// NormalizeAttributes turns a class string or an attribute collection into
// Attributes.
//
// A string becomes the class attribute. Lists ([]string, []Attr, []any and
// map[int]string) contribute flag attributes for their plain names, and named
// entries pass through as they are. map[string]any values are weakly decoded
// to strings, so 300 becomes "300" and true becomes "1". Empty collections,
// nil, names rejected by ValidAttributeName and any other type fail with
// ErrInvalidAttributes.
func NormalizeAttributes(value any) (Attributes, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return Attributes{}, nil
		}
		return Attributes{"class": v}, nil
	case Attributes:
		return fromStringMap(v)
	case map[string]string:
		return fromStringMap(v)
	case map[string]any:
		return fromAnyMap(v)
	case map[int]string:
		if len(v) == 0 {
			return nil, emptyCollection(value)
		}
		out := make(Attributes, len(v))
		for _, name := range v {
			if err := out.setFlag(name); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []string:
		if len(v) == 0 {
			return nil, emptyCollection(value)
		}
		out := make(Attributes, len(v))
		for _, name := range v {
			if err := out.setFlag(name); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []Attr:
		if len(v) == 0 {
			return nil, emptyCollection(value)
		}
		out := make(Attributes, len(v))
		for _, a := range v {
			if err := out.setAttr(a); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		if len(v) == 0 {
			return nil, emptyCollection(value)
		}
		out := make(Attributes, len(v))
		for _, item := range v {
			if err := out.mergeItem(item); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidAttributes, value)
	}
}

func (a Attributes) mergeItem(item any) error {
	switch it := item.(type) {
	case string:
		return a.setFlag(it)
	case Attr:
		return a.setAttr(it)
	case Attributes, map[string]string, map[string]any:
		nested, err := NormalizeAttributes(it)
		if err != nil {
			return err
		}
		maps.Copy(a, nested)
		return nil
	default:
		return fmt.Errorf("%w: list entry of type %T", ErrInvalidAttributes, item)
	}
}

func (a Attributes) setFlag(name string) error {
	return a.setAttr(Attr{Name: name})
}

func (a Attributes) setAttr(attr Attr) error {
	name := strings.TrimSpace(attr.Name)
	if name == "" {
		return fmt.Errorf("%w: empty attribute name", ErrInvalidAttributes)
	}
	if !ValidAttributeName(name) {
		return fmt.Errorf("%w: invalid attribute name %q", ErrInvalidAttributes, name)
	}
	a[name] = attr.Value
	return nil
}

func fromStringMap(m map[string]string) (Attributes, error) {
	if len(m) == 0 {
		return nil, emptyCollection(m)
	}
	out := make(Attributes, len(m))
	for name, value := range m {
		if err := out.setAttr(Attr{Name: name, Value: value}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fromAnyMap(m map[string]any) (Attributes, error) {
	if len(m) == 0 {
		return nil, emptyCollection(m)
	}
	decoded := make(map[string]string, len(m))
	if err := mapstructure.WeakDecode(m, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttributes, err)
	}
	return fromStringMap(decoded)
}

// ValidAttributeName reports whether name can be written into a tag as is.
// Names must not be empty or contain whitespace, control characters, quotes,
// '<', '>', '/' or '='.
func ValidAttributeName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`"'<>/=`, r) {
			return false
		}
	}
	return true
}

func emptyCollection(value any) error {
	return fmt.Errorf("%w: empty %T", ErrInvalidAttributes, value)
}

// Clone returns a copy of a that is safe to modify.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	maps.Copy(out, a)
	return out
}

// With returns a copy of a with name set to value.
func (a Attributes) With(name, value string) Attributes {
	out := a.Clone()
	out[name] = value
	return out
}

// Merge returns defaults overlaid with a. Entries in a win.
func (a Attributes) Merge(defaults Attributes) Attributes {
	out := defaults.Clone()
	maps.Copy(out, a)
	return out
}

// HTML serializes the attributes as space separated name="value" pairs.
// Names listed in priority come first in the given order; the rest follow
// sorted by name. Values are HTML-escaped and entries whose name fails
// ValidAttributeName are dropped.
func (a Attributes) HTML(priority ...string) string {
	if len(a) == 0 {
		return ""
	}

	names := make([]string, 0, len(a))
	seen := make(map[string]struct{}, len(priority))
	for _, name := range priority {
		if _, ok := a[name]; !ok || !ValidAttributeName(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	rest := make([]string, 0, len(a)-len(names))
	for name := range a {
		if _, ok := seen[name]; !ok && ValidAttributeName(name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	names = append(names, rest...)

	var builder strings.Builder
	for i, name := range names {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(name)
		builder.WriteString(`="`)
		builder.WriteString(html.EscapeString(a[name]))
		builder.WriteByte('"')
	}
	return builder.String()
}

// String implements fmt.Stringer using HTML with no priority names.
func (a Attributes) String() string {
	return a.HTML()
}
