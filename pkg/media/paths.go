package media

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideUploads is returned when a reference does not point inside the
// upload directory.
var ErrOutsideUploads = errors.New("reference is outside the upload directory")

// ResolvePath maps ref to a slash-separated path relative to the upload
// directory. ref may be
//   - an absolute URL below Settings.UploadURL (query and fragment are dropped),
//   - a site-relative URL path below Settings.UploadPath,
//   - a filesystem path below Settings.UploadDir,
//   - or a path relative to the upload directory.
//
// Anything else, including paths that climb out with "..", fails with
// ErrOutsideUploads.
func (h *Helpers) ResolvePath(ref string) (string, error) {
	s := h.Settings()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrOutsideUploads)
	}

	var (
		rel string
		ok  bool
	)
	switch {
	case isAbsoluteURL(ref):
		rel, ok = relFromURL(ref, s)
	case strings.HasPrefix(ref, "/"):
		if rel, ok = relFromDir(ref, s.UploadDir); !ok {
			rel, ok = relFromSitePath(ref, s)
		}
	default:
		if rel, ok = relFromDir(ref, s.UploadDir); !ok {
			rel, ok = stripQuery(ref), true
		}
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrOutsideUploads, ref)
	}

	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q", ErrOutsideUploads, ref)
	}
	return rel, nil
}

// MediaPath returns the filesystem path of the upload that ref points at.
func (h *Helpers) MediaPath(ref string) (string, error) {
	rel, err := h.ResolvePath(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(h.Settings().UploadDir, filepath.FromSlash(rel)), nil
}

// MediaURL returns the public URL of the upload that ref points at.
func (h *Helpers) MediaURL(ref string) (string, error) {
	rel, err := h.ResolvePath(ref)
	if err != nil {
		return "", err
	}
	return h.fileURL(rel)
}

// fileURL joins an upload-relative path onto the upload URL, escaping each
// path segment.
func (h *Helpers) fileURL(rel string) (string, error) {
	u, err := url.JoinPath(h.Settings().UploadURL(), rel)
	if err != nil {
		return "", fmt.Errorf("could not build url for %q: %w", rel, err)
	}
	return u, nil
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "//") || strings.Contains(ref, "://")
}

// relFromURL accepts absolute and protocol-relative URLs on the upload host.
// The scheme is not compared so http and https links resolve alike.
func relFromURL(ref string, s Settings) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	base, err := url.Parse(s.UploadURL())
	if err != nil || !strings.EqualFold(u.Host, base.Host) {
		return "", false
	}
	return cutDir(u.Path, strings.TrimRight(base.Path, "/"))
}

// relFromSitePath accepts site-relative URLs below the upload path. The path
// is percent-decoded like the path of an absolute URL.
func relFromSitePath(ref string, s Settings) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return cutDir(u.Path, s.uploadPath())
}

// relFromDir accepts filesystem paths below dir.
func relFromDir(ref, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	absRef, err := filepath.Abs(ref)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(absRef, absDir+string(filepath.Separator)) {
		return "", false
	}
	rel, err := filepath.Rel(absDir, absRef)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// cutDir strips the URL directory prefix dir from p.
func cutDir(p, dir string) (string, bool) {
	if dir == "" {
		return strings.TrimPrefix(p, "/"), p != ""
	}
	rest, ok := strings.CutPrefix(p, dir+"/")
	return rest, ok
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}
