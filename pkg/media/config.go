package media

import "strings"

// Settings locates uploaded media. It is passed explicitly to NewHelpers
// instead of being read from process-wide state.
type Settings struct {
	// BaseURL is the public site URL, e.g. "https://example.com".
	BaseURL string `json:"base_url" env:"BASE_URL"`

	// UploadDir is the filesystem directory holding uploaded media.
	UploadDir string `json:"upload_dir" env:"UPLOAD_DIR"`

	// UploadPath is the URL path below BaseURL where UploadDir is served.
	UploadPath string `json:"upload_path" env:"UPLOAD_PATH"`

	// MaxSrcsetWidth drops wider variants from generated srcset attributes.
	MaxSrcsetWidth int `json:"max_srcset_width" env:"MAX_SRCSET_WIDTH"`

	// LazyLoading adds loading="lazy" to generated images.
	LazyLoading bool `json:"lazy_loading" env:"LAZY_LOADING"`
}

// DefaultSettings returns Settings suitable for local development.
func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:        "http://localhost:7277",
		UploadDir:      "./data/uploads",
		UploadPath:     "/uploads",
		MaxSrcsetWidth: 2048,
		LazyLoading:    true,
	}
}

// UploadURL returns the public URL of the upload directory, without a
// trailing slash.
func (s Settings) UploadURL() string {
	return strings.TrimRight(s.BaseURL, "/") + s.uploadPath()
}

// uploadPath returns UploadPath with a leading and no trailing slash.
func (s Settings) uploadPath() string {
	p := strings.Trim(s.UploadPath, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
