package media

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/spf13/afero"
)

// Helpers renders media markup for templates. It holds the media Settings, the
// attachment lookup, the upload filesystem and the filter hooks.
// All methods are concurrent-safe.
type Helpers struct {
	logger    *slog.Logger
	source    AttachmentSource
	filters   *Filters
	settings  Settings
	uploads   afero.Fs
	osUploads bool
	mu        sync.RWMutex
}

// NewHelpers creates Helpers that resolve attachments through source. uploads
// is the filesystem rooted at the upload directory; when nil, the directory
// named by settings.UploadDir on the OS filesystem is used, and it follows
// later SetSettings calls.
func NewHelpers(logger *slog.Logger, source AttachmentSource, settings *Settings, uploads afero.Fs) (*Helpers, error) {
	if source == nil {
		return nil, errors.New("media: an attachment source is required")
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	h := &Helpers{
		logger:   logger,
		source:   source,
		filters:  &Filters{},
		settings: *settings,
		uploads:  uploads,
	}
	if uploads == nil {
		h.uploads = osUploadFs(settings.UploadDir)
		h.osUploads = true
	}

	logger.Info("Media helpers initialized", "upload_dir", settings.UploadDir, "upload_url", settings.UploadURL())
	return h, nil
}

// SetSettings applies new media settings without restarting. When the
// Helpers own their upload filesystem it is re-rooted at the new UploadDir.
func (h *Helpers) SetSettings(settings *Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = *settings
	if h.osUploads {
		h.uploads = osUploadFs(settings.UploadDir)
	}
}

// Settings returns a copy of the current settings.
func (h *Helpers) Settings() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// Filters returns the hook registry the helpers apply.
func (h *Helpers) Filters() *Filters {
	return h.filters
}

// Uploads returns the upload filesystem.
func (h *Helpers) Uploads() afero.Fs {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.uploads
}

func osUploadFs(dir string) afero.Fs {
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
}
