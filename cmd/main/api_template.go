package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/CTAG07/Verbena/pkg/templating"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
)

// TemplateAPI manages the template files and renders previews.
type TemplateAPI struct {
	tm     *templating.TemplateManager
	files  afero.Fs
	logger *slog.Logger
}

// NewTemplateAPI creates a TemplateAPI editing the templates in files, which
// must be the filesystem tm loads from.
func NewTemplateAPI(tm *templating.TemplateManager, files afero.Fs, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{tm: tm, files: files, logger: logger}
}

// RegisterRoutes mounts the /templates endpoints.
func (t *TemplateAPI) RegisterRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireScope(scopeTemplatesRead))
			r.Get("/", t.handleList)
			r.Post("/test", t.handleTest)
			r.Get("/preview", t.handlePreview)
			r.Get("/{name}", t.handleGetFile)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireScope(scopeTemplatesWrite))
			r.Post("/refresh", t.handleRefresh)
			r.Put("/{name}", t.handlePutFile)
			r.Delete("/{name}", t.handleDeleteFile)
		})
	})
}

// handleRefresh triggers a manual refresh of templates from disk.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := t.tm.Refresh(); err != nil {
		t.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	t.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleList returns the names of all loaded pages and partials.
func (t *TemplateAPI) handleList(w http.ResponseWriter, _ *http.Request) {
	names := t.tm.GetTemplateNames()
	if names == nil {
		names = []string{}
	}
	respondWithJSON(w, http.StatusOK, names)
}

// handleTest executes the request body as a template without saving it.
// The query string is passed to the template as PageData.Query.
func (t *TemplateAPI) handleTest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	var buf bytes.Buffer
	if err = t.tm.ExecuteTemplateString(r.Context(), &buf, string(body), previewData(r, "test")); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	}
	respondWithHTML(w, http.StatusOK, buf.Bytes())
}

// handlePreview renders a loaded template by name: ?name=about.tmpl.html
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}

	var buf bytes.Buffer
	page := strings.TrimSuffix(name, ".tmpl.html")
	if err := t.tm.ExecuteContext(r.Context(), &buf, name, previewData(r, page)); err != nil {
		if strings.Contains(err.Error(), "is undefined") {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Template '%s' not found", name))
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}
	respondWithHTML(w, http.StatusOK, buf.Bytes())
}

func previewData(r *http.Request, page string) PageData {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		if k != "name" {
			q[k] = v
		}
	}
	return PageData{Page: page, Path: "/" + page, Query: q}
}

func (t *TemplateAPI) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name, ok := templateFileParam(w, r)
	if !ok {
		return
	}
	content, err := afero.ReadFile(t.files, name)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Template not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(content)
}

// handlePutFile writes a template and reloads the set. A template that does
// not parse is removed again and the previous content restored.
func (t *TemplateAPI) handlePutFile(w http.ResponseWriter, r *http.Request) {
	name, ok := templateFileParam(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	previous, readErr := afero.ReadFile(t.files, name)
	if err = afero.WriteFile(t.files, name, body, 0644); err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to write template file: %v", err))
		return
	}
	if err = t.tm.Refresh(); err != nil {
		if readErr == nil {
			_ = afero.WriteFile(t.files, name, previous, 0644)
		} else {
			_ = t.files.Remove(name)
		}
		_ = t.tm.Refresh()
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template rejected: %v", err))
		return
	}
	t.logger.Info("Template saved via API", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (t *TemplateAPI) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name, ok := templateFileParam(w, r)
	if !ok {
		return
	}
	if err := t.files.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondWithError(w, http.StatusNotFound, "Template not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete template file: %v", err))
		return
	}
	if err := t.tm.Refresh(); err != nil {
		t.logger.Error("Refresh after template delete failed", "name", name, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// templateFileParam accepts bare *.tmpl.html and *.part.html file names.
func templateFileParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		(!strings.HasSuffix(name, ".tmpl.html") && !strings.HasSuffix(name, ".part.html")) {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return "", false
	}
	return name, true
}
