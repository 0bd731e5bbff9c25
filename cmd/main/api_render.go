package main

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/CTAG07/Verbena/pkg/media"
	"github.com/go-chi/chi/v5"
)

// attrParamPrefix marks query parameters that become HTML attributes, e.g.
// attr-data-caption=Harbour.
const attrParamPrefix = "attr-"

// RenderAPI exposes the media helpers over HTTP, mainly for previews and
// for clients that cannot run the templates themselves.
type RenderAPI struct {
	helpers *media.Helpers
	logger  *slog.Logger
}

func NewRenderAPI(helpers *media.Helpers, logger *slog.Logger) *RenderAPI {
	return &RenderAPI{helpers: helpers, logger: logger}
}

// RegisterRoutes mounts the /render endpoints.
func (a *RenderAPI) RegisterRoutes(r chi.Router) {
	r.Route("/render", func(r chi.Router) {
		r.Use(requireScope(scopeAttachmentsRead))
		r.Get("/image", a.handleImage)
		r.Get("/svg", a.handleSVG)
		r.Get("/url", a.handleURL)
	})
}

// handleImage renders <img> markup: ?id=7&size=large&class=hero&attr-loading=eager
func (a *RenderAPI) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'id' must be an integer")
		return
	}
	attrs, err := queryAttributes(q)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	markup, err := a.helpers.Image(r.Context(), id, q.Get("size"), attrs)
	if err != nil {
		a.logger.Error("Failed to render image", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render image")
		return
	}
	if markup == "" {
		respondWithError(w, http.StatusNotFound, "No image attachment with that ID")
		return
	}
	respondWithHTML(w, http.StatusOK, []byte(markup))
}

// handleSVG inlines an SVG file: ?ref=icons/logo&id=logo&class=icon
func (a *RenderAPI) handleSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("ref")
	if ref == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'ref' is required")
		return
	}
	attrs, err := queryAttributes(q)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	markup, err := a.helpers.SVG(r.Context(), ref, attrs, q.Get("id"))
	if err != nil {
		if errors.Is(err, media.ErrOutsideUploads) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error("Failed to render svg", "ref", ref, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render svg")
		return
	}
	if markup == "" {
		respondWithError(w, http.StatusNotFound, "SVG file not found")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(markup))
}

// handleURL resolves ?id=7&size=medium or ?ref=path to a public URL.
func (a *RenderAPI) handleURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if ref := q.Get("ref"); ref != "" {
		u, err := a.helpers.MediaURL(ref)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"url": u})
		return
	}

	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'id' or 'ref' is required")
		return
	}
	size := q.Get("size")
	if size == "" {
		size = attachments.FullSize
	}
	u, found, err := a.helpers.AttachmentURL(r.Context(), id, size)
	if err != nil {
		a.logger.Error("Failed to resolve attachment url", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve attachment url")
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "Attachment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"url": u})
}

// queryAttributes collects class and attr-* parameters. It returns nil when
// there are none.
func queryAttributes(q url.Values) (media.Attributes, error) {
	raw := make(map[string]string)
	if class := q.Get("class"); class != "" {
		raw["class"] = class
	}
	for key, values := range q {
		name, ok := strings.CutPrefix(key, attrParamPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		raw[name] = values[0]
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return media.NormalizeAttributes(raw)
}
