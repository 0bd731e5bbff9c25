package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/CTAG07/Verbena/pkg/media"
	"github.com/go-chi/chi/v5"
)

// AttachmentAPI exposes the attachment store.
type AttachmentAPI struct {
	store   *attachments.Store
	helpers *media.Helpers
	logger  *slog.Logger
}

// LookupResponse is returned by the lookup endpoint. ID is 0 when Found is false.
type LookupResponse struct {
	ID    int64 `json:"id"`
	Found bool  `json:"found"`
}

func NewAttachmentAPI(store *attachments.Store, helpers *media.Helpers, logger *slog.Logger) *AttachmentAPI {
	return &AttachmentAPI{store: store, helpers: helpers, logger: logger}
}

// RegisterRoutes mounts the /attachments endpoints.
func (a *AttachmentAPI) RegisterRoutes(r chi.Router) {
	r.Route("/attachments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireScope(scopeAttachmentsRead))
			r.Get("/", a.handleList)
			r.Get("/lookup", a.handleLookup)
			r.Get("/export", a.handleExport)
			r.Get("/{id}", a.handleGet)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireScope(scopeAttachmentsWrite))
			r.Post("/", a.handleCreate)
			r.Post("/import", a.handleImport)
			r.Delete("/{id}", a.handleDelete)
		})
	})
}

func (a *AttachmentAPI) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := a.store.List(r.Context())
	if err != nil {
		a.logger.Error("Failed to list attachments", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list attachments")
		return
	}
	respondWithJSON(w, http.StatusOK, all)
}

func (a *AttachmentAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentIDParam(w, r)
	if !ok {
		return
	}
	att, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		a.logger.Error("Failed to get attachment", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get attachment")
		return
	}
	respondWithJSON(w, http.StatusOK, att)
}

func (a *AttachmentAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	var att attachments.Attachment
	if err := json.NewDecoder(r.Body).Decode(&att); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	id, err := a.store.Insert(r.Context(), att)
	if err != nil {
		if errors.Is(err, attachments.ErrInvalid) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error("Failed to insert attachment", "file", att.File, "error", err)
		respondWithError(w, http.StatusConflict, fmt.Sprintf("Failed to insert attachment: %v", err))
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *AttachmentAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentIDParam(w, r)
	if !ok {
		return
	}
	if err := a.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		a.logger.Error("Failed to delete attachment", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete attachment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLookup maps an upload URL back to the attachment that owns it.
func (a *AttachmentAPI) handleLookup(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'url' is required")
		return
	}
	id, found, err := a.helpers.AttachmentID(r.Context(), rawURL)
	if err != nil {
		a.logger.Error("Attachment lookup failed", "url", rawURL, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Attachment lookup failed")
		return
	}
	respondWithJSON(w, http.StatusOK, LookupResponse{ID: id, Found: found})
}

// handleExport writes the manifest only once it is complete.
func (a *AttachmentAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := a.store.Export(r.Context(), &buf); err != nil {
		a.logger.Error("Failed to export attachments", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to export attachments")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="attachments.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Failed to write attachment export", "error", err)
	}
}

func (a *AttachmentAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	n, err := a.store.Import(r.Context(), r.Body)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":    fmt.Sprintf("Import failed: %v", err),
			"imported": n,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func attachmentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID in URL")
		return 0, false
	}
	return id, true
}
