package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

// ServerAPI holds the dependencies for the server control handlers.
type ServerAPI struct {
	cm         *ConfigManager
	actionChan chan string
	logger     *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func NewServerAPI(cm *ConfigManager, actionChan chan string, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{cm: cm, actionChan: actionChan, logger: logger}
}

// RegisterRoutes mounts the /server endpoints.
func (a *ServerAPI) RegisterRoutes(r chi.Router) {
	r.Route("/server", func(r chi.Router) {
		r.With(requireScope(scopeServerConfig)).Get("/config", a.handleGetConfig)
		r.With(requireScope(scopeServerConfig)).Put("/config", a.handlePutConfig)
		r.Get("/version", a.handleVersion)
		r.With(requireScope(scopeServerControl)).Post("/shutdown", a.handleAction(actionShutdown))
		r.With(requireScope(scopeServerControl)).Post("/restart", a.handleAction(actionRestart))
	})
}

func (a *ServerAPI) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *ServerAPI) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

// handlePutConfig replaces the configuration. Sections missing from the body
// keep their current values.
func (a *ServerAPI) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	newConfig := a.cm.Get()
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if err := a.cm.Update(newConfig); err != nil {
		a.logger.Error("Failed to apply new config", "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Info("Application configuration updated via API")
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

func (a *ServerAPI) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, VersionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
}

// handleAction asks the serve loop to shut down or restart once the response
// has been written.
func (a *ServerAPI) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		a.logger.Warn("Server action initiated via API", "action", action)
		respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is going to " + action})

		go func() {
			a.actionChan <- action
		}()
	}
}
