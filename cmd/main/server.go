package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/CTAG07/Verbena/pkg/templating"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"
)

// PageData is passed to every page template rendered by the server.
type PageData struct {
	Page  string
	Path  string
	Query url.Values
}

// Server serves templated pages, uploaded media and the management API.
type Server struct {
	app           *app
	logger        *slog.Logger
	tm            *templating.TemplateManager
	authAPI       *AuthAPI
	attachmentAPI *AttachmentAPI
	renderAPI     *RenderAPI
	templateAPI   *TemplateAPI
	serverAPI     *ServerAPI
	router        chi.Router
}

func NewServer(a *app, actionChan chan string) (*Server, error) {
	cfg := a.cm.Get()

	if err := os.MkdirAll(cfg.Templates.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}
	templates := afero.NewBasePathFs(afero.NewOsFs(), cfg.Templates.Dir)

	tm, err := templating.NewTemplateManager(a.logger, a.helpers, *cfg.Templates, templates)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}
	a.cm.SetTemplateManager(tm)

	s := &Server{
		app:           a,
		logger:        a.logger,
		tm:            tm,
		authAPI:       NewAuthAPI(a.db, a.logger),
		attachmentAPI: NewAttachmentAPI(a.store, a.helpers, a.logger),
		renderAPI:     NewRenderAPI(a.helpers, a.logger),
		templateAPI:   NewTemplateAPI(tm, templates, a.logger),
		serverAPI:     NewServerAPI(a.cm, actionChan, a.logger),
	}
	s.router = s.buildRouter(cfg)
	return s, nil
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Unauthenticated so container health checks can use it.
		r.Get("/health", s.serverAPI.handleHealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(s.authAPI.Authenticate)
			s.authAPI.RegisterRoutes(r)
			s.attachmentAPI.RegisterRoutes(r)
			s.renderAPI.RegisterRoutes(r)
			s.templateAPI.RegisterRoutes(r)
			s.serverAPI.RegisterRoutes(r)
		})
	})

	if prefix := uploadRoute(cfg.Media.UploadPath); cfg.Server.ServeUploads && prefix != "" {
		r.Get(prefix+"/*", s.handleUploads(prefix))
	}

	r.Get("/favicon.ico", handleFavicon)
	r.Get("/", s.handlePage)
	r.Get("/{page}", s.handlePage)
	return r
}

// uploadRoute normalizes the upload URL path to "/path". Uploads served from
// the site root are not routed, since they would shadow every page.
func uploadRoute(uploadPath string) string {
	p := strings.Trim(uploadPath, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// handleUploads serves files from the media upload filesystem below prefix.
func (s *Server) handleUploads(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs := afero.NewHttpFs(s.app.helpers.Uploads())
		http.StripPrefix(prefix, http.FileServer(fs.Dir("/"))).ServeHTTP(w, r)
	}
}

// handlePage renders {page}.tmpl.html, or index.tmpl.html for the site root.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if page == "" {
		page = "index"
	}
	name := page + ".tmpl.html"
	if !s.tm.HasTemplate(name) {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	data := PageData{Page: page, Path: r.URL.Path, Query: r.URL.Query()}
	if err := s.tm.ExecuteContext(r.Context(), &buf, name, data); err != nil {
		s.logger.Error("Failed to execute template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.logger.Debug("Serving page", "template", name, "remote_addr", r.RemoteAddr)
	respondWithHTML(w, http.StatusOK, buf.Bytes())
}

// handleFavicon answers favicon requests with no content instead of a 404 page.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
