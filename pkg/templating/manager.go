package templating

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/CTAG07/Verbena/pkg/media"
	"github.com/spf13/afero"
)

const (
	pagePattern    = "*.tmpl.html"
	partialPattern = "*.part.html"
)

// TemplateManager loads, parses and executes the templates found in a
// filesystem. All methods are safe for concurrent use.
type TemplateManager struct {
	logger         *slog.Logger
	config         TemplateConfig
	helpers        *media.Helpers
	fs             afero.Fs
	templates      *template.Template
	cleanTemplates *template.Template
	templateNames  []string
	funcMap        template.FuncMap
	mu             sync.RWMutex
}

// NewTemplateManager creates a TemplateManager reading templates from the root
// of fsys and performs an initial Refresh. helpers may be nil, in which case
// the media functions are not available until SetHelpers is called.
func NewTemplateManager(logger *slog.Logger, helpers *media.Helpers, config TemplateConfig, fsys afero.Fs) (*TemplateManager, error) {
	if fsys == nil {
		return nil, errors.New("templating: nil filesystem")
	}
	tm := &TemplateManager{
		logger:  logger,
		config:  config,
		helpers: helpers,
		fs:      fsys,
	}
	tm.funcMap = tm.makeFuncMap()

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized")
	return tm, nil
}

func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	funcs := template.FuncMap{
		"repeat":  repeat,
		"list":    list,
		"dict":    dict,
		"default": fallback,
		"isSet":   isSet,
		"join":    join,
		"add":     add,
		"sub":     sub,
		"div":     div,
		"mod":     mod,
	}
	if tm.helpers != nil {
		for name, fn := range tm.helpers.FuncMap() {
			funcs[name] = fn
		}
	}
	return funcs
}

// SetHelpers replaces the media helpers used by templates and reparses the
// template set so the new functions are bound.
func (tm *TemplateManager) SetHelpers(helpers *media.Helpers) error {
	tm.mu.Lock()
	tm.helpers = helpers
	tm.funcMap = tm.makeFuncMap()
	tm.mu.Unlock()
	return tm.Refresh()
}

// SetConfig applies a new configuration. It takes effect on the next Refresh.
func (tm *TemplateManager) SetConfig(config TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.config
}

// Refresh reparses every page and partial in the filesystem. On error the
// previously loaded set stays in place.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	root := template.New("").Funcs(tm.funcMap).Option(tm.config.missingKeyOption())
	fsys := afero.NewIOFS(tm.fs)

	tm.logger.Info("Loading template files...")
	parsed, err := root.ParseFS(fsys, pagePattern)
	names := []string{}
	if err != nil {
		if !isNoMatch(err) {
			tm.logger.Error("failed to parse template files", "error", err)
			return err
		}
		tm.logger.Warn("No template files found matching pattern", "pattern", pagePattern)
		parsed = root
	} else {
		for _, t := range parsed.Templates() {
			if strings.HasSuffix(t.Name(), ".tmpl.html") {
				names = append(names, t.Name())
			}
		}
	}

	tm.logger.Info("Loading partial files...")
	withPartials, err := parsed.ParseFS(fsys, partialPattern)
	if err != nil {
		if !isNoMatch(err) {
			tm.logger.Error("failed to parse partial files", "error", err)
			return err
		}
		withPartials = parsed
	}

	clean, err := withPartials.Clone()
	if err != nil {
		tm.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	slices.Sort(names)
	tm.templates = withPartials
	tm.cleanTemplates = clean
	tm.templateNames = names
	tm.logger.Info("Loaded template and partial files", "count", len(withPartials.Templates())-1)
	return nil
}

func isNoMatch(err error) bool {
	return strings.Contains(err.Error(), "pattern matches no files")
}

// Execute renders the named template to w.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(w, name, data)
}

// HasTemplate reports whether a full page template with the given name is loaded.
func (tm *TemplateManager) HasTemplate(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, found := slices.BinarySearch(tm.templateNames, name)
	return found
}

// GetTemplateNames returns the names of all loaded pages and partials, sorted.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var names []string
	for _, t := range tm.templates.Templates() {
		if strings.HasSuffix(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	slices.Sort(names)
	return names
}

// ExecuteContext renders the named template to w with the media lookups
// bound to ctx. It works on a private copy of the set, so it is slower than
// Execute.
func (tm *TemplateManager) ExecuteContext(ctx context.Context, w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tempSet, err := tm.contextSet(ctx)
	if err != nil {
		return err
	}
	return tempSet.ExecuteTemplate(w, name, data)
}

// ExecuteTemplateString parses content against a copy of the loaded set and
// executes it, so partials can be referenced without saving anything.
func (tm *TemplateManager) ExecuteTemplateString(ctx context.Context, w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tempSet, err := tm.contextSet(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}
	return t.Execute(w, data)
}

// contextSet clones the never-executed set and rebinds the media functions to
// ctx. The caller holds tm.mu.
func (tm *TemplateManager) contextSet(ctx context.Context) (*template.Template, error) {
	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone clean templates: %w", err)
	}
	tempSet.Option(tm.config.missingKeyOption())
	if tm.helpers != nil {
		tempSet.Funcs(tm.helpers.FuncMapContext(ctx))
	}
	return tempSet, nil
}
