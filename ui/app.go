// Package ui serves the HTML dashboard: the list of stored analysis runs
// and a per-run report page with the Markdown summary rendered to HTML.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gocompare/app"
	"gocompare/domain/core"
	"gocompare/internal"
	"gocompare/internal/testkit"
	"gocompare/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	runs      ports.RunReader
	templates *template.Template
	logger    *internal.Logger
	addr      string
}

// Config holds dashboard configuration. A nil Reader falls back to an
// in-memory repository seeded with one demo run, so the dashboard works
// without a database.
type Config struct {
	Addr   string
	Reader ports.RunReader
	Logger *internal.Logger
}

// NewApp creates the dashboard application
func NewApp(config Config) (*App, error) {
	logger := config.Logger
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	logger = logger.WithPrefix("Dashboard")

	reader := config.Reader
	if reader == nil {
		seeded, err := seedDemoRepository(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to seed demo repository: %w", err)
		}
		logger.Info("No run store configured, serving in-memory demo data")
		reader = seeded
	}

	funcMap := template.FuncMap{
		"fmtTime": func(t core.Timestamp) string {
			return t.Time().Format("2006-01-02 15:04:05")
		},
		"shortHash": func(v fmt.Stringer) string {
			s := v.String()
			if len(s) > 12 {
				return s[:12]
			}
			return s
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		runs:      reader,
		templates: templates,
		logger:    logger,
		addr:      config.Addr,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// seedDemoRepository runs the analysis pipeline once over the generated demo
// dataset so the dashboard has something real to show.
func seedDemoRepository(logger *internal.Logger) (ports.RunReader, error) {
	kit := testkit.NewTestKit()
	frame, err := testkit.NewDemoDataGenerator(testkit.DefaultDemoConfig()).GenerateFrame()
	if err != nil {
		return nil, err
	}

	service := app.NewAnalysisService(testkit.NewStaticDatasetReader(frame), nil, kit.RunWriter(), logger)
	if _, err := service.Run(context.Background(), app.AnalysisRequest{Design: testkit.DemoDesign()}); err != nil {
		return nil, err
	}
	return kit.RunReader(), nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRunDetail)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := a.addr
	if addr == "" {
		addr = ":8081"
	}
	a.logger.Info("Starting dashboard on http://localhost%s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
