// Package web serves the dashboard and the JSON/multipart API.
package web

import (
    "context"
    "embed"
    "html/template"
    "net/http"
    "sync"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfmanager/internal/artifact"
    "github.com/local/pdfmanager/internal/metrics"
    "github.com/local/pdfmanager/internal/orchestrator"
    "github.com/local/pdfmanager/internal/selection"
    "github.com/local/pdfmanager/internal/statuscheck"
)

//go:embed templates/*.html
var templateFS embed.FS

// Operations is the orchestrator surface the handlers need.
type Operations interface {
    Split(ctx context.Context, up orchestrator.Upload, req selection.Request) (orchestrator.Result, error)
    Merge(ctx context.Context, ups []orchestrator.Upload) (orchestrator.Result, error)
    Preview(ctx context.Context, up orchestrator.Upload, pages string) (orchestrator.DocumentPreview, error)
    UploadPreviews(ctx context.Context, ups []orchestrator.Upload) ([]orchestrator.DocumentPreview, error)
    ArtifactPreview(ctx context.Context, id string) (orchestrator.DocumentPreview, error)
    Download(ctx context.Context, id string) (artifact.Artifact, error)
    Export(ctx context.Context, id string) (string, error)
    ExportsEnabled() bool
}

// StatusSource reports dependency health for /status.
type StatusSource interface {
    Summary(ctx context.Context) statuscheck.Summary
}

type Options struct {
    Ops            Operations
    Status         StatusSource
    MaxUploadBytes int64
    Username       string
    PasswordHash   string // bcrypt
    SessionTTL     time.Duration
}

type Web struct {
    tpl          *template.Template
    ops          Operations
    status       StatusSource
    maxUpload    int64
    username     string
    passwordHash []byte

    mu         sync.Mutex
    sessions   map[string]time.Time
    sessionTTL time.Duration
}

func New(opts Options) *Web {
    tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
    if opts.MaxUploadBytes <= 0 {
        opts.MaxUploadBytes = 64 << 20
    }
    if opts.SessionTTL <= 0 {
        opts.SessionTTL = 12 * time.Hour
    }
    return &Web{
        tpl:          tpl,
        ops:          opts.Ops,
        status:       opts.Status,
        maxUpload:    opts.MaxUploadBytes,
        username:     opts.Username,
        passwordHash: []byte(opts.PasswordHash),
        sessions:     map[string]time.Time{},
        sessionTTL:   opts.SessionTTL,
    }
}

// Handler builds the router.
func (w *Web) Handler() http.Handler {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.Recoverer)
    r.Use(requestLogger)

    r.Get("/health", func(wr http.ResponseWriter, r *http.Request) {
        wr.WriteHeader(http.StatusOK)
        _, _ = wr.Write([]byte("ok"))
    })
    r.Handle("/metrics", metrics.Handler())
    r.Get("/login", w.handleLoginPage)
    r.Post("/login", w.handleLogin)
    r.Get("/logout", w.handleLogout)

    r.Group(func(r chi.Router) {
        r.Use(w.requireAuth)
        r.Get("/", w.handleDashboard)
        r.Get("/status", w.handleStatus)
        r.Route("/api", func(r chi.Router) {
            r.Post("/preview", w.handlePreview)
            r.Post("/split", w.handleSplit)
            r.Post("/merge", w.handleMerge)
            r.Get("/artifacts/{id}", w.handleDownload)
            r.Get("/artifacts/{id}/preview", w.handleArtifactPreview)
            r.Post("/artifacts/{id}/export", w.handleExport)
        })
    })
    return r
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
    wr.Header().Set("Content-Type", "text/html; charset=utf-8")
    if err := w.tpl.ExecuteTemplate(wr, name, data); err != nil {
        log.Error().Err(err).Str("template", name).Msg("render failed")
    }
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
    w.render(wr, "dashboard.html", map[string]any{
        "Username":      w.username,
        "AuthEnabled":   w.authEnabled(),
        "MaxUploadMB":   w.maxUpload >> 20,
        "ExportEnabled": w.ops.ExportsEnabled(),
        "DefaultSpan":   selection.DefaultRangeSpan,
    })
}

func (w *Web) handleStatus(wr http.ResponseWriter, r *http.Request) {
    if w.status == nil {
        writeJSON(wr, http.StatusOK, statuscheck.Summary{})
        return
    }
    writeJSON(wr, http.StatusOK, w.status.Summary(r.Context()))
}

func requestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
        ww := middleware.NewWrapResponseWriter(wr, r.ProtoMajor)
        start := time.Now()
        next.ServeHTTP(ww, r)
        if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
            return
        }
        log.Info().
            Str("request_id", middleware.GetReqID(r.Context())).
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", ww.Status()).
            Int("bytes", ww.BytesWritten()).
            Dur("duration", time.Since(start)).
            Msg("http request")
    })
}
