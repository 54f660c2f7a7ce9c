package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/ratelimit"

	"github.com/ecologia-integral/ecosite/internal/admin"
	"github.com/ecologia-integral/ecosite/internal/auth"
	"github.com/ecologia-integral/ecosite/internal/blobstore"
	"github.com/ecologia-integral/ecosite/internal/content"
	"github.com/ecologia-integral/ecosite/internal/service"
)

// Options carries the collaborators of a Server. Media may be nil when blobs
// are served from elsewhere; MediaOrigin is then that origin.
type Options struct {
	Site          *content.Site
	Reviews       *service.ReviewService
	Gallery       *service.GalleryService
	Auth          *auth.Authenticator
	Media         blobstore.Opener
	MediaOrigin   string
	Templates     embed.FS
	Static        fs.FS
	SecureCookies bool
	Logger        *slog.Logger
}

type Server struct {
	site          *content.Site
	reviews       *service.ReviewService
	gallery       *service.GalleryService
	auth          *auth.Authenticator
	media         blobstore.Opener
	templates     embed.FS
	static        fs.FS
	secureCookies bool
	csp           string
	loginLimiter  ratelimit.Limiter
	mux           *http.ServeMux
	tmplFuncs     template.FuncMap
	logger        *slog.Logger

	mu          sync.Mutex
	controllers map[string]*admin.Controller
}

// loginRate bounds password checks per second across all clients.
const loginRate = 5

func NewServer(opts Options) *Server {
	s := &Server{
		site:          opts.Site,
		reviews:       opts.Reviews,
		gallery:       opts.Gallery,
		auth:          opts.Auth,
		media:         opts.Media,
		templates:     opts.Templates,
		static:        opts.Static,
		secureCookies: opts.SecureCookies,
		csp:           contentSecurityPolicy(opts.Site.FrameOrigin(), opts.MediaOrigin),
		loginLimiter:  ratelimit.New(loginRate),
		mux:           http.NewServeMux(),
		logger:        opts.Logger,
		controllers:   make(map[string]*admin.Controller),
		tmplFuncs: template.FuncMap{
			"stars": stars,
			"date":  func(t time.Time) string { return t.Local().Format("02/01/2006") },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("POST /reviews", s.handleSubmitReview)
	s.mux.HandleFunc("GET /carousel", s.handleCarousel)
	s.mux.HandleFunc("GET /gallery", s.handleGallery)
	s.mux.HandleFunc("GET /media/{key}", s.handleMedia)
	if s.static != nil {
		s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	}

	s.mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	s.mux.HandleFunc("POST /admin/login", s.handleLogin)
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)
	s.mux.HandleFunc("GET /admin", s.withController(s.handleAdmin))
	s.mux.HandleFunc("GET /admin/reviews", s.withController(s.handleReviewsPanel))
	s.mux.HandleFunc("POST /admin/reviews/{id}/approve", s.withController(s.handleModerate((*admin.Controller).Approve, "Avaliação aprovada com sucesso.")))
	s.mux.HandleFunc("POST /admin/reviews/{id}/reject", s.withController(s.handleModerate((*admin.Controller).Reject, "Avaliação rejeitada com sucesso.")))
	s.mux.HandleFunc("POST /admin/reviews/{id}/unset", s.withController(s.handleModerate((*admin.Controller).Unset, "Avaliação removida da aprovação com sucesso.")))
	s.mux.HandleFunc("POST /admin/reviews/{id}/comment", s.withController(s.handleEditComment))
	s.mux.HandleFunc("DELETE /admin/reviews/{id}", s.withController(s.handleDeleteReview))
	s.mux.HandleFunc("GET /admin/gallery", s.withController(s.handleGalleryPanel))
	s.mux.HandleFunc("POST /admin/gallery", s.withController(s.handleUpload))
	s.mux.HandleFunc("POST /admin/gallery/reorder", s.withController(s.handleReorder))
	s.mux.HandleFunc("POST /admin/gallery/{id}/caption", s.withController(s.handleCaption))
	s.mux.HandleFunc("DELETE /admin/gallery/{id}", s.withController(s.handleDeleteItem))
}

func contentSecurityPolicy(frameOrigin, mediaOrigin string) string {
	media := "'self'"
	if mediaOrigin != "" {
		media += " " + mediaOrigin
	}
	frame := "'none'"
	if frameOrigin != "" {
		frame = frameOrigin
	}
	return "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
		"font-src https://fonts.gstatic.com; " +
		"img-src " + media + " data:; " +
		"media-src " + media + "; " +
		"frame-src " + frame + "; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none'"
}

// securityHeaders sets the browser security headers and the CSP on every response.
func securityHeaders(csp string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", csp)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.csp, s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// renderPage parses a full-page template set and executes "base".
func (s *Server) renderPage(w http.ResponseWriter, status int, data any, files ...string) error {
	return s.render(w, status, "base", data, files...)
}

// renderPartial parses files and executes the named {{define}} block.
func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data any, files ...string) error {
	return s.render(w, status, name, data, files...)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// stars renders a 1..5 rating as filled and empty stars.
func stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+label, "error", err)
	}
}
