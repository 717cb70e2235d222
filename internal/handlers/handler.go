package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/csg33k/fuel-receipts/internal/composer"
	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/ports"
	"github.com/csg33k/fuel-receipts/internal/templates"
)

type Handler struct {
	composer  *composer.Composer
	companies ports.CompanyDirectory
	catalog   ports.MerchantCatalog
	files     ports.DocumentStore
	// encoders[0] is the default download format.
	encoders []ports.DocumentEncoder
	baseURL  string
	health   func(context.Context) error
	limiter  *rate.Limiter
	log      *slog.Logger
}

type Option func(*Handler)

// WithBaseURL prefixes download links.
func WithBaseURL(u string) Option { return func(h *Handler) { h.baseURL = u } }

// WithHealthCheck runs check on every /healthz request.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(h *Handler) { h.health = check }
}

// WithRateLimit caps receipt generation at rps requests per second across
// all clients. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		if rps > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

func WithLogger(l *slog.Logger) Option { return func(h *Handler) { h.log = l } }

func New(c *composer.Composer, companies ports.CompanyDirectory, catalog ports.MerchantCatalog,
	files ports.DocumentStore, encoders []ports.DocumentEncoder, opts ...Option) *Handler {
	if len(encoders) == 0 {
		panic("handlers: at least one document encoder is required")
	}
	h := &Handler{
		composer:  c,
		companies: companies,
		catalog:   catalog,
		files:     files,
		encoders:  encoders,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("POST /api/generate-receipt", h.limit(http.HandlerFunc(h.generateReceipt)))
	mux.HandleFunc("GET /api/profile", h.profile)
	mux.HandleFunc("POST /api/preview", h.preview)
	mux.HandleFunc("GET /api/companies", h.listCompanies)
	mux.HandleFunc("GET /api/companies/{id}/stores", h.listStores)
	mux.HandleFunc("GET /receipts/{fileName}", h.download)
	return h.logRequests(mux)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.ListCompanies(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	fields := slices.DeleteFunc(domain.Fields(), func(f domain.Field) bool {
		return f == domain.FieldItemQuantity
	})
	render(w, r, templates.Index(templates.IndexData{
		Companies: companies,
		Countries: domain.Jurisdictions(),
		Tenders:   domain.TenderTypes(),
		Items:     h.catalog.ItemsFor(h.catalog.Generic()),
		Fields:    fields,
	}))
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Error("health check failed", "err", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

// download streams a stored receipt as an attachment.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("fileName")
	rc, err := h.files.Open(r.Context(), name)
	if errors.Is(err, domain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", h.contentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("download interrupted", "file", name, "err", err)
	}
}

func (h *Handler) contentType(name string) string {
	ext := filepath.Ext(name)
	for _, e := range h.encoders {
		if e.Extension() == ext {
			return e.ContentType()
		}
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// encoder picks the encoder for a requested format ("pdf", ".txt"); empty
// selects the default.
func (h *Handler) encoder(format string) (ports.DocumentEncoder, bool) {
	if format == "" {
		return h.encoders[0], true
	}
	if format[0] != '.' {
		format = "." + format
	}
	for _, e := range h.encoders {
		if e.Extension() == format {
			return e, true
		}
	}
	return nil, false
}

// ── Middleware ───────────────────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests tags each request with an id and logs it once served.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		h.log.Info("request", "id", id, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// limit rejects requests beyond the configured rate with 429.
func (h *Handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, receiptResponse{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.PathValue(key), 10, 64)
}
