package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// RequestObserver records request latency by route pattern.
type RequestObserver interface {
	ObserveRequest(method, route, status string, seconds float64)
}

type Options struct {
	// PublicBaseURL is the scheme and host emailed links are built on. Empty derives it from the request.
	PublicBaseURL string
	// TrustProxyHeaders honours X-Forwarded-For and X-Forwarded-Proto.
	TrustProxyHeaders bool
	// MaxDocumentBytes caps admin document uploads.
	MaxDocumentBytes int64
	Readiness        map[string]ReadinessCheck
	MetricsHandler   http.Handler
	Observer         RequestObserver
	// Media serves stored objects under /media/ when set.
	Media ports.ObjectStore
}

// Handler adapts application.Service to HTTP.
type Handler struct {
	service *application.Service
	opts    Options
}

func NewHandler(service *application.Service, opts Options) *Handler {
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = 50 << 20
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Handler{service: service, opts: opts}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(appendSlashMiddleware)

	publicRead := h.require(application.CapabilityPublicRead)
	publicWrite := h.require(application.CapabilityPublicWrite)
	adminRead := h.require(application.CapabilityAdminRead)
	adminWrite := h.require(application.CapabilityAdminWrite)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	if h.opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.MetricsHandler)
	}
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})
	r.Get("/swagger/", h.swaggerUI)
	r.Get("/swagger/openapi.yaml", h.swaggerSpec)
	if h.opts.Media != nil {
		r.Get("/media/*", h.media)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/token/", h.login)
		r.Get("/token/jwks/", h.jwks)
		r.Post("/token/refresh/", h.refresh)
		r.With(adminWrite).Post("/token/logout/", h.logout)

		r.Route("/investor", func(r chi.Router) {
			r.With(publicWrite).Post("/request-download/", h.requestInvestorDownload)
			r.With(publicRead).Get("/download/{secret}/", h.downloadInvestorDocument)
			r.With(adminRead).Get("/tokens/", h.listDownloadTokens)
		})

		r.Route("/leads", func(r chi.Router) {
			r.With(publicWrite).Post("/", h.submitLead)
			r.With(adminRead).Get("/", h.listLeads)
			r.With(adminRead).Get("/export_csv/", h.exportLeads)
			r.With(adminRead).Get("/{id}/", h.getLead)
			r.With(adminWrite).Delete("/{id}/", h.deleteLead)
		})

		r.Route("/rfq", func(r chi.Router) {
			r.With(publicWrite).Post("/", h.submitRFQ)
			r.With(adminRead).Get("/", h.listRFQs)
			r.With(adminRead).Get("/export_csv/", h.exportRFQs)
			r.With(adminRead).Get("/{id}/", h.getRFQ)
			r.With(adminWrite).Delete("/{id}/", h.deleteRFQ)
		})

		r.Route("/manufacturers", func(r chi.Router) {
			r.With(publicRead).Get("/", h.listManufacturers)
			r.With(publicRead).Get("/{id}/", h.getManufacturer)
			r.With(adminWrite).Post("/", h.createManufacturer)
			r.With(adminWrite).Put("/{id}/", h.replaceManufacturer)
			r.With(adminWrite).Patch("/{id}/", h.patchManufacturer)
			r.With(adminWrite).Delete("/{id}/", h.deleteManufacturer)
		})

		r.Route("/documents", func(r chi.Router) {
			r.With(publicRead).Get("/", h.listDocuments)
			r.With(publicRead).Get("/{id}/", h.getDocument)
			r.With(adminWrite).Post("/", h.uploadDocument)
			r.With(adminWrite).Patch("/{id}/", h.updateDocument)
			r.With(adminWrite).Put("/{id}/", h.updateDocument)
			r.With(adminWrite).Delete("/{id}/", h.deleteDocument)
		})

		r.Route("/content", func(r chi.Router) {
			r.With(publicRead).Get("/", h.listContentBlocks)
			r.With(adminWrite).Post("/", h.createContentBlock)
			r.With(adminWrite).Post("/reorder/", h.reorderContentBlocks)
			r.With(publicRead).Get("/{slug}/", h.getContentBlock)
			r.With(adminWrite).Put("/{slug}/", h.replaceContentBlock)
			r.With(adminWrite).Patch("/{slug}/", h.patchContentBlock)
			r.With(adminWrite).Delete("/{slug}/", h.deleteContentBlock)
		})
	})

	return r
}
