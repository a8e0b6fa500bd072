package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nodrystarts/site-backend/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.opts.Readiness))
	for name := range h.opts.Readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		if err := h.opts.Readiness[name](ctx); err != nil {
			ready = false
			checks[name] = err.Error()
			logHTTPOperationError(r.Context(), "readiness_check", http.StatusServiceUnavailable, "NOT_READY", name, err)
			continue
		}
		checks[name] = "ok"
	}
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error",
			"code":   "NOT_READY",
			"checks": checks,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

// media serves stored objects. Public documents are open, gated documents are only
// reachable through a download token, anything else needs an admin.
func (h *Handler) media(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if key == "" || key == "." {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	gatedPrefix := "documents/" + string(h.service.Config().ArtifactCategoryDefault) + "/"
	switch {
	case strings.HasPrefix(key, gatedPrefix):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	case strings.HasPrefix(key, "documents/"):
	default:
		raw, _ := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if _, err := h.service.ResolvePrincipal(r.Context(), application.CapabilityAdminRead, raw); err != nil {
			writeMappedError(r.Context(), w, "serve_media", err)
			return
		}
	}

	body, err := h.opts.Media.Open(r.Context(), key)
	if err != nil {
		writeMappedError(r.Context(), w, "serve_media", err)
		return
	}
	defer body.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), time.Time{}, rs)
		return
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil && !errors.Is(err, context.Canceled) {
		httpLogger().WarnContext(r.Context(), "media stream interrupted",
			"operation", "serve_media",
			"outcome", "failure",
			"key", key,
			"error", err.Error(),
		)
	}
}
