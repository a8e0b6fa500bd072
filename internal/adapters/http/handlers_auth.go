package http

import (
	"net/http"

	"github.com/nodrystarts/site-backend/internal/application"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	req.IPAddress = h.clientIP(r)
	req.UserAgent = r.UserAgent()
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req application.RefreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMappedError(r.Context(), w, "refresh", err)
		return
	}
	resp, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeMappedError(r.Context(), w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "logout")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) jwks(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.PublicJWKs()
	if err != nil {
		writeMappedError(r.Context(), w, "jwks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}
