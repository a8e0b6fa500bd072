package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nodrystarts/site-backend/internal/application"
)

func (h *Handler) listContentBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.service.ListContentBlocks(r.Context(), strings.TrimSpace(r.URL.Query().Get("page")))
	if err != nil {
		writeMappedError(r.Context(), w, "list_content_blocks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(blocks),
		"results": blocks,
	})
}

func (h *Handler) getContentBlock(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetContentBlock(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_content_block", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) createContentBlock(w http.ResponseWriter, r *http.Request) {
	var in application.ContentBlockInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMappedError(r.Context(), w, "create_content_block", err)
		return
	}
	view, err := h.service.CreateContentBlock(r.Context(), in)
	if err != nil {
		writeMappedError(r.Context(), w, "create_content_block", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) replaceContentBlock(w http.ResponseWriter, r *http.Request) {
	h.updateContentBlock(w, r, false)
}

func (h *Handler) patchContentBlock(w http.ResponseWriter, r *http.Request) {
	h.updateContentBlock(w, r, true)
}

func (h *Handler) updateContentBlock(w http.ResponseWriter, r *http.Request, partial bool) {
	var in application.ContentBlockInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMappedError(r.Context(), w, "update_content_block", err)
		return
	}
	view, err := h.service.UpdateContentBlock(r.Context(), chi.URLParam(r, "slug"), in, partial)
	if err != nil {
		writeMappedError(r.Context(), w, "update_content_block", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteContentBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteContentBlock(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeMappedError(r.Context(), w, "delete_content_block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorderContentBlocks(w http.ResponseWriter, r *http.Request) {
	var req application.ReorderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMappedError(r.Context(), w, "reorder_content_blocks", err)
		return
	}
	resp, err := h.service.ReorderContentBlocks(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "reorder_content_blocks", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
