package http

import (
	"net/http"
	"strings"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
)

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	if principalFromContext(r.Context()).Admin {
		result, err := h.service.ListAllManufacturers(r.Context(), page, size)
		if err != nil {
			writeMappedError(r.Context(), w, "list_manufacturers", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	result, err := h.service.ListManufacturers(r.Context(), page, size)
	if err != nil {
		writeMappedError(r.Context(), w, "list_manufacturers", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getManufacturer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "get_manufacturer", err)
		return
	}
	view, err := h.service.GetManufacturer(r.Context(), id, principalFromContext(r.Context()).Admin)
	if err != nil {
		writeMappedError(r.Context(), w, "get_manufacturer", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) createManufacturer(w http.ResponseWriter, r *http.Request) {
	var in application.ManufacturerInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMappedError(r.Context(), w, "create_manufacturer", err)
		return
	}
	view, err := h.service.CreateManufacturer(r.Context(), in)
	if err != nil {
		writeMappedError(r.Context(), w, "create_manufacturer", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) replaceManufacturer(w http.ResponseWriter, r *http.Request) {
	h.updateManufacturer(w, r, false)
}

func (h *Handler) patchManufacturer(w http.ResponseWriter, r *http.Request) {
	h.updateManufacturer(w, r, true)
}

func (h *Handler) updateManufacturer(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "update_manufacturer", err)
		return
	}
	var in application.ManufacturerInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMappedError(r.Context(), w, "update_manufacturer", err)
		return
	}
	view, err := h.service.UpdateManufacturer(r.Context(), id, in, partial)
	if err != nil {
		writeMappedError(r.Context(), w, "update_manufacturer", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteManufacturer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_manufacturer", err)
		return
	}
	if err := h.service.DeleteManufacturer(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_manufacturer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.service.ListDocuments(r.Context(), application.DocumentQuery{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Page:     page,
		PageSize: size,
	}, principalFromContext(r.Context()).Admin)
	if err != nil {
		writeMappedError(r.Context(), w, "list_documents", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "get_document", err)
		return
	}
	view, err := h.service.GetDocument(r.Context(), id, principalFromContext(r.Context()).Admin)
	if err != nil {
		writeMappedError(r.Context(), w, "get_document", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		writeMappedError(r.Context(), w, "upload_document", domain.FieldErrors{"file": {"No file was submitted."}})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxDocumentBytes+multipartSlack)
	if err := r.ParseMultipartForm(multipartSlack); err != nil {
		if isTooLarge(err) {
			writeMappedError(r.Context(), w, "upload_document", domain.FieldErrors{"file": {"File is too large."}})
			return
		}
		writeMappedError(r.Context(), w, "upload_document", domain.ErrInvalidInput)
		return
	}
	defer r.MultipartForm.RemoveAll()

	upload, closeUpload, err := formUpload(r, "file")
	if err != nil {
		writeMappedError(r.Context(), w, "upload_document", domain.ErrInvalidInput)
		return
	}
	defer closeUpload()
	if upload == nil {
		writeMappedError(r.Context(), w, "upload_document", domain.FieldErrors{"file": {"No file was submitted."}})
		return
	}

	view, err := h.service.UploadDocument(r.Context(), application.DocumentUploadRequest{
		FileName:    r.FormValue("file_name"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		File:        *upload,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "upload_document", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "update_document", err)
		return
	}
	var in application.DocumentInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMappedError(r.Context(), w, "update_document", err)
		return
	}
	view, err := h.service.UpdateDocument(r.Context(), id, in)
	if err != nil {
		writeMappedError(r.Context(), w, "update_document", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_document", err)
		return
	}
	if err := h.service.DeleteDocument(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
