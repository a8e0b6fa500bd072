package http

import (
	"net/http"
	"strings"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
)

// multipartSlack covers form fields and boundaries around the attachment itself.
const multipartSlack = 1 << 20

func (h *Handler) submitLead(w http.ResponseWriter, r *http.Request) {
	var req application.LeadRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMappedError(r.Context(), w, "submit_lead", err)
		return
	}
	req.IPAddress = h.clientIP(r)
	view, err := h.service.SubmitLead(r.Context(), req, idempotencyKey(r))
	if err != nil {
		writeMappedError(r.Context(), w, "submit_lead", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.service.ListLeads(r.Context(), application.LeadQuery{
		InquiryType: strings.TrimSpace(r.URL.Query().Get("inquiry_type")),
		Page:        page,
		PageSize:    size,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_leads", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "get_lead", err)
		return
	}
	view, err := h.service.GetLead(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_lead", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_lead", err)
		return
	}
	if err := h.service.DeleteLead(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_lead", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportLeads(w http.ResponseWriter, r *http.Request) {
	writeCSVHeaders(w, "leads_export.csv")
	if err := h.service.ExportLeadsCSV(r.Context(), w); err != nil {
		logHTTPOperationError(r.Context(), "export_leads", http.StatusInternalServerError, "INTERNAL_ERROR", "export aborted", err)
	}
}

func (h *Handler) submitRFQ(w http.ResponseWriter, r *http.Request) {
	var req application.RFQRequest
	if isMultipart(r) {
		limit := h.service.Config().MaxAttachmentBytes + multipartSlack
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(multipartSlack); err != nil {
			if isTooLarge(err) {
				writeMappedError(r.Context(), w, "submit_rfq", domain.FieldErrors{
					"attachment": {application.AttachmentTooLargeMessage(h.service.Config().MaxAttachmentBytes)},
				})
				return
			}
			writeMappedError(r.Context(), w, "submit_rfq", domain.ErrInvalidInput)
			return
		}
		defer r.MultipartForm.RemoveAll()
		req = application.RFQRequest{
			FullName: r.FormValue("full_name"),
			Email:    r.FormValue("email"),
			Phone:    r.FormValue("phone"),
			Company:  r.FormValue("company"),
			Message:  r.FormValue("message"),
		}
		upload, closeUpload, err := formUpload(r, "attachment")
		if err != nil {
			writeMappedError(r.Context(), w, "submit_rfq", domain.ErrInvalidInput)
			return
		}
		defer closeUpload()
		req.Attachment = upload
	} else if err := decodeBody(w, r, &req); err != nil {
		writeMappedError(r.Context(), w, "submit_rfq", err)
		return
	}
	req.IPAddress = h.clientIP(r)

	view, err := h.service.SubmitRFQ(r.Context(), req, idempotencyKey(r))
	if err != nil {
		writeMappedError(r.Context(), w, "submit_rfq", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) listRFQs(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.service.ListRFQs(r.Context(), page, size)
	if err != nil {
		writeMappedError(r.Context(), w, "list_rfqs", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getRFQ(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "get_rfq", err)
		return
	}
	view, err := h.service.GetRFQ(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_rfq", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteRFQ(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_rfq", err)
		return
	}
	if err := h.service.DeleteRFQ(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_rfq", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportRFQs(w http.ResponseWriter, r *http.Request) {
	writeCSVHeaders(w, "rfq_submissions_export.csv")
	if err := h.service.ExportRFQsCSV(r.Context(), w); err != nil {
		logHTTPOperationError(r.Context(), "export_rfqs", http.StatusInternalServerError, "INTERNAL_ERROR", "export aborted", err)
	}
}

func writeCSVHeaders(w http.ResponseWriter, fileName string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
}
