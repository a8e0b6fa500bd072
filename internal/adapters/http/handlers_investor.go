package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
)

const (
	msgInvestorRateLimited = "Too many requests. Please try again later."
	msgInvestorMailFailed  = "Failed to send email. Please try again later."
	msgInvestorNoDocument  = "No investor documents available"
	msgInvestorInvalidLink = "Invalid download link"
	msgInvestorExpired     = "This download link has expired or reached its maximum usage limit"
	msgInvestorRetrieval   = "Failed to retrieve document"
	msgInvestorIssuance    = "Failed to process download request. Please try again later."
)

func (h *Handler) requestInvestorDownload(w http.ResponseWriter, r *http.Request) {
	var req application.InvestorDownloadRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.FieldErrors{"non_field_errors": {"Invalid request body."}})
		return
	}
	req.IPAddress = h.clientIP(r)
	req.BaseURL = h.baseURL(r)

	resp, err := h.service.RequestInvestorDownload(r.Context(), req)
	if err != nil {
		h.writeInvestorFailure(r.Context(), w, "request_investor_download", msgInvestorIssuance, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) downloadInvestorDocument(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.service.RedeemDownloadToken(r.Context(), chi.URLParam(r, "secret"))
	if err != nil {
		h.writeInvestorFailure(r.Context(), w, "redeem_download_token", msgInvestorRetrieval, err)
		return
	}
	defer artifact.Body.Close()

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachmentDisposition(artifact.FileName))
	w.Header().Set("Cache-Control", "no-store")
	if artifact.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, artifact.Body); err != nil {
		httpLogger().WarnContext(r.Context(), "investor download interrupted",
			"operation", "redeem_download_token",
			"outcome", "failure",
			"usage_count", artifact.UsageCount,
			"error", err.Error(),
		)
	}
}

func (h *Handler) listDownloadTokens(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.service.ListDownloadTokens(r.Context(), page, size)
	if err != nil {
		writeMappedError(r.Context(), w, "list_download_tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeInvestorFailure answers with fallback when err maps to no specific investor message.
func (h *Handler) writeInvestorFailure(ctx context.Context, w http.ResponseWriter, operation, fallback string, err error) {
	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		logHTTPOperationError(ctx, operation, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err)
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	status, message := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, msgInvestorRateLimited
	case errors.Is(err, domain.ErrDeliveryFailed):
		message = msgInvestorMailFailed
	case errors.Is(err, domain.ErrNoArtifact):
		status, message = http.StatusNotFound, msgInvestorNoDocument
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, msgInvestorInvalidLink
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, msgInvestorExpired
	}
	logHTTPOperationError(ctx, operation, status, fmt.Sprintf("HTTP_%d", status), message, err)
	writeInvestorError(w, status, message)
}

// attachmentDisposition always quotes filename; non-ASCII names also get an RFC 5987 filename*.
func attachmentDisposition(name string) string {
	var fallback strings.Builder
	ascii := true
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			fallback.WriteByte('\\')
			fallback.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fallback.WriteByte('_')
		case r > 0x7e:
			ascii = false
			fallback.WriteByte('_')
		default:
			fallback.WriteRune(r)
		}
	}
	out := `attachment; filename="` + fallback.String() + `"`
	if !ascii {
		extended := mime.FormatMediaType("attachment", map[string]string{"filename": name})
		out += "; " + strings.TrimPrefix(extended, "attachment; ")
	}
	return out
}
