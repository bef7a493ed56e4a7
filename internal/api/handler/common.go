package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/qrapi"
	"github.com/bcnelson/qr-template-studio/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondStandardError writes a StandardErrorResponse.
func respondStandardError(w http.ResponseWriter, status int, code, message, field string, details map[string]any) {
	respondJSON(w, status, &domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    code,
			Message: message,
			Field:   field,
			Details: details,
		},
	})
}

// respondValidationErrors writes a 400 listing every failed field.
func respondValidationErrors(w http.ResponseWriter, errs validation.ValidationErrors) {
	field := ""
	if len(errs) == 1 {
		field = errs[0].Field
	}
	respondStandardError(w, http.StatusBadRequest, domain.ErrCodeValidationError, errs.Error(), field,
		map[string]any{"errors": errs})
}

// handleError converts domain errors to HTTP errors. Unexpected errors are
// logged with a reference that is also returned to the caller.
func handleError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	var verrs validation.ValidationErrors
	var verr *validation.ValidationError
	var statusErr *qrapi.StatusError

	switch {
	case errors.As(err, &verrs):
		respondValidationErrors(w, verrs)
	case errors.As(err, &verr):
		respondValidationErrors(w, validation.ValidationErrors{verr})
	case errors.Is(err, domain.ErrNotFound):
		respondStandardError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, err.Error(), "", nil)
	case errors.Is(err, domain.ErrAlreadyExists):
		respondStandardError(w, http.StatusConflict, domain.ErrCodeResourceAlreadyExists, err.Error(), "", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		respondStandardError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error(), "", nil)
	case errors.Is(err, domain.ErrPreconditionFailed):
		respondStandardError(w, http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed,
			"resource has been modified", "", nil)
	case errors.Is(err, domain.ErrCyclicTemplate):
		respondStandardError(w, http.StatusUnprocessableEntity, domain.ErrCodeCyclicTemplate, err.Error(), "", nil)
	case errors.Is(err, domain.ErrRemoteUnavailable):
		logger.WithError(err).Warn("QR API unavailable")
		respondStandardError(w, http.StatusServiceUnavailable, domain.ErrCodeRemoteUnavailable, err.Error(), "", nil)
	case errors.As(err, &statusErr):
		respondStandardError(w, http.StatusBadGateway, domain.ErrCodeRemoteUnavailable, statusErr.Error(), "",
			map[string]any{"status": statusErr.StatusCode})
	default:
		ref := time.Now().Unix()
		logger.WithError(err).WithField("ref", ref).Error("Request failed")
		respondStandardError(w, http.StatusInternalServerError, domain.ErrCodeInternalError,
			fmt.Sprintf("%s - ref (%d)", http.StatusText(http.StatusInternalServerError), ref), "", nil)
	}
}

// decodeJSON decodes JSON from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// int64Param reads a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.NewValidationError(name, raw, "must be a positive integer")
	}
	return id, nil
}
