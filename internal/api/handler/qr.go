package handler

import (
	"net/http"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/sirupsen/logrus"
)

// QRHandler forwards QR requests to the remote API.
type QRHandler struct {
	svc    *service.QRService
	logger logrus.FieldLogger
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(svc *service.QRService, logger logrus.FieldLogger) *QRHandler {
	return &QRHandler{svc: svc, logger: logger}
}

// GenerateStatic handles POST /qr/generate-static.
func (h *QRHandler) GenerateStatic(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateQRCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	res, err := h.svc.GenerateStatic(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GenerateDynamic handles POST /qr/generate-dynamic.
func (h *QRHandler) GenerateDynamic(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateQRCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	res, err := h.svc.GenerateDynamic(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Verify handles POST /qr/verify.
func (h *QRHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyQRCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	res, err := h.svc.Verify(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// PaymentCallback handles POST /qr/payment-callback.
func (h *QRHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentCallbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	res, err := h.svc.PaymentCallback(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
