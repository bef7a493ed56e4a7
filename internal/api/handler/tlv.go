package handler

import (
	"net/http"

	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/sirupsen/logrus"
)

// ParseTLVRequest is the request body for POST /tlv/parse.
type ParseTLVRequest struct {
	QRString string `json:"qrString"`
}

// TLVHandler structures raw payload strings.
type TLVHandler struct {
	svc    *service.TemplateService
	logger logrus.FieldLogger
}

// NewTLVHandler creates a new TLVHandler.
func NewTLVHandler(svc *service.TemplateService, logger logrus.FieldLogger) *TLVHandler {
	return &TLVHandler{svc: svc, logger: logger}
}

// Parse returns the TLV tree of a payload string. Input that is not a JSON
// object or list still succeeds and yields the example tree.
func (h *TLVHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseTLVRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, h.svc.ParseTLV(req.QRString))
}
