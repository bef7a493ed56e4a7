package domain

import (
	"time"

	"github.com/bcnelson/qr-template-studio/internal/payload"
)

// GenerateQRCodeRequest is sent to the generate-static and generate-dynamic
// endpoints of the QR API.
type GenerateQRCodeRequest struct {
	TemplateID     int64           `json:"templateId" validate:"gte=0"`
	Journey        string          `json:"journey" validate:"omitempty,journey"`
	Data           *payload.Object `json:"data"`
	ChannelID      *int            `json:"channelId,omitempty"`
	ResponseFormat string          `json:"responseFormat,omitempty" validate:"omitempty,oneof=image pdf"`
	RequestType    string          `json:"requestType,omitempty"`
}

// GenerateQRCodeResponse is returned by the generate endpoints.
type GenerateQRCodeResponse struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	QRString        string `json:"qrString,omitempty"`
	QRImage         string `json:"qrImage,omitempty"`
	Format          string `json:"format,omitempty"`
	Size            int    `json:"size,omitempty"`
}

// VerifyQRCodeRequest is sent to the verify endpoint.
type VerifyQRCodeRequest struct {
	QRString         string `json:"qrString" validate:"required"`
	RequestMessageID string `json:"requestMessageId"`
	RequestDateTime  string `json:"requestDateTime"`
	RequestType      string `json:"requestType"`
	ChannelID        string `json:"channelId"`
}

// VerifyQRCodeResponse is returned by the verify endpoint.
type VerifyQRCodeResponse struct {
	ResponseCode     string            `json:"responseCode"`
	ResponseMessage  string            `json:"responseMessage"`
	Data             *payload.Object   `json:"data,omitempty"`
	IsValid          bool              `json:"isValid"`
	RequestMessageID string            `json:"requestMessageId,omitempty"`
	ValidationStatus string            `json:"validationStatus,omitempty"`
	PaymentRouting   map[string]string `json:"paymentRouting,omitempty"`
}

// PaymentCallbackRequest is sent to the payment-callback endpoint.
type PaymentCallbackRequest struct {
	ReferenceNumber  string `json:"referenceNumber" validate:"required"`
	PaymentRef       string `json:"paymentRef" validate:"required"`
	RequestMessageID string `json:"requestMessageId,omitempty"`
}

// PaymentCallbackResponse is returned by the payment-callback endpoint.
type PaymentCallbackResponse struct {
	ResponseCode     string     `json:"responseCode"`
	ResponseMessage  string     `json:"responseMessage"`
	RequestMessageID string     `json:"requestMessageId,omitempty"`
	ResponseDateTime *time.Time `json:"responseDateTime,omitempty"`
}
