package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/generator"
	"github.com/bcnelson/qr-template-studio/internal/qrapi"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/bcnelson/qr-template-studio/internal/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GenerateResult is a generate response with the TLV view of its QR string.
type GenerateResult struct {
	*domain.GenerateQRCodeResponse
	TLV  tlv.Result `json:"tlv"`
	Mock bool       `json:"mock"`
}

// VerifyResult is a verify response with the TLV view of its decoded data.
type VerifyResult struct {
	*domain.VerifyQRCodeResponse
	TLV  tlv.Result `json:"tlv"`
	Mock bool       `json:"mock"`
}

// CallbackResult is a payment callback response.
type CallbackResult struct {
	*domain.PaymentCallbackResponse
	Mock bool `json:"mock"`
}

// QRService forwards QR requests to the remote API. When a fallback client
// is configured, any failure of the remote call is answered by the fallback
// instead.
type QRService struct {
	client    qrapi.Client
	fallback  qrapi.Client
	templates *TemplateService
	logger    logrus.FieldLogger

	newID func() string
	now   func() time.Time
}

// NewQRService creates a new QRService. fallback may be nil.
func NewQRService(client, fallback qrapi.Client, templates *TemplateService, logger logrus.FieldLogger) *QRService {
	return &QRService{
		client:    client,
		fallback:  fallback,
		templates: templates,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

// GenerateStatic requests a static QR code.
func (s *QRService) GenerateStatic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*GenerateResult, error) {
	return s.generate(ctx, "generate-static", req, qrapi.Client.GenerateStatic)
}

// GenerateDynamic requests a dynamic QR code.
func (s *QRService) GenerateDynamic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*GenerateResult, error) {
	return s.generate(ctx, "generate-dynamic", req, qrapi.Client.GenerateDynamic)
}

type generateFunc func(qrapi.Client, context.Context, *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error)

// generate fills the journey and data from the template when the request
// leaves them empty.
func (s *QRService) generate(ctx context.Context, op string, req *domain.GenerateQRCodeRequest, call generateFunc) (*GenerateResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	out := *req
	if out.TemplateID != 0 && (out.Journey == "" || out.Data == nil) {
		t, err := s.templates.GetTemplate(ctx, out.TemplateID)
		if err != nil {
			return nil, err
		}
		if out.Journey == "" {
			out.Journey = t.JourneyID
		}
		if out.Data == nil {
			data, err := generator.Generate(t)
			if err != nil {
				return nil, fmt.Errorf("template %d: %w", t.ID, err)
			}
			out.Data = data
		}
	}

	resp, err := call(s.client, ctx, &out)
	mock := false
	if err != nil {
		if !s.shouldFallback(ctx, op, err) {
			return nil, err
		}
		if resp, err = call(s.fallback, ctx, &out); err != nil {
			return nil, err
		}
		mock = true
	}
	return &GenerateResult{GenerateQRCodeResponse: resp, TLV: tlv.Parse(resp.QRString), Mock: mock}, nil
}

// Verify asks the API to validate a QR string. requestMessageId and
// requestDateTime default to a fresh UUID and the current time.
func (s *QRService) Verify(ctx context.Context, req *domain.VerifyQRCodeRequest) (*VerifyResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	out := *req
	if out.RequestMessageID == "" {
		out.RequestMessageID = s.newID()
	}
	if out.RequestDateTime == "" {
		out.RequestDateTime = s.now().UTC().Format(time.RFC3339)
	}

	resp, err := s.client.Verify(ctx, &out)
	mock := false
	if err != nil {
		if !s.shouldFallback(ctx, "verify", err) {
			return nil, err
		}
		if resp, err = s.fallback.Verify(ctx, &out); err != nil {
			return nil, err
		}
		mock = true
	}

	result := &VerifyResult{VerifyQRCodeResponse: resp, Mock: mock}
	if resp.Data != nil {
		result.TLV = tlv.Result{Nodes: tlv.Build(resp.Data)}
	} else {
		result.TLV = tlv.Parse(out.QRString)
	}
	return result, nil
}

// PaymentCallback reports a completed payment.
func (s *QRService) PaymentCallback(ctx context.Context, req *domain.PaymentCallbackRequest) (*CallbackResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	resp, err := s.client.PaymentCallback(ctx, req)
	if err == nil {
		return &CallbackResult{PaymentCallbackResponse: resp}, nil
	}
	if !s.shouldFallback(ctx, "payment-callback", err) {
		return nil, err
	}
	resp, err = s.fallback.PaymentCallback(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{PaymentCallbackResponse: resp, Mock: true}, nil
}

func (s *QRService) shouldFallback(ctx context.Context, op string, err error) bool {
	if s.fallback == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return false
	}
	s.logger.WithError(err).WithField("operation", op).Warn("QR API call failed, using mock response")
	return true
}
