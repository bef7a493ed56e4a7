package qrapi

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/payload"
)

// MockMarker is appended to every mock response message.
const MockMarker = "(MOCK)"

// MockQRPrefix starts every mock QR string.
const MockQRPrefix = "00020101021229300012D156000000000510A93FO3230Q31280012"

// mockQRImage is a 1x1 transparent PNG.
const mockQRImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// MockClient answers every call locally with canned responses. It stands in
// for the API when it is unreachable or when running offline.
type MockClient struct {
	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

// Ensure MockClient implements Client.
var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client. The seed fixes the generated
// reference numbers.
func NewMockClient(seed uint64) *MockClient {
	return &MockClient{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:  time.Now,
	}
}

// IsMock reports whether a response message came from a MockClient.
func IsMock(message string) bool {
	return strings.HasSuffix(message, MockMarker)
}

func (m *MockClient) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rand.IntN(n)
}

func (m *MockClient) generate(prefix, message string) *domain.GenerateQRCodeResponse {
	return &domain.GenerateQRCodeResponse{
		ResponseCode:    "200",
		ResponseMessage: message + " " + MockMarker,
		ReferenceNumber: fmt.Sprintf("%s%d", prefix, m.intn(1000000)),
		QRString:        fmt.Sprintf("%s%d", MockQRPrefix, m.intn(10000)),
		QRImage:         mockQRImage,
	}
}

// GenerateStatic returns a mock static QR code.
func (m *MockClient) GenerateStatic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error) {
	return m.generate("REF", "QR Code generated successfully"), nil
}

// GenerateDynamic returns a mock dynamic QR code.
func (m *MockClient) GenerateDynamic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error) {
	return m.generate("DYN", "Dynamic QR Code generated successfully"), nil
}

// Verify reports every QR string as valid and returns sample decoded data.
func (m *MockClient) Verify(ctx context.Context, req *domain.VerifyQRCodeRequest) (*domain.VerifyQRCodeResponse, error) {
	data := payload.NewObject()
	data.SetString("amount", "100.00")
	data.SetString("currency", "USD")
	data.SetString("merchantId", "MERCH12345")
	data.SetString("referenceNumber", fmt.Sprintf("REF%d", m.intn(1000000)))
	data.SetString("timestamp", m.now().UTC().Format(time.RFC3339))

	return &domain.VerifyQRCodeResponse{
		ResponseCode:     "200",
		ResponseMessage:  "QR Code verified successfully " + MockMarker,
		IsValid:          true,
		Data:             data,
		RequestMessageID: req.RequestMessageID,
	}, nil
}

// PaymentCallback acknowledges the callback.
func (m *MockClient) PaymentCallback(ctx context.Context, req *domain.PaymentCallbackRequest) (*domain.PaymentCallbackResponse, error) {
	now := m.now().UTC()
	return &domain.PaymentCallbackResponse{
		ResponseCode:     "200",
		ResponseMessage:  "Payment callback processed successfully " + MockMarker,
		RequestMessageID: req.RequestMessageID,
		ResponseDateTime: &now,
	}, nil
}
