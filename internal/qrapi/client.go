// Package qrapi talks to the remote QR generation and verification API.
package qrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the QR API root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api/v1.0/qrcode"

// Remote endpoints, relative to the base URL.
const (
	EndpointGenerateStatic  = "/generate-static"
	EndpointGenerateDynamic = "/generate-dynamic"
	EndpointVerify          = "/verify"
	EndpointPaymentCallback = "/payment-callback"
)

const maxResponseBytes = 4 << 20

// Client defines the calls offered by the QR API.
type Client interface {
	GenerateStatic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error)
	GenerateDynamic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error)
	Verify(ctx context.Context, req *domain.VerifyQRCodeRequest) (*domain.VerifyQRCodeResponse, error)
	PaymentCallback(ctx context.Context, req *domain.PaymentCallbackRequest) (*domain.PaymentCallbackResponse, error)
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: %s", e.Status)
	}
	return fmt.Sprintf("API error: %s: %s", e.Status, e.Body)
}

// HTTPClient calls the QR API over HTTP. Transport failures and 5xx answers
// are retried with exponential backoff; both surface as
// domain.ErrRemoteUnavailable once retries are exhausted.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	retries    uint64
	backoff    time.Duration
	logger     logrus.FieldLogger
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a failed call is retried.
func WithRetries(n uint64) Option {
	return func(c *HTTPClient) { c.retries = n }
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *HTTPClient) { c.backoff = d }
}

// WithLogger sets the logger used to report retries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient creates a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retries:    2,
		backoff:    200 * time.Millisecond,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateStatic requests a static QR code.
func (c *HTTPClient) GenerateStatic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error) {
	var resp domain.GenerateQRCodeResponse
	if err := c.post(ctx, EndpointGenerateStatic, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateDynamic requests a dynamic QR code.
func (c *HTTPClient) GenerateDynamic(ctx context.Context, req *domain.GenerateQRCodeRequest) (*domain.GenerateQRCodeResponse, error) {
	var resp domain.GenerateQRCodeResponse
	if err := c.post(ctx, EndpointGenerateDynamic, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify asks the API to decode and validate a QR string.
func (c *HTTPClient) Verify(ctx context.Context, req *domain.VerifyQRCodeRequest) (*domain.VerifyQRCodeResponse, error) {
	var resp domain.VerifyQRCodeResponse
	if err := c.post(ctx, EndpointVerify, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PaymentCallback reports a completed payment.
func (c *HTTPClient) PaymentCallback(ctx context.Context, req *domain.PaymentCallbackRequest) (*domain.PaymentCallbackResponse, error) {
	var resp domain.PaymentCallbackResponse
	if err := c.post(ctx, EndpointPaymentCallback, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	url := c.baseURL + endpoint

	attempt := 0
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.send(ctx, url, body, out)
		if errors.Is(err, domain.ErrRemoteUnavailable) {
			c.logger.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
			}).WithError(err).Debug("QR API call failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("POST %s: %w", endpoint, err)
	}
	return nil
}

// send performs one attempt. Retryable failures are wrapped with
// retry.RetryableError.
func (c *HTTPClient) send(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retry.RetryableError(fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return retry.RetryableError(fmt.Errorf("%w: reading response: %v", domain.ErrRemoteUnavailable, err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(data))}
		return retry.RetryableError(fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, statusErr))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
