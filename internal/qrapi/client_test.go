package qrapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/payload"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	return NewHTTPClient(srv.URL+"/api/v1.0/qrcode/",
		WithRetries(2),
		WithBackoff(time.Millisecond),
		WithTimeout(time.Second),
		WithLogger(logger),
	)
}

func TestGenerateStaticSendsRequest(t *testing.T) {
	var gotPath, gotBody, gotType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseCode":"200","responseMessage":"ok","referenceNumber":"REF1","qrString":"0002"}`))
	})

	data := payload.NewObject()
	data.SetString("amount", "123456")
	resp, err := c.GenerateStatic(context.Background(), &domain.GenerateQRCodeRequest{
		TemplateID: 1,
		Journey:    domain.JourneyPayment,
		Data:       data,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1.0/qrcode/generate-static", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"templateId":1,"journey":"PAYMENT","data":{"amount":"123456"}}`, gotBody)
	assert.Equal(t, "REF1", resp.ReferenceNumber)
	assert.Equal(t, "0002", resp.QRString)
}

func TestEndpoints(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, strings.TrimPrefix(r.URL.Path, "/api/v1.0/qrcode"))
		_, _ = w.Write([]byte(`{"responseCode":"200","responseMessage":"ok","isValid":true,"data":{"b":"1","a":"2"}}`))
	})
	ctx := context.Background()

	_, err := c.GenerateDynamic(ctx, &domain.GenerateQRCodeRequest{TemplateID: 1})
	require.NoError(t, err)
	verified, err := c.Verify(ctx, &domain.VerifyQRCodeRequest{QRString: "0002"})
	require.NoError(t, err)
	_, err = c.PaymentCallback(ctx, &domain.PaymentCallbackRequest{ReferenceNumber: "R", PaymentRef: "P"})
	require.NoError(t, err)

	assert.Equal(t, []string{EndpointGenerateDynamic, EndpointVerify, EndpointPaymentCallback}, paths)
	assert.True(t, verified.IsValid)
	assert.Equal(t, []string{"b", "a"}, verified.Data.Keys())
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"responseCode":"200","responseMessage":"ok"}`))
	})

	resp, err := c.PaymentCallback(context.Background(), &domain.PaymentCallbackRequest{ReferenceNumber: "R", PaymentRef: "P"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.ResponseMessage)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := c.Verify(context.Background(), &domain.VerifyQRCodeRequest{QRString: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad template", http.StatusBadRequest)
	})

	_, err := c.GenerateStatic(context.Background(), &domain.GenerateQRCodeRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRemoteUnavailable)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "bad template", statusErr.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger, _ := test.NewNullLogger()
	c := NewHTTPClient(url, WithRetries(1), WithBackoff(time.Millisecond), WithLogger(logger))
	_, err := c.GenerateStatic(context.Background(), &domain.GenerateQRCodeRequest{})
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient(42)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	ctx := context.Background()

	static, err := m.GenerateStatic(ctx, &domain.GenerateQRCodeRequest{})
	require.NoError(t, err)
	assert.True(t, IsMock(static.ResponseMessage))
	assert.True(t, strings.HasPrefix(static.QRString, MockQRPrefix))
	assert.True(t, strings.HasPrefix(static.ReferenceNumber, "REF"))

	dynamic, err := m.GenerateDynamic(ctx, &domain.GenerateQRCodeRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dynamic.ReferenceNumber, "DYN"))
	assert.Equal(t, "Dynamic QR Code generated successfully (MOCK)", dynamic.ResponseMessage)

	verified, err := m.Verify(ctx, &domain.VerifyQRCodeRequest{QRString: "x", RequestMessageID: "abc"})
	require.NoError(t, err)
	assert.True(t, verified.IsValid)
	assert.Equal(t, "abc", verified.RequestMessageID)
	assert.Equal(t, []string{"amount", "currency", "merchantId", "referenceNumber", "timestamp"}, verified.Data.Keys())
	ts, _ := verified.Data.Get("timestamp")
	assert.Equal(t, "2024-05-01T10:00:00Z", ts.Text())

	cb, err := m.PaymentCallback(ctx, &domain.PaymentCallbackRequest{ReferenceNumber: "R", PaymentRef: "P", RequestMessageID: "id"})
	require.NoError(t, err)
	assert.Equal(t, "Payment callback processed successfully (MOCK)", cb.ResponseMessage)
	assert.Equal(t, "id", cb.RequestMessageID)
	require.NotNil(t, cb.ResponseDateTime)

	encoded, err := json.Marshal(cb)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"responseDateTime":"2024-05-01T10:00:00Z"`)
}

func TestMockIsDeterministicForSeed(t *testing.T) {
	a, _ := NewMockClient(7).GenerateStatic(context.Background(), &domain.GenerateQRCodeRequest{})
	b, _ := NewMockClient(7).GenerateStatic(context.Background(), &domain.GenerateQRCodeRequest{})
	assert.Equal(t, a.ReferenceNumber, b.ReferenceNumber)
	assert.Equal(t, a.QRString, b.QRString)
}
