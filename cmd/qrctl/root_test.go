package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/qrapi"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSampleBuiltIn(t *testing.T) {
	out, _, err := run(t, "", "sample", "--tlv")
	require.NoError(t, err)

	want := strings.Join([]string{
		"# Basic Payment QR (PAYMENT)",
		"{",
		`  "format": {`,
		`    "version": "01"`,
		"  },",
		`  "amount": "123456"`,
		"}",
		"01  len=16  [1 child]",
		"│  01  len=2  01",
		"02  len=6  123456",
	}, "\n") + "\n"
	assert.Equal(t, want, out)
}

func TestSampleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	doc := `
templates:
  - name: Ticket
    journeyId: TICKET
    tags:
      - tagGroup: Data
        contentDesc: Seat
        jsonKey: seat
        format: A
  - name: Other
    journeyId: IDENTITY
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, _, err := run(t, "", "sample", "-f", path, "--template", "Ticket")
	require.NoError(t, err)
	assert.Equal(t, "# Ticket (TICKET)\n{\n  \"seat\": \"ABC123\"\n}\n", out)

	_, _, err = run(t, "", "sample", "-f", path, "--template", "Missing")
	assert.ErrorContains(t, err, `template "Missing" not found`)
}

func TestTLVFromArgument(t *testing.T) {
	out, stderr, err := run(t, "", "tlv", `{"amount":"123456","header":{"version":"01"}}`)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "01  len=6  123456\n02  len=16  [1 child]\n│  01  len=2  01\n", out)
}

func TestTLVFallbackFromStdin(t *testing.T) {
	out, stderr, err := run(t, "not valid json {{{\n", "tlv", "-")
	require.NoError(t, err)
	assert.Contains(t, stderr, "not a JSON object")
	assert.Equal(t, tlv.Render(tlv.Fallback()), out)
}

func TestTLVJSON(t *testing.T) {
	out, _, err := run(t, `{"a":"1"}`, "tlv", "--json")
	require.NoError(t, err)

	var res tlv.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Fallback)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "1", res.Nodes[0].Value)
}

func TestRemoteCommandsWithMock(t *testing.T) {
	out, _, err := run(t, "", "generate", "--mock", "--template-id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, qrapi.MockMarker)
	assert.Contains(t, out, `"referenceNumber": "REF`)

	out, _, err = run(t, "", "generate", "--mock", "--dynamic", "--data", `{"amount":"10.00"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"referenceNumber": "DYN`)

	out, _, err = run(t, "", "verify", "--mock", "--message-id", "m-1", "000201")
	require.NoError(t, err)
	assert.Contains(t, out, `"isValid": true`)
	assert.Contains(t, out, `"requestMessageId": "m-1"`)

	out, _, err = run(t, "", "callback", "--mock", "--ref", "REF1", "--payment-ref", "PAY1")
	require.NoError(t, err)
	assert.Contains(t, out, "Payment callback processed successfully")
}

func TestRemoteCommandErrors(t *testing.T) {
	_, _, err := run(t, "", "generate", "--mock", "--data", "[1,2]")
	assert.ErrorContains(t, err, "--data")

	_, _, err = run(t, "", "callback", "--mock", "--ref", "REF1")
	assert.ErrorContains(t, err, "paymentRef")

	_, _, err = run(t, "", "generate", "--mock", "--template-id", "42")
	assert.ErrorContains(t, err, "not found")
}
