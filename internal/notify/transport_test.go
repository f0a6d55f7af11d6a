package notify

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *strings.Reader {
	return strings.NewReader("Subject: hi\r\n\r\nbody\r\n")
}

func TestTLSPolicy(t *testing.T) {
	dev := TLSConfig("smtp.zoho.in", false)
	assert.True(t, dev.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), dev.MinVersion)
	assert.Equal(t, "smtp.zoho.in", dev.ServerName)

	prod := TLSConfig("smtp.zoho.in", true)
	assert.False(t, prod.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), prod.MinVersion)
}

func TestTransportModeFollowsPort(t *testing.T) {
	assert.True(t, NewSMTPTransport("smtp.zoho.in", 465, "u", "p", true).implicitTLS)
	assert.False(t, NewSMTPTransport("smtp.zoho.in", 587, "u", "p", true).implicitTLS)
	assert.False(t, NewSMTPTransport("smtp.zoho.in", 25, "u", "p", false).implicitTLS)
}

func TestSMTPTransportDelivers(t *testing.T) {
	backend := &testBackend{username: "forms@urja.example", password: "secret"}
	host, port := startSMTPServer(t, backend, nil)

	tr := NewSMTPTransport(host, port, "forms@urja.example", "secret", false)
	receipt, err := tr.Send(context.Background(), Envelope{
		From:       "forms@urja.example",
		Recipients: []string{"admin@urja.example", "a@x.com"},
	}, testMessage())
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@urja.example", "a@x.com"}, receipt.Accepted)
	assert.Empty(t, receipt.Rejected)

	msgs := backend.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "forms@urja.example", msgs[0].From)
	assert.Contains(t, msgs[0].Data, "body")
}

func TestSMTPTransportPartialRejection(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p", rejectLocal: "nobody"}
	host, port := startSMTPServer(t, backend, nil)

	tr := NewSMTPTransport(host, port, "u@x.com", "p", false)
	receipt, err := tr.Send(context.Background(), Envelope{
		From:       "u@x.com",
		Recipients: []string{"admin@x.com", "nobody@x.com", "b@x.com"},
	}, testMessage())
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@x.com", "b@x.com"}, receipt.Accepted)
	assert.Equal(t, []string{"nobody@x.com"}, receipt.Rejected)
	require.Len(t, backend.Messages(), 1)
	assert.Equal(t, []string{"admin@x.com", "b@x.com"}, backend.Messages()[0].Recipients)
}

func TestSMTPTransportAllRejected(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p", rejectLocal: "nobody"}
	host, port := startSMTPServer(t, backend, nil)

	tr := NewSMTPTransport(host, port, "u@x.com", "p", false)
	_, err := tr.Send(context.Background(), Envelope{From: "u@x.com", Recipients: []string{"nobody@x.com"}}, testMessage())
	require.ErrorIs(t, err, ErrAllRecipientsRejected)
	assert.Empty(t, backend.Messages())
}

func TestSMTPTransportBadCredentials(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startSMTPServer(t, backend, nil)

	tr := NewSMTPTransport(host, port, "u@x.com", "wrong", false)
	_, err := tr.Send(context.Background(), Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth")
	assert.Empty(t, backend.Messages())
}

func TestSMTPTransportUnreachable(t *testing.T) {
	host, port := unusedAddr(t)

	tr := NewSMTPTransport(host, port, "u@x.com", "p", false)
	_, err := tr.Send(context.Background(), Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

// selfSignedTLS borrows the throwaway certificate httptest generates.
func selfSignedTLS(t *testing.T) *tls.Config {
	t.Helper()
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	cfg := &tls.Config{Certificates: ts.TLS.Certificates, MinVersion: tls.VersionTLS12}
	ts.Close()
	return cfg
}

func TestSMTPTransportStartTLSRelaxedOutsideProduction(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startSMTPServer(t, backend, selfSignedTLS(t))

	tr := NewSMTPTransport(host, port, "u@x.com", "p", false)
	receipt, err := tr.Send(context.Background(), Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@x.com"}, receipt.Accepted)
}

func TestSMTPTransportStartTLSStrictInProduction(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startSMTPServer(t, backend, selfSignedTLS(t))

	tr := NewSMTPTransport(host, port, "u@x.com", "p", true)
	_, err := tr.Send(context.Background(), Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starttls")
	assert.Empty(t, backend.Messages())
}

func implicitTLSTransport(host string, port int, production bool) *SMTPTransport {
	tr := NewSMTPTransport(host, port, "u@x.com", "p", production)
	tr.implicitTLS = true
	return tr
}

func TestSMTPTransportImplicitTLSRelaxedOutsideProduction(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startImplicitTLSServer(t, backend, selfSignedTLS(t))

	receipt, err := implicitTLSTransport(host, port, false).Send(context.Background(),
		Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@x.com"}, receipt.Accepted)
	assert.Len(t, backend.Messages(), 1)
}

func TestSMTPTransportImplicitTLSStrictInProduction(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startImplicitTLSServer(t, backend, selfSignedTLS(t))

	_, err := implicitTLSTransport(host, port, true).Send(context.Background(),
		Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
	assert.Empty(t, backend.Messages())
}

func TestSMTPTransportImplicitTLSAgainstPlainServer(t *testing.T) {
	backend := &testBackend{username: "u@x.com", password: "p"}
	host, port := startSMTPServer(t, backend, nil)

	_, err := implicitTLSTransport(host, port, false).Send(context.Background(),
		Envelope{From: "u@x.com", Recipients: []string{"admin@x.com"}}, testMessage())
	require.Error(t, err)
	assert.Empty(t, backend.Messages())
}
