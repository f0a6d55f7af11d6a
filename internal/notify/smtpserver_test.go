package notify

import (
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"
)

type receivedMessage struct {
	From       string
	Recipients []string
	Data       string
}

// testBackend is an in-memory SMTP server that records what it accepts.
type testBackend struct {
	username string
	password string
	// rejectLocal refuses RCPT for addresses whose local part starts with it.
	rejectLocal string

	mu       sync.Mutex
	messages []receivedMessage
}

func (b *testBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

func (b *testBackend) Messages() []receivedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]receivedMessage(nil), b.messages...)
}

type testSession struct {
	backend *testBackend
	authed  bool
	from    string
	to      []string
}

func (s *testSession) AuthPlain(username, password string) error {
	if username != s.backend.username || password != s.backend.password {
		return &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Authentication failed"}
	}
	s.authed = true
	return nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return &smtp.SMTPError{Code: 530, EnhancedCode: smtp.EnhancedCode{5, 7, 0}, Message: "Authentication required"}
	}
	s.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.backend.rejectLocal != "" && strings.HasPrefix(to, s.backend.rejectLocal) {
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "No such user"}
	}
	s.to = append(s.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, receivedMessage{
		From:       s.from,
		Recipients: append([]string(nil), s.to...),
		Data:       string(data),
	})
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *testSession) Logout() error { return nil }

// startSMTPServer serves backend on a loopback port and returns host and
// port. A non-nil tlsConfig makes the server offer STARTTLS.
func startSMTPServer(t *testing.T, backend *testBackend, tlsConfig *tls.Config) (string, int) {
	t.Helper()

	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.TLSConfig = tlsConfig

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return splitHostPort(t, l.Addr().String())
}

// startImplicitTLSServer serves backend behind a TLS listener, the way
// port 465 submission servers do.
func startImplicitTLSServer(t *testing.T, backend *testBackend, tlsConfig *tls.Config) (string, int) {
	t.Helper()

	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"

	l, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return splitHostPort(t, l.Addr().String())
}

// unusedAddr returns a loopback port with nothing listening on it.
func unusedAddr(t *testing.T) (string, int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return splitHostPort(t, addr)
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}
