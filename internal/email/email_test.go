package email

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipients(t *testing.T) {
	msg := Message{To: "forum@example.com", Bcc: []string{"a@example.com", "forum@example.com", "b@example.com", "a@example.com", ""}}
	assert.Equal(t, []string{"forum@example.com", "a@example.com", "b@example.com"}, msg.Recipients())

	assert.Empty(t, Message{}.Recipients())
}

func TestBuildMessage(t *testing.T) {
	e := New(&config.Email{SMTPServer: "smtp.example.com", SMTPPort: 587, SenderName: "Forum"}, "forum@example.com")
	raw := string(e.buildMessage(Message{
		To:      "forum@example.com",
		Bcc:     []string{"secret@example.com"},
		Subject: "[Forum] Welcome",
		Body:    "line one\nline two",
	}))

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, "To: forum@example.com\r\n")
	assert.Contains(t, headers, "From: Forum <forum@example.com>\r\n")
	assert.Contains(t, headers, "Subject: [Forum] Welcome\r\n")
	assert.Contains(t, headers, "@example.com>\r\n")
	assert.NotContains(t, raw, "secret@example.com", "bcc addresses must stay out of the message")
	assert.Equal(t, "line one\r\nline two", body)
}

func TestSendWithoutRecipients(t *testing.T) {
	e := New(&config.Email{SMTPServer: "localhost", SMTPPort: 25}, "")
	assert.Error(t, e.Send(Message{}))
}

func TestIsCorrect(t *testing.T) {
	assert.NoError(t, IsCorrect("user@example.com"))
	assert.Error(t, IsCorrect("not an address"))
}

// stallingTLSServer completes the TLS handshake and then never sends the SMTP greeting.
func stallingTLSServer(t *testing.T) (net.Listener, *x509.CertPool) {
	srv := httptest.NewUnstartedServer(nil)
	srv.StartTLS()
	cert, pool := srv.TLS.Certificates[0], x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	srv.Close()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 512)
				for {
					if _, err := conn.Read(buf); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln, pool
}

func TestSendImplicitTLSTimesOut(t *testing.T) {
	ln, pool := stallingTLSServer(t)
	e := New(&config.Email{SMTPServer: "127.0.0.1", SMTPPort: 465, Timeout: 1}, "forum@example.com")
	e.rootCAs = pool

	done := make(chan error, 1)
	go func() {
		done <- e.sendImplicitTLS(ln.Addr().String(), []string{"a@example.com"}, []byte("hi"))
	}()

	select {
	case err := <-done:
		var netErr net.Error
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout())
	case <-time.After(10 * time.Second):
		t.Fatal("send did not time out on a silent server")
	}
}
