package email

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/logger"
)

// Message is a plain text mail. Bcc addresses go into the SMTP envelope only
// and never appear in the headers.
type Message struct {
	To      string
	Bcc     []string
	Subject string
	Body    string
}

// Recipients is the envelope recipient list: To first, then every Bcc address once.
func (m Message) Recipients() []string {
	seen := make(map[string]struct{}, len(m.Bcc)+1)
	out := make([]string, 0, len(m.Bcc)+1)
	for _, r := range append([]string{m.To}, m.Bcc...) {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

type Email struct {
	config  *config.Email
	from    string
	auth    smtp.Auth
	rootCAs *x509.CertPool // nil means the system pool
}

// New creates a sender. from is the address used for the From header and the envelope sender.
func New(config *config.Email, from string) *Email {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
	}
	return &Email{
		config: config,
		from:   from,
		auth:   auth,
	}
}

func IsCorrect(address string) error {
	_, err := mail.ParseAddress(address)
	return err
}

func (e *Email) Send(msg Message) error {
	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}
	data := e.buildMessage(msg)
	address := fmt.Sprintf("%s:%d", e.config.SMTPServer, e.config.SMTPPort)

	// Port 465 = implicit TLS, otherwise STARTTLS when offered
	if e.config.SMTPPort == 465 {
		return e.sendImplicitTLS(address, recipients, data)
	}
	return e.sendSTARTTLS(address, recipients, data)
}

func (e *Email) timeout() time.Duration {
	timeout := time.Duration(e.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

func (e *Email) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: e.config.SMTPServer, RootCAs: e.rootCAs}
}

func (e *Email) sendImplicitTLS(address string, recipients []string, msg []byte) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: e.timeout()}, "tcp", address, e.tlsConfig())
	if err != nil {
		logger.Log.Error("failed to connect to SMTP server (implicit TLS)", "address", address, "error", err)
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(e.timeout()))

	client, err := smtp.NewClient(conn, e.config.SMTPServer)
	if err != nil {
		logger.Log.Error("failed to create SMTP client", "error", err)
		return err
	}
	defer client.Close()

	return e.sendViaClient(client, recipients, msg)
}

func (e *Email) sendSTARTTLS(address string, recipients []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", address, e.timeout())
	if err != nil {
		logger.Log.Error("failed to connect to SMTP server", "address", address, "error", err)
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(e.timeout()))

	client, err := smtp.NewClient(conn, e.config.SMTPServer)
	if err != nil {
		logger.Log.Error("failed to create SMTP client", "error", err)
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(e.tlsConfig()); err != nil {
			logger.Log.Error("failed to start TLS", "error", err)
			return err
		}
	}

	return e.sendViaClient(client, recipients, msg)
}

// sendViaClient performs auth, sets sender and every envelope recipient, and sends the message body.
func (e *Email) sendViaClient(client *smtp.Client, recipients []string, msg []byte) error {
	if e.auth != nil {
		if err := client.Auth(e.auth); err != nil {
			logger.Log.Error("SMTP authentication failed", "error", err)
			return err
		}
	}

	if err := client.Mail(e.from); err != nil {
		logger.Log.Error("failed to set sender", "error", err)
		return err
	}

	for _, r := range recipients {
		if err := client.Rcpt(r); err != nil {
			logger.Log.Error("failed to set recipient", "recipient", r, "error", err)
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		logger.Log.Error("failed to get data writer", "error", err)
		return err
	}

	if _, err = w.Write(msg); err != nil {
		logger.Log.Error("failed to write message", "error", err)
		return err
	}

	if err = w.Close(); err != nil {
		logger.Log.Error("failed to close data writer", "error", err)
		return err
	}

	return client.Quit()
}

func generateMessageID(from string) string {
	host := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		host = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}

func (e *Email) buildMessage(msg Message) []byte {
	encodedSubject := mime.QEncoding.Encode("utf-8", msg.Subject)
	from := e.from
	if e.config.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", e.config.SenderName), e.from)
	}

	body := strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n")

	return fmt.Appendf(nil,
		"Message-ID: %s\r\n"+
			"Date: %s\r\n"+
			"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n"+
			"%s",
		generateMessageID(e.from), time.Now().Format(time.RFC1123Z), msg.To, from, encodedSubject, body,
	)
}
