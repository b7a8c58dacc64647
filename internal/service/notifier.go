package service

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"sync"
	"text/template"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/email"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/middleware/metrics"
	"github.com/mitchellh/go-wordwrap"
)

//go:embed templates/notify.txt
var notifyTemplate string

const wrapWidth = 72

type Sender interface {
	Send(msg email.Message) error
}

type NotifierStorage interface {
	SubscriberEmails(ctx context.Context, thread domain.ThreadId) ([]domain.Email, error)
}

type TextStripper interface {
	StripTags(s string) string
	PlainText(body string) string
}

// Notifier mails thread subscribers about new replies. Sending happens in
// the background and never fails the reply.
type Notifier struct {
	storage NotifierStorage
	sender  Sender
	text    TextStripper
	cfg     *config.Public
	from    string
	tmpl    *template.Template
	wg      sync.WaitGroup
}

func NewNotifier(storage NotifierStorage, sender Sender, text TextStripper, cfg *config.Public, from string) *Notifier {
	return &Notifier{
		storage: storage,
		sender:  sender,
		text:    text,
		cfg:     cfg,
		from:    from,
		tmpl:    template.Must(template.New("notify").Parse(notifyTemplate)),
	}
}

// NotifyReply schedules the notification for post and returns immediately.
func (n *Notifier) NotifyReply(thread domain.ThreadMetadata, post *domain.Post) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.NotifyTimeout)
		defer cancel()
		n.notify(ctx, thread, post)
	}()
}

// Close waits for notifications in flight.
func (n *Notifier) Close() {
	n.wg.Wait()
}

func (n *Notifier) notify(ctx context.Context, thread domain.ThreadMetadata, post *domain.Post) {
	log := logger.Log.With("thread_id", thread.Id, "post_id", post.Id)

	recipients, err := n.storage.SubscriberEmails(ctx, thread.Id)
	if err != nil {
		log.Error("failed to load subscribers", "error", err)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	if len(recipients) == 0 {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return
	}

	msg, err := n.Message(thread, post, recipients)
	if err != nil {
		log.Error("failed to compose notification", "error", err)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}

	done := make(chan error, 1)
	go func() { done <- n.sender.Send(msg) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn("failed to send notification", "recipients", len(recipients), "error", err)
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			return
		}
		log.Info("notification sent", "recipients", len(recipients))
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	case <-ctx.Done():
		log.Warn("notification timed out", "recipients", len(recipients), "error", ctx.Err())
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
	}
}

// Message builds the mail for post: addressed to the forum itself with
// every subscriber in blind copy.
func (n *Notifier) Message(thread domain.ThreadMetadata, post *domain.Post, recipients []domain.Email) (email.Message, error) {
	title := n.text.StripTags(thread.Title)
	siteURL := strings.TrimSuffix(n.cfg.SiteURL, "/")

	var body bytes.Buffer
	err := n.tmpl.Execute(&body, map[string]any{
		"Author":           post.Author.Username,
		"ThreadTitle":      title,
		"SiteName":         n.cfg.SiteName,
		"Body":             wordwrap.WrapString(n.text.PlainText(post.Body), wrapWidth),
		"PostURL":          siteURL + post.URL(),
		"SubscriptionsURL": siteURL + "/subscriptions/",
	})
	if err != nil {
		return email.Message{}, err
	}

	subject := title
	if n.cfg.MailSubjectPrefix != "" {
		subject = n.cfg.MailSubjectPrefix + " " + title
	}
	return email.Message{
		To:      n.from,
		Bcc:     recipients,
		Subject: subject,
		Body:    body.String(),
	}, nil
}
