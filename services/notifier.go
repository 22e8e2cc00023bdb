package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Notifier tells the site owner about a new submission.
type Notifier interface {
	NotifyFeedback(ctx context.Context, fb types.Feedback) error
}

// NoopNotifier is used when notifications are disabled.
type NoopNotifier struct{}

func (NoopNotifier) NotifyFeedback(context.Context, types.Feedback) error { return nil }

// emailSender is the part of the resend client the notifier calls.
type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type emailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// ResendNotifier emails the owner through Resend.
type ResendNotifier struct {
	cfg     config.NotificationConfig
	sender  emailSender
	tmpl    *template.Template
	metrics *emailMetrics
	log     *zap.SugaredLogger
}

// NewResendNotifier creates a notifier using the configured Resend API key.
func NewResendNotifier(cfg config.NotificationConfig, reg prometheus.Registerer) *ResendNotifier {
	return newResendNotifier(cfg, resend.NewClient(cfg.ResendAPIKey).Emails, reg)
}

func newResendNotifier(cfg config.NotificationConfig, sender emailSender, reg prometheus.Registerer) *ResendNotifier {
	log := logger.GetLogger().Named("notifier")
	log.Infow("Initializing email notifier",
		"from", cfg.FromAddress,
		"owner", logger.MaskEmail(cfg.OwnerAddress),
		"apikey", logger.MaskSensitiveString(cfg.ResendAPIKey, 3, 0))

	factory := promauto.With(reg)
	return &ResendNotifier{
		cfg:    cfg,
		sender: sender,
		tmpl:   template.Must(template.New("feedback").Parse(feedbackEmailTemplate)),
		metrics: &emailMetrics{
			sendLatency: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "folio_email_send_duration_seconds",
				Help:    "Time taken to send emails",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
			}),
			errorCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "folio_email_errors_total",
				Help: "Total number of email sending errors",
			}),
			sentCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "folio_emails_sent_total",
				Help: "Total number of emails sent",
			}),
		},
		log: log,
	}
}

// NotifyFeedback renders and sends the owner email. Replies go to the visitor.
func (n *ResendNotifier) NotifyFeedback(ctx context.Context, fb types.Feedback) error {
	start := time.Now()
	defer func() {
		n.metrics.sendLatency.Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	var html bytes.Buffer
	if err := n.tmpl.Execute(&html, fb); err != nil {
		n.metrics.errorCount.Inc()
		return fmt.Errorf("failed to execute template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.FromAddress),
		To:      []string{n.cfg.OwnerAddress},
		Subject: fmt.Sprintf("New message from %s", fb.Name),
		Html:    html.String(),
		ReplyTo: fb.Email,
	}

	if _, err := n.sender.Send(params); err != nil {
		n.metrics.errorCount.Inc()
		n.log.Errorw("Failed to send email",
			"error", err,
			"feedbackId", fb.ID,
			"replyTo", logger.MaskEmail(fb.Email))
		return fmt.Errorf("email send failed: %w", err)
	}

	n.metrics.sentCount.Inc()
	n.log.Infow("Owner notified", "feedbackId", fb.ID)
	return nil
}

// NotificationQueue runs a Notifier on the worker pool so requests never wait on email.
type NotificationQueue struct {
	pool     *WorkerPool
	notifier Notifier
}

func NewNotificationQueue(pool *WorkerPool, notifier Notifier) *NotificationQueue {
	return &NotificationQueue{pool: pool, notifier: notifier}
}

// Enqueue submits one notification job. It reports false when the job was dropped.
func (q *NotificationQueue) Enqueue(fb types.Feedback) bool {
	return q.pool.Submit(Job{
		Name: "feedback-notification:" + fb.ID,
		Execute: func(ctx context.Context) error {
			return q.notifier.NotifyFeedback(ctx, fb)
		},
	})
}

const feedbackEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New portfolio message</title>
</head>
<body style="font-family: sans-serif; color: #333333;">
    <h2>New message from {{.Name}}</h2>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Received:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
    <blockquote style="border-left: 3px solid #cccccc; padding-left: 12px;">{{.Message}}</blockquote>
</body>
</html>`
