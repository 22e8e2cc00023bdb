package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(params)
	if resp := args.Get(0); resp != nil {
		return resp.(*resend.SendEmailResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingNotifier struct {
	got chan types.Feedback
}

func (r *recordingNotifier) NotifyFeedback(_ context.Context, fb types.Feedback) error {
	r.got <- fb
	return nil
}

var notifyCfg = config.NotificationConfig{
	Enabled:      true,
	ResendAPIKey: "re_test",
	FromAddress:  "site@folio.dev",
	FromName:     "Folio",
	OwnerAddress: "owner@folio.dev",
}

var sampleFeedback = types.Feedback{
	ID:        "f-1",
	Name:      "Ada",
	Email:     "ada@x.io",
	Message:   "Hello <there>",
	CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
}

func TestResendNotifier_NotifyFeedback(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
		return p.From == "Folio <site@folio.dev>" &&
			len(p.To) == 1 && p.To[0] == "owner@folio.dev" &&
			p.ReplyTo == "ada@x.io" &&
			strings.Contains(p.Subject, "Ada") &&
			strings.Contains(p.Html, "Hello &lt;there&gt;")
	})).Return(&resend.SendEmailResponse{Id: "em_1"}, nil)

	n := newResendNotifier(notifyCfg, sender, prometheus.NewRegistry())
	require.NoError(t, n.NotifyFeedback(context.Background(), sampleFeedback))

	sender.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(n.metrics.sentCount))
}

func TestResendNotifier_SendError(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything).Return(nil, errors.New("rate limited"))

	n := newResendNotifier(notifyCfg, sender, prometheus.NewRegistry())
	err := n.NotifyFeedback(context.Background(), sampleFeedback)

	assert.ErrorContains(t, err, "rate limited")
	assert.Equal(t, float64(1), testutil.ToFloat64(n.metrics.errorCount))
}

func TestResendNotifier_CanceledContext(t *testing.T) {
	sender := new(mockSender)
	n := newResendNotifier(notifyCfg, sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.NotifyFeedback(ctx, sampleFeedback), context.Canceled)
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, NoopNotifier{}.NotifyFeedback(context.Background(), sampleFeedback))
}

func TestNotificationQueue_Enqueue(t *testing.T) {
	pool := newTestPool(1, 4)
	pool.Start()
	defer pool.Shutdown(context.Background())

	rec := &recordingNotifier{got: make(chan types.Feedback, 1)}
	q := NewNotificationQueue(pool, rec)

	require.True(t, q.Enqueue(sampleFeedback))

	select {
	case fb := <-rec.got:
		assert.Equal(t, sampleFeedback.ID, fb.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}
