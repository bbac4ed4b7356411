package email

import (
	"context"
	"errors"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merenda/internal/notification"
	"merenda/pkg/platform/circuit"
	"merenda/pkg/platform/sentinel"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notification.OutboundEmail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email notification.OutboundEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type countingMetrics struct {
	mu           sync.Mutex
	sent, failed int
}

func (c *countingMetrics) IncrementEmailsSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
}

func (c *countingMetrics) IncrementEmailsFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
}

func TestChannelQueue(t *testing.T) {
	q := NewChannelQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, notification.OutboundEmail{Subject: "a"}))
	err := q.Enqueue(ctx, notification.OutboundEmail{Subject: "b"})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 1, q.Len())

	email, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", email.Subject)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = q.Dequeue(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker(t *testing.T) {
	t.Run("delivers queued email until cancelled", func(t *testing.T) {
		q := NewChannelQueue(8)
		mailer := &recordingMailer{}
		metrics := &countingMetrics{}
		w := NewWorker(q, mailer, WithConcurrency(3), WithMetrics(metrics))

		for range 5 {
			require.NoError(t, q.Enqueue(context.Background(), notification.OutboundEmail{To: []string{"x@example.org"}}))
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		require.Eventually(t, func() bool { return mailer.count() == 5 }, time.Second, 5*time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		assert.Equal(t, 5, metrics.sent)
	})

	t.Run("send failures are swallowed", func(t *testing.T) {
		q := NewChannelQueue(1)
		metrics := &countingMetrics{}
		w := NewWorker(q, &recordingMailer{err: errors.New("smtp down")}, WithMetrics(metrics))
		require.NoError(t, q.Enqueue(context.Background(), notification.OutboundEmail{}))

		assert.NoError(t, w.ProcessOne(context.Background()))
		assert.Equal(t, 1, metrics.failed)
	})
}

func TestBreakerMailer(t *testing.T) {
	primary := &recordingMailer{err: errors.New("relay refused")}
	fallback := &recordingMailer{}
	breaker := circuit.New("smtp", circuit.WithFailureThreshold(2))
	m := NewBreakerMailer(primary, fallback, breaker, nil)
	ctx := context.Background()

	err := m.Send(ctx, notification.OutboundEmail{})
	assert.Error(t, err, "below threshold the primary error surfaces")
	assert.Equal(t, 0, fallback.count())

	require.NoError(t, m.Send(ctx, notification.OutboundEmail{}))
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, 1, fallback.count())

	primary.mu.Lock()
	primary.err = nil
	primary.mu.Unlock()
	require.NoError(t, m.Send(ctx, notification.OutboundEmail{}))
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 1, primary.count())
}

func TestSMTPMailer(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := NewSMTPMailer(SMTPConfig{Addr: "smtp.example.org:25", From: "noreply@example.org"})
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), notification.OutboundEmail{
		Subject:  "Hello",
		To:       []string{"a@example.org", "b@example.org"},
		HTMLBody: "<p>hi</p>",
	}))
	assert.Equal(t, "smtp.example.org:25", gotAddr)
	assert.Len(t, gotTo, 2)
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "text/html")

	gotAddr = ""
	require.NoError(t, m.Send(context.Background(), notification.OutboundEmail{}))
	assert.Empty(t, gotAddr, "no recipients, nothing sent")
}
