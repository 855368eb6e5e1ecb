package service

import (
	"bitwise74/diapredict/config"
	"bitwise74/diapredict/internal/metrics"
	"bitwise74/diapredict/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	mails []*Mail
	err   error
	block chan struct{}
}

func (r *recorder) Send(_ context.Context, m *Mail) error {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.mails = append(r.mails, m)
	return r.err
}

func (r *recorder) sent() []*Mail {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*Mail(nil), r.mails...)
}

func TestReportBody(t *testing.T) {
	r := &model.Record{
		Pregnancies:      2,
		Glucose:          120,
		BloodPressure:    70,
		SkinThickness:    20,
		Insulin:          79,
		BMI:              25,
		PedigreeFunction: 0.5,
		Age:              30,
		Prediction:       1,
	}

	want := "Here is your diabetes prediction report:\n\n" +
		"Pregnancies: 2\n" +
		"Glucose: 120\n" +
		"Blood Pressure: 70\n" +
		"Skin Thickness: 20\n" +
		"Insulin: 79.0\n" +
		"BMI: 25.0\n" +
		"Diabetes Pedigree Function: 0.5\n" +
		"Age: 30\n" +
		"Prediction: Diabetic\n\n" +
		"Thank you for using our service."

	assert.Equal(t, want, ReportBody(r))

	r.Prediction = 0
	assert.Contains(t, ReportBody(r), "Prediction: Not Diabetic\n")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "25.0", FormatFloat(25))
	assert.Equal(t, "0.627", FormatFloat(0.627))
	assert.Equal(t, "-3.0", FormatFloat(-3))
	assert.Equal(t, "33.6", FormatFloat(33.6))
}

func TestNotifier(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(&MeteredSender{Next: rec})

	before := testutil.ToFloat64(metrics.EmailsSent.WithLabelValues(KindVerification))

	require.NoError(t, n.SendVerification(t.Context(), "alice@example.com", "http://localhost/verify_email/abc"))
	require.NoError(t, n.SendReport(t.Context(), "alice@example.com", &model.Record{}))

	mails := rec.sent()
	require.Len(t, mails, 2)

	assert.Equal(t, "Email Verification", mails[0].Subject)
	assert.Equal(t, "alice@example.com", mails[0].To)
	assert.Contains(t, mails[0].Body, "http://localhost/verify_email/abc")

	assert.Equal(t, "Diabetes Report", mails[1].Subject)
	assert.False(t, mails[1].HTML)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmailsSent.WithLabelValues(KindVerification)))
}

func TestNotifierFailure(t *testing.T) {
	rec := &recorder{err: errors.New("connection refused")}
	n := NewNotifier(&MeteredSender{Next: rec})

	before := testutil.ToFloat64(metrics.EmailsFailed.WithLabelValues(KindReport))

	err := n.SendReport(t.Context(), "alice@example.com", &model.Record{})
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmailsFailed.WithLabelValues(KindReport)))
}

func TestMailQueueDelivers(t *testing.T) {
	rec := &recorder{}
	q := NewMailQueue(rec, 2, 8)
	q.StartWorkerPool()

	for range 5 {
		require.NoError(t, q.Send(t.Context(), &Mail{To: "a@example.com", Subject: "hi"}))
	}

	require.NoError(t, q.Close(t.Context()))
	assert.Len(t, rec.sent(), 5, "close drains the queue")
	assert.Equal(t, 0, q.Pending())

	assert.ErrorIs(t, q.Send(t.Context(), &Mail{}), ErrQueueClosed)
	assert.NoError(t, q.Close(t.Context()), "closing twice is fine")
}

func TestMailQueueFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	q := NewMailQueue(rec, 1, 1)
	q.StartWorkerPool()

	// One mail is held by the blocked worker, the second fills the buffer
	require.NoError(t, q.Send(t.Context(), &Mail{Subject: "1"}))
	require.Eventually(t, func() bool {
		return q.Send(t.Context(), &Mail{Subject: "2"}) == nil
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, q.Send(t.Context(), &Mail{Subject: "3"}), ErrQueueFull)

	close(rec.block)
	require.NoError(t, q.Close(t.Context()))
	assert.Len(t, rec.sent(), 2)
}

func TestMailQueueReportsErrors(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	q := NewMailQueue(rec, 1, 4)

	var mu sync.Mutex
	var failed []string
	q.OnError = func(m *Mail, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, m.Kind)
	}
	q.StartWorkerPool()

	require.NoError(t, q.Send(t.Context(), &Mail{Kind: KindReport}))
	require.NoError(t, q.Close(t.Context()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{KindReport}, failed)
}

func TestMailQueueCloseTimeout(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	defer close(rec.block)

	q := NewMailQueue(rec, 1, 1)
	q.StartWorkerPool()
	require.NoError(t, q.Send(t.Context(), &Mail{}))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)
}

func TestSMTPSender(t *testing.T) {
	s := NewSMTPSender(&config.MailConfig{
		Host:   "127.0.0.1",
		Port:   1,
		Sender: "noreply@example.com",
	})

	assert.ErrorIs(t, s.Send(t.Context(), &Mail{To: ""}), ErrInvalidRecipient)

	// Reaching the context check means the recipient was accepted
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, &Mail{To: "alice@example.com"}), context.Canceled)
	assert.ErrorIs(t, s.Send(ctx, &Mail{To: "noreply@example.com"}), context.Canceled, "the sender's own address is a valid recipient")
}

func TestSMTPSenderTLS(t *testing.T) {
	for _, cfg := range []config.MailConfig{
		{Host: "smtp.example.com", Port: 587, UseTLS: true},
		{Host: "smtp.example.com", Port: 587, UseTLS: false},
		{Host: "smtp.example.com", Port: 465, UseSSL: true},
	} {
		s := NewSMTPSender(&cfg)

		require.NotNil(t, s.dialer.TLSConfig, "STARTTLS is always attempted so it always gets a config")
		assert.Equal(t, "smtp.example.com", s.dialer.TLSConfig.ServerName)
		assert.Equal(t, cfg.UseSSL, s.dialer.SSL)
	}
}

func TestMeteredSenderWithQueue(t *testing.T) {
	const kind = "queued-test"

	sent := func() float64 { return testutil.ToFloat64(metrics.EmailsSent.WithLabelValues(kind)) }
	failed := func() float64 { return testutil.ToFloat64(metrics.EmailsFailed.WithLabelValues(kind)) }

	sentBefore, failedBefore := sent(), failed()

	rec := &recorder{err: errors.New("mailbox unavailable")}
	q := NewMailQueue(&MeteredSender{Next: rec}, 1, 4)
	q.StartWorkerPool()

	require.NoError(t, NewNotifier(q).send(t.Context(), &Mail{Kind: kind, To: "alice@example.com"}))
	require.NoError(t, q.Close(t.Context()))

	assert.Equal(t, sentBefore, sent(), "a queued mail isn't counted as sent")
	assert.Equal(t, failedBefore+1, failed(), "a mail is counted once")

	// Rejected at the queue
	assert.Error(t, NewNotifier(q).send(t.Context(), &Mail{Kind: kind}))
	assert.Equal(t, failedBefore+2, failed())
	assert.Equal(t, sentBefore, sent())
}

func TestMeteredSenderDelivered(t *testing.T) {
	const kind = "delivered-test"

	before := testutil.ToFloat64(metrics.EmailsSent.WithLabelValues(kind))

	rec := &recorder{}
	q := NewMailQueue(&MeteredSender{Next: rec}, 1, 4)
	q.StartWorkerPool()

	require.NoError(t, q.Send(t.Context(), &Mail{Kind: kind}))
	require.NoError(t, q.Close(t.Context()))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmailsSent.WithLabelValues(kind)))
}
