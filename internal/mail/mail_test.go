package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeEmails struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeEmails) SendWithContext(_ context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "1"}, nil
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, &Log{}, NewSender(Config{}, nil))
	assert.IsType(t, &Resend{}, NewSender(Config{APIKey: "re_123", FromAddr: "a@b.co"}, nil))
}

func TestResend_Send(t *testing.T) {
	fake := &fakeEmails{}
	s := NewResend(Config{APIKey: "re_123", FromAddr: "hello@example.com", FromName: "Peneus"})
	s.emails = fake

	err := s.Send(context.Background(), &Message{
		To: []string{"ann@example.com"}, Subject: "Welcome", HTML: "<p>Hi</p>", Text: "Hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Peneus <hello@example.com>", fake.got.From)
	assert.Equal(t, []string{"ann@example.com"}, fake.got.To)
	assert.Equal(t, "Welcome", fake.got.Subject)
	assert.Equal(t, "<p>Hi</p>", fake.got.Html)

	fake.err = errors.New("rate limited")
	err = s.Send(context.Background(), &Message{To: []string{"ann@example.com"}})
	assert.ErrorContains(t, err, "rate limited")

	assert.ErrorIs(t, s.Send(context.Background(), &Message{}), ErrNoRecipient)
}

func TestLog_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLog(zap.New(core).Sugar())

	require.NoError(t, s.Send(context.Background(), &Message{To: []string{"ann@example.com"}, Subject: "Welcome"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Welcome", logs.All()[0].ContextMap()["subject"])

	assert.ErrorIs(t, s.Send(context.Background(), &Message{}), ErrNoRecipient)
}
