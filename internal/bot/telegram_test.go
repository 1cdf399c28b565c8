package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketpulse/internal/retry"

	tele "gopkg.in/telebot.v3"
)

type stubSender struct {
	errs  []error
	calls int
	to    tele.Recipient
	sent  []string
}

func (s *stubSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	i := s.calls
	s.calls++
	s.to = to
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &tele.Message{}, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestPublishHappyPath(t *testing.T) {
	sender := &stubSender{}
	p := newPublisher(sender, 42, fastPolicy())

	if err := p.Publish(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 || sender.sent[0] != "hello" {
		t.Fatalf("unexpected send state: calls=%d sent=%v", sender.calls, sender.sent)
	}
	if sender.to.Recipient() != "42" {
		t.Fatalf("expected chat 42, got %s", sender.to.Recipient())
	}
}

func TestPublishRetriesThenSucceeds(t *testing.T) {
	sender := &stubSender{errs: []error{errors.New("flood wait"), nil}}
	p := newPublisher(sender, 42, fastPolicy())

	if err := p.Publish(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", sender.calls)
	}
}

func TestPublishExhaustsRetries(t *testing.T) {
	boom := errors.New("api down")
	sender := &stubSender{errs: []error{boom, boom, boom}}
	p := newPublisher(sender, 42, fastPolicy())

	err := p.Publish(context.Background(), "hello")
	if !errors.Is(err, retry.ErrMaxRetriesExceeded) {
		t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if sender.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", sender.calls)
	}
}
