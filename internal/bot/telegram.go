// Package bot publishes formatted posts to a Telegram channel. Publishing is
// atomic from the caller's point of view: it either succeeds or fails after
// the retry budget.
package bot

import (
	"context"
	"time"

	"marketpulse/internal/retry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// Sender is the subset of telebot the publisher uses.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type TelegramPublisher struct {
	bot    Sender
	chat   *tele.Chat
	policy retry.Policy
	logger zerolog.Logger
}

func NewTelegramPublisher(token string, chatID int64, policy retry.Policy) (*TelegramPublisher, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	return newPublisher(b, chatID, policy), nil
}

func newPublisher(sender Sender, chatID int64, policy retry.Policy) *TelegramPublisher {
	return &TelegramPublisher{
		bot:    sender,
		chat:   &tele.Chat{ID: chatID},
		policy: policy,
		logger: log.With().Str("component", "publisher").Logger(),
	}
}

// Publish sends the post text to the configured chat, retrying transient
// failures with linear backoff.
func (p *TelegramPublisher) Publish(ctx context.Context, text string) error {
	attempt := 0
	return retry.Do(ctx, p.policy, func() error {
		attempt++
		if _, err := p.bot.Send(p.chat, text); err != nil {
			p.logger.Warn().Int("attempt", attempt).Err(err).Msg("publish attempt failed")
			return err
		}
		p.logger.Info().Int("attempt", attempt).Int("length", len(text)).Msg("post published")
		return nil
	})
}
