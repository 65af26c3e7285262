// Package notify delivers user-facing text to chat channels and other sinks.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Target receives notification text.
type Target interface {
	Notify(ctx context.Context, text string) error
}

// PostMessageAPI is the subset of the Slack client used for posting.
type PostMessageAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts plain text to one fixed channel.
type SlackNotifier struct {
	api     PostMessageAPI
	channel string
}

func NewSlackNotifier(api PostMessageAPI, channel string) *SlackNotifier {
	return &SlackNotifier{
		api:     api,
		channel: channel,
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	if _, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post to %s: %w", n.channel, err)
	}
	return nil
}

// Fanout delivers each notification to every target and reports all failures.
type Fanout struct {
	targets []Target
	logger  *zap.Logger
}

func NewFanout(logger *zap.Logger, targets ...Target) *Fanout {
	return &Fanout{
		targets: targets,
		logger:  logger,
	}
}

func (f *Fanout) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, t := range f.targets {
		if err := t.Notify(ctx, text); err != nil {
			f.logger.Warn("notification target failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
