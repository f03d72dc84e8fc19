package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Webhook posts messages to a Slack incoming webhook. A webhook built from
// an empty URL is inert: sends are skipped without error, which callers must
// treat as the message not having been delivered.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhook constructs a webhook client for the given target URL.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Configured reports whether the webhook has a target to deliver to.
func (w *Webhook) Configured() bool {
	return w.url != ""
}

// Send posts the message, overriding the webhook's default channel when a
// channel is given. Delivery failures are logged, not returned: the workflow
// treats notification as fire-and-forget.
func (w *Webhook) Send(ctx context.Context, text, channel string) {
	if !w.Configured() {
		w.logger.Debug("webhook not configured, skipping send", zap.String("text", text))
		return
	}

	message := &slack.WebhookMessage{Text: text, Channel: channel}
	if err := slack.PostWebhookCustomHTTPContext(ctx, w.url, w.client, message); err != nil {
		w.logger.Error("failed to post to slack webhook",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	w.logger.Info("posted message to slack", zap.String("channel", channel))
}
