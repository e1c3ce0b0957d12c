package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// slackTextLimit is the longest text Slack renders in one webhook message.
const slackTextLimit = 40000

// SlackPublisher posts to a Slack incoming webhook.
type SlackPublisher struct {
	webhookURL string
	username   string
	logger     *zap.Logger
}

// NewSlackPublisher creates a publisher for the given incoming webhook URL.
func NewSlackPublisher(webhookURL string, logger *zap.Logger) *SlackPublisher {
	return &SlackPublisher{
		webhookURL: webhookURL,
		username:   "Sustainability Task Force",
		logger:     logger,
	}
}

func (p *SlackPublisher) Platform() string { return "slack" }

// Publish sends msg as a single webhook message.
func (p *SlackPublisher) Publish(ctx context.Context, msg *Message) error {
	text := truncate(fmt.Sprintf("*%s*\n%s", msg.Title, msg.Content), slackTextLimit)
	err := slack.PostWebhookContext(ctx, p.webhookURL, &slack.WebhookMessage{
		Username: p.username,
		Text:     text,
	})
	if err != nil {
		p.logger.Error("slack webhook failed", zap.String("run", msg.RunID), zap.Error(err))
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
