package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// discordContentLimit is Discord's maximum message length.
const discordContentLimit = 2000

// DiscordPublisher posts to a Discord channel webhook.
type DiscordPublisher struct {
	webhookID string
	token     string
	username  string
	session   *discordgo.Session
	logger    *zap.Logger
}

// NewDiscordPublisher creates a publisher for a webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func NewDiscordPublisher(webhookURL string, logger *zap.Logger) (*DiscordPublisher, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	// Webhook execution is authorized by the token in the URL, not a bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordPublisher{
		webhookID: id,
		token:     token,
		username:  "Sustainability Task Force",
		session:   session,
		logger:    logger,
	}, nil
}

func (p *DiscordPublisher) Platform() string { return "discord" }

// Publish sends msg, truncated to Discord's message limit.
func (p *DiscordPublisher) Publish(ctx context.Context, msg *Message) error {
	params := &discordgo.WebhookParams{
		Content:  truncate(fmt.Sprintf("**%s**\n%s", msg.Title, msg.Content), discordContentLimit),
		Username: p.username,
	}
	if _, err := p.session.WebhookExecute(p.webhookID, p.token, false, params, discordgo.WithContext(ctx)); err != nil {
		p.logger.Error("discord webhook failed", zap.String("run", msg.RunID), zap.Error(err))
		return fmt.Errorf("discord webhook execute: %w", err)
	}
	return nil
}

func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse discord webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" {
			id, token = parts[i+1], parts[i+2]
			break
		}
	}
	if id == "" || token == "" {
		return "", "", fmt.Errorf("discord webhook url %q: want .../webhooks/{id}/{token}", raw)
	}
	return id, token, nil
}
