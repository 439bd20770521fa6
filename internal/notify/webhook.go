package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kpelto/benchline/internal/model"
)

// WebhookGateway posts invitations to an external delivery service, for
// deployments where email is handled by a transactional mail API or a
// team chat integration instead of direct SMTP.
type WebhookGateway struct {
	url    string
	client *resty.Client
	links  *Links
	logger *slog.Logger
}

func NewWebhookGateway(url string, links *Links) *WebhookGateway {
	return &WebhookGateway{
		url:    url,
		client: resty.New().SetTimeout(10 * time.Second),
		links:  links,
		logger: slog.With("logger", "webhook"),
	}
}

func (g *WebhookGateway) Deliver(ctx context.Context, inv *model.Invitation, player *model.Player, game *model.Game) error {
	acceptURL, err := g.links.Accept(inv)
	if err != nil {
		return err
	}

	declineURL, err := g.links.Decline(inv)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"email":       player.Email,
		"name":        player.Name,
		"language":    player.GetLanguage(),
		"game_id":     game.ID,
		"starts_at":   game.StartsAt,
		"venue":       game.Venue,
		"position":    inv.Position,
		"tier":        inv.Tier,
		"accept_url":  acceptURL,
		"decline_url": declineURL,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(g.url)

	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	g.logger.Debug("invitation posted",
		slog.String("to", player.Email),
		slog.Int("status", resp.StatusCode()))

	return nil
}
