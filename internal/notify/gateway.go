package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kpelto/benchline/internal/model"
	"github.com/kpelto/benchline/internal/tokens"
)

// Gateway delivers invitations. Implementations are best-effort: a
// returned error means the player did not get the invitation and the
// cascade will treat the candidate as unavailable.
type Gateway interface {
	Deliver(ctx context.Context, inv *model.Invitation, player *model.Player, game *model.Game) error
}

// LogGateway only logs deliveries. Used when no transport is configured,
// typically in development.
type LogGateway struct {
	links *Links
}

func NewLogGateway(links *Links) *LogGateway {
	return &LogGateway{links: links}
}

func (g *LogGateway) Deliver(_ context.Context, inv *model.Invitation, player *model.Player, _ *model.Game) error {
	accept, _ := g.links.Accept(inv)
	decline, _ := g.links.Decline(inv)

	slog.Info("invitation (log only)",
		slog.String("to", player.Email),
		slog.String("accept", accept),
		slog.String("decline", decline))

	return nil
}

// Links builds the tokenized accept and decline URLs for an invitation.
type Links struct {
	baseURL string
	signer  *tokens.Signer
}

func NewLinks(baseURL string, signer *tokens.Signer) *Links {
	return &Links{baseURL: baseURL, signer: signer}
}

func (l *Links) Accept(inv *model.Invitation) (string, error) {
	t, err := l.signer.Sign(inv.Token, tokens.ActionAccept)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/i/%s", l.baseURL, t), nil
}

func (l *Links) Decline(inv *model.Invitation) (string, error) {
	t, err := l.signer.Sign(inv.Token, tokens.ActionDecline)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/i/%s", l.baseURL, t), nil
}
