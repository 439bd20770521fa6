package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kpelto/benchline/internal/model"
	"github.com/kpelto/benchline/internal/tokens"
)

func TestLinks(t *testing.T) {
	signer := tokens.NewSigner([]byte("secret"), time.Hour)
	links := NewLinks("https://play.example.com", signer)

	inv := &model.Invitation{Token: "ledger-token"}

	accept, err := links.Accept(inv)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(accept, "https://play.example.com/i/"))

	claims, err := signer.Parse(strings.TrimPrefix(accept, "https://play.example.com/i/"))
	require.NoError(t, err)
	require.Equal(t, "ledger-token", claims.Invitation)
	require.Equal(t, tokens.ActionAccept, claims.Action)

	decline, err := links.Decline(inv)
	require.NoError(t, err)

	claims, err = signer.Parse(strings.TrimPrefix(decline, "https://play.example.com/i/"))
	require.NoError(t, err)
	require.Equal(t, tokens.ActionDecline, claims.Action)
}

func TestMailTemplates(t *testing.T) {
	data := map[string]string{
		"Name":       "Pat",
		"Date":       "Saturday, March 1, 2025 20:30",
		"Venue":      "home rink",
		"Position":   model.PositionForward,
		"AcceptURL":  "https://example.com/i/aaa",
		"DeclineURL": "https://example.com/i/bbb",
	}

	for _, lang := range []string{"en", "fr"} {
		var body bytes.Buffer

		require.NoError(t, mailBodies[lang].Execute(&body, data))
		require.Contains(t, body.String(), "Pat")
		require.Contains(t, body.String(), "https://example.com/i/aaa")
		require.Contains(t, body.String(), "https://example.com/i/bbb")
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Game invitation", "body text"))

	require.Contains(t, msg, "From: from@example.com\r\n")
	require.Contains(t, msg, "To: to@example.com\r\n")
	require.Contains(t, msg, "Subject: Game invitation\r\n")
	require.True(t, strings.HasSuffix(msg, "\r\nbody text"))
}

func TestWebhookGateway_Deliver(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	links := NewLinks("https://play.example.com", tokens.NewSigner([]byte("secret"), time.Hour))
	gw := NewWebhookGateway(srv.URL, links)

	inv := &model.Invitation{Token: "ledger-token", Position: model.PositionForward, Tier: model.TierSpare1}
	player := &model.Player{Name: "Pat", Email: "pat@example.com", Language: "fr"}
	game := &model.Game{StartsAt: time.Now().Add(24 * time.Hour), Venue: "home rink"}

	require.NoError(t, gw.Deliver(context.Background(), inv, player, game))
	require.Equal(t, "pat@example.com", got["email"])
	require.Equal(t, "fr", got["language"])
	require.Equal(t, model.PositionForward, got["position"])
	require.NotEmpty(t, got["accept_url"])
}

func TestWebhookGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	links := NewLinks("https://play.example.com", tokens.NewSigner([]byte("secret"), time.Hour))
	gw := NewWebhookGateway(srv.URL, links)

	err := gw.Deliver(context.Background(),
		&model.Invitation{Token: "t"},
		&model.Player{Email: "pat@example.com"},
		&model.Game{})
	require.Error(t, err)
}
