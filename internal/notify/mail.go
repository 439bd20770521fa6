package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"github.com/kpelto/benchline/internal/model"
)

var mailBodies = map[string]*template.Template{
	"en": template.Must(template.New("en").Parse(`Hi {{.Name}},

You are invited to play on {{.Date}} at {{.Venue}} ({{.Position}}).

Available: {{.AcceptURL}}
Not available: {{.DeclineURL}}

Please respond as soon as you can.
`)),
	"fr": template.Must(template.New("fr").Parse(`Bonjour {{.Name}},

Vous êtes invité à jouer le {{.Date}} à {{.Venue}} ({{.Position}}).

Disponible : {{.AcceptURL}}
Non disponible : {{.DeclineURL}}

Merci de répondre dès que possible.
`)),
}

var mailSubjects = map[string]string{
	"en": "Game invitation - %s",
	"fr": "Invitation au match - %s",
}

type MailConfig struct {
	Addr string
	From string
	User string
	Pass string
	Host string
}

// MailGateway sends invitation emails over SMTP, one message per
// invitation, with the player's language selecting the template.
type MailGateway struct {
	conf   *MailConfig
	links  *Links
	logger *slog.Logger
}

func NewMailGateway(conf *MailConfig, links *Links) *MailGateway {
	return &MailGateway{
		conf:   conf,
		links:  links,
		logger: slog.With("logger", "mail"),
	}
}

func (g *MailGateway) Deliver(_ context.Context, inv *model.Invitation, player *model.Player, game *model.Game) error {
	if player.Email == "" {
		return fmt.Errorf("player %d has no email", player.ID)
	}

	lang := player.GetLanguage()

	tmpl, ok := mailBodies[lang]

	if !ok {
		tmpl = mailBodies["en"]
		lang = "en"
	}

	acceptURL, err := g.links.Accept(inv)
	if err != nil {
		return err
	}

	declineURL, err := g.links.Decline(inv)
	if err != nil {
		return err
	}

	var body bytes.Buffer

	err = tmpl.Execute(&body, map[string]string{
		"Name":       player.Name,
		"Date":       game.StartsAt.Format("Monday, January 2, 2006 15:04"),
		"Venue":      game.Venue,
		"Position":   inv.Position,
		"AcceptURL":  acceptURL,
		"DeclineURL": declineURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf(mailSubjects[lang], game.StartsAt.Format("2006-01-02"))
	msg := buildMessage(g.conf.From, player.Email, subject, body.String())

	var auth smtp.Auth

	if g.conf.User != "" {
		auth = smtp.PlainAuth("", g.conf.User, g.conf.Pass, g.conf.Host)
	}

	start := time.Now()
	err = smtp.SendMail(g.conf.Addr, auth, g.conf.From, []string{player.Email}, msg)

	if err != nil {
		g.logger.Error("smtp send failed",
			slog.String("to", player.Email),
			slog.Any("error", err))

		return err
	}

	g.logger.Info("invitation mailed",
		slog.String("to", player.Email),
		slog.Duration("took", time.Since(start)))

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
