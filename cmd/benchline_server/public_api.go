package main

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/kpelto/benchline/internal/model"
	"github.com/kpelto/benchline/internal/rotation"
	"github.com/kpelto/benchline/internal/tokens"
	"github.com/kpelto/benchline/pkg/log"
)

// PublicAPI serves the unauthenticated response links from invitation
// messages. It exposes a single endpoint and never reveals roster data
// beyond the invitation the token names.
type PublicAPI struct {
	f    *fiber.App
	addr string
}

func NewPublicAPI(app *App, addr string) *PublicAPI {
	api := &PublicAPI{addr: addr}

	engine := html.NewFileSystem(http.FS(templates), ".html")
	engine.Delims("[[", "]]")

	api.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		Views:                 engine,
	})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "public_api", DoMetrics: true, LogErrorsOnly: true}))

	api.f.Get("/i/:token", getRespondHandler(app))
	api.f.Post("/i/:token", getRespondHandler(app))

	return api
}

func (api *PublicAPI) Address() string {
	return api.addr
}

func (api *PublicAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func getRespondHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := app.signer.Parse(ctx.Params("token"))
		if err != nil {
			return respondPage(ctx, "en", "invalid")
		}

		inv := app.dbm.InvitationQuery().Token(claims.Invitation).Full().One()
		if inv == nil {
			return respondPage(ctx, "en", "invalid")
		}

		lang := inv.Player.GetLanguage()

		var res *rotation.StepResult

		switch claims.Action {
		case tokens.ActionAccept:
			res, err = app.cascade.OnAccept(ctx.Context(), inv.ID, model.MethodWeb, "")
		case tokens.ActionDecline:
			res, err = app.cascade.OnDecline(ctx.Context(), inv.ID, model.MethodWeb, "")
		default:
			return respondPage(ctx, lang, "invalid")
		}

		if err != nil {
			app.logger.Error("response error", slog.Any("error", err))

			return respondPage(ctx, lang, "error")
		}

		if res.Outcome == rotation.OutcomeDuplicate {
			return respondPage(ctx, lang, "already_"+res.Invitation.Response)
		}

		return respondPage(ctx, lang, claims.Action)
	}
}

func respondPage(ctx *fiber.Ctx, lang, state string) error {
	return ctx.Render("templates/respond", map[string]any{
		"lang":  lang,
		"state": state,
	})
}
