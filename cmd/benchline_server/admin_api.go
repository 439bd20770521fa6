package main

import (
	"embed"
	"errors"
	"net/http"
	"runtime/pprof"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kpelto/benchline/internal/database"
	"github.com/kpelto/benchline/internal/model"
	"github.com/kpelto/benchline/internal/rotation"
	"github.com/kpelto/benchline/internal/wshandler"
	"github.com/kpelto/benchline/pkg/log"
)

//go:embed templates
var templates embed.FS

type AdminAPI struct {
	f    *fiber.App
	addr string
}

func NewAdminAPI(app *App, addr string) *AdminAPI {
	api := &AdminAPI{addr: addr}

	engine := html.NewFileSystem(http.FS(templates), ".html")
	engine.Delims("[[", "]]")

	api.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		Views:                 engine,
	})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "admin_api", DoMetrics: true, LogErrorsOnly: true}))

	api.f.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	api.f.Get("/stack", getStackHandler())

	api.f.Use(getUserAuth(app.users))

	api.f.Get("/", getIndexHandler())
	api.f.Get("/config", getConfigHandler())

	api.f.Get("/tenant", getTenantsHandler(app))
	api.f.Post("/tenant/:id", getTenantUpdateHandler(app))
	api.f.Get("/player", getPlayersHandler(app))
	api.f.Get("/game", getGamesHandler(app))
	api.f.Get("/game/:id", getGameHandler(app))
	api.f.Get("/game/:id/invitations", getGameInvitationsHandler(app))
	api.f.Post("/game/:id/invite_regulars", getInviteRegularsHandler(app))
	api.f.Post("/game/:id/rotate/:position", getRotateHandler(app))
	api.f.Post("/game/:id/cancel", getCancelGameHandler(app))
	api.f.Get("/fairness/:tenant", getFairnessHandler(app))

	api.f.Get("/ws", getWsHandler(app))

	return api
}

func (api *AdminAPI) Address() string {
	return api.addr
}

func (api *AdminAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func getIndexHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := map[string]any{
			"theme": "auto",
			"page":  " dash",
		}

		return ctx.Render("templates/index", data, "templates/header")
	}
}

func getConfigHandler() fiber.Handler {
	m := map[string]any{"version": gitRevision}

	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(m)
	}
}

func getTenantsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(app.dbm.TenantQuery().Active(true).Get())
	}
}

func getTenantUpdateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := strconv.Atoi(ctx.Params("id"))
		if err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if !authorizedForTenant(app, ctx, uint(id)) {
			return ctx.SendStatus(fiber.StatusForbidden)
		}

		var req model.TenantUpdate

		if err := ctx.BodyParser(&req); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		updates := make(map[string]any)

		if req.Name != "" {
			updates["name"] = req.Name
		}

		if req.PositionMode != "" {
			if req.PositionMode != model.ModeThreePosition && req.PositionMode != model.ModeTwoPosition {
				return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unknown position mode"})
			}

			updates["position_mode"] = req.PositionMode
		}

		if len(updates) == 0 {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if err := app.dbm.TenantQuery().Id(uint(id)).Update(updates); err != nil {
			if errors.Is(err, database.ErrNoRecord) {
				return ctx.SendStatus(fiber.StatusNotFound)
			}

			return err
		}

		// The rotation engine caches tenant rows, the new settings must
		// reach the next step.
		app.store.InvalidateTenant(uint(id))

		return ctx.JSON(app.dbm.TenantQuery().Id(uint(id)).One())
	}
}

func getPlayersHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tenantID := uint(ctx.QueryInt("tenant"))

		if !authorizedForTenant(app, ctx, tenantID) {
			return ctx.SendStatus(fiber.StatusForbidden)
		}

		players := app.dbm.PlayerQuery().Tenant(tenantID).Get()
		result := make([]*model.WebPlayer, len(players))

		for i, p := range players {
			result[i] = model.ToWebPlayer(p)
		}

		return ctx.JSON(result)
	}
}

func getGamesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tenantID := uint(ctx.QueryInt("tenant"))

		if !authorizedForTenant(app, ctx, tenantID) {
			return ctx.SendStatus(fiber.StatusForbidden)
		}

		games := app.dbm.GameQuery().Tenant(tenantID).Get()
		result := make([]*model.WebGame, len(games))

		for i, g := range games {
			result[i] = model.ToWebGame(g)
		}

		return ctx.JSON(result)
	}
}

// getGameHandler returns the game with the derived state of every slot:
// filled, awaiting_response, open or exhausted.
func getGameHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		game, status := gameForRequest(app, ctx)

		if game == nil {
			return ctx.SendStatus(status)
		}

		slots, err := app.cascade.SlotStates(game.ID)
		if err != nil {
			return err
		}

		result := model.ToWebGame(game)
		result.Slots = slots

		return ctx.JSON(result)
	}
}

func getGameInvitationsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		game, status := gameForRequest(app, ctx)

		if game == nil {
			return ctx.SendStatus(status)
		}

		invitations := app.dbm.InvitationQuery().Game(game.ID).Full().Get()
		result := make([]*model.WebInvitation, len(invitations))

		for i, inv := range invitations {
			result[i] = model.ToWebInvitation(inv)
		}

		return ctx.JSON(result)
	}
}

func getInviteRegularsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		game, status := gameForRequest(app, ctx)

		if game == nil {
			return ctx.SendStatus(status)
		}

		sum, err := app.cascade.InviteRegulars(ctx.Context(), game.ID)
		if err != nil {
			return err
		}

		return ctx.JSON(sum)
	}
}

func getRotateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		game, status := gameForRequest(app, ctx)

		if game == nil {
			return ctx.SendStatus(status)
		}

		res, err := app.cascade.RunRotationStep(ctx.Context(), game.ID, ctx.Params("position"))

		if err != nil {
			if errors.Is(err, rotation.ErrPositionMode) {
				return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
			}

			return err
		}

		return ctx.JSON(fiber.Map{"outcome": res.Outcome})
	}
}

func getCancelGameHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		game, status := gameForRequest(app, ctx)

		if game == nil {
			return ctx.SendStatus(status)
		}

		if err := app.cascade.CancelGame(game.ID); err != nil {
			return err
		}

		return ctx.SendStatus(fiber.StatusOK)
	}
}

func getFairnessHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tenantID, err := strconv.Atoi(ctx.Params("tenant"))
		if err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if !authorizedForTenant(app, ctx, uint(tenantID)) {
			return ctx.SendStatus(fiber.StatusForbidden)
		}

		tier := ctx.QueryInt("tier")

		return ctx.JSON(app.cascade.FairnessSnapshot(uint(tenantID), tier))
	}
}

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(app.logger, name, ws)

		app.logger.Debug("ws client connected")
		app.cascade.Events().SubscribeNamed(name, h.SendSlotEvent)
		h.Listen()
		app.cascade.Events().Unsubscribe(name)
		app.logger.Debug("ws client disconnected")
	})
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func gameForRequest(app *App, ctx *fiber.Ctx) (*model.Game, int) {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest
	}

	game := app.dbm.GameQuery().Id(uint(id)).One()

	if game == nil {
		return nil, fiber.StatusNotFound
	}

	if !authorizedForTenant(app, ctx, game.TenantID) {
		return nil, fiber.StatusForbidden
	}

	return game, fiber.StatusOK
}

func authorizedForTenant(app *App, ctx *fiber.Ctx, tenantID uint) bool {
	return app.users.Get(Username(ctx)).CanSeeTenant(tenantID)
}
