package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/robfig/cron"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/kpelto/benchline/internal/database"
	"github.com/kpelto/benchline/internal/notify"
	"github.com/kpelto/benchline/internal/repository"
	"github.com/kpelto/benchline/internal/rotation"
	"github.com/kpelto/benchline/internal/tokens"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger  *slog.Logger
	uid     string
	dbm     *database.DatabaseManager
	store   *rotation.DBStore
	cascade *rotation.Cascade
	users   repository.UserRepository
	signer  *tokens.Signer

	ctx context.Context
}

func NewApp(ctx context.Context) (*App, error) {
	db, err := gorm.Open(sqlite.Open(viper.GetString("db")), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	dbm := database.New(db)

	if err := dbm.Migrate(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	signer := tokens.NewSigner(
		[]byte(viper.GetString("token_key")),
		viper.GetDuration("response_deadline"))

	links := notify.NewLinks(viper.GetString("base_url"), signer)
	store := rotation.NewDBStore(dbm)

	app := &App{
		logger:  slog.Default(),
		uid:     uuid.NewString(),
		dbm:     dbm,
		store:   store,
		cascade: rotation.NewCascade(store, newGateway(links)),
		users:   repository.NewFileUserRepo(viper.GetString("users_file")),
		signer:  signer,
		ctx:     ctx,
	}

	return app, nil
}

func newGateway(links *notify.Links) rotation.Gateway {
	switch viper.GetString("gateway.type") {
	case "mail":
		return notify.NewMailGateway(&notify.MailConfig{
			Addr: viper.GetString("gateway.mail.addr"),
			Host: viper.GetString("gateway.mail.host"),
			From: viper.GetString("gateway.mail.from"),
			User: viper.GetString("gateway.mail.user"),
			Pass: viper.GetString("gateway.mail.password"),
		}, links)
	case "webhook":
		return notify.NewWebhookGateway(viper.GetString("gateway.webhook.url"), links)
	default:
		return notify.NewLogGateway(links)
	}
}

func (app *App) Run() {
	if err := app.users.Start(); err != nil {
		app.logger.Error("error starting user repo", slog.Any("error", err))
	}

	defer app.users.Stop()

	c := cron.New()

	if err := c.AddFunc(viper.GetString("sweep_cron"), app.sweep); err != nil {
		app.logger.Error("error scheduling sweep", slog.Any("error", err))
	}

	c.Start()
	defer c.Stop()

	admin := NewAdminAPI(app, viper.GetString("admin_addr"))
	public := NewPublicAPI(app, viper.GetString("public_addr"))

	go func() {
		if err := admin.Listen(); err != nil {
			app.logger.Error("admin api error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	go func() {
		if err := public.Listen(); err != nil {
			app.logger.Error("public api error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	app.logger.Info(fmt.Sprintf("server started, rev %s (%s)", gitRevision, gitBranch))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc

	app.logger.Info("exiting")
}

// sweep expires invitations whose response deadline has lapsed and
// cascades the affected slots.
func (app *App) sweep() {
	deadline := time.Now().Add(-viper.GetDuration("response_deadline"))

	if n := app.cascade.SweepExpired(app.ctx, deadline); n > 0 {
		app.logger.Info(fmt.Sprintf("sweep expired %d invitations", n))
	}
}

func setDefaults() {
	viper.SetDefault("db", "benchline.db")
	viper.SetDefault("admin_addr", ":8088")
	viper.SetDefault("public_addr", ":8080")
	viper.SetDefault("base_url", "http://localhost:8080")
	viper.SetDefault("users_file", "users.yml")
	viper.SetDefault("token_key", "")
	viper.SetDefault("response_deadline", "48h")
	viper.SetDefault("sweep_cron", "@every 10m")
	viper.SetDefault("gateway.type", "log")
	viper.SetDefault("gateway.mail.addr", "localhost:25")
}

func main() {
	conf := flag.String("config", "benchline.yml", "name of config file")
	debug := flag.Bool("debug", false, "debug")
	flag.Parse()

	setDefaults()

	viper.SetConfigFile(*conf)
	viper.SetEnvPrefix("benchline")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
	}

	var h slog.Handler

	if *debug {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	slog.SetDefault(slog.New(h))

	if viper.GetString("token_key") == "" {
		key := uuid.NewString()
		viper.Set("token_key", key)
		slog.Warn("no token_key configured, using a random one - response links will not survive a restart")
	}

	app, err := NewApp(context.Background())
	if err != nil {
		slog.Error("init error", slog.Any("error", err))
		os.Exit(1)
	}

	app.Run()
}
