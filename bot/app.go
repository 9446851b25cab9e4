// Package bot wires the command registry, caches and repositories into a
// runnable Telegram application.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/dallebot/core/config"
	"github.com/m3rciful/dallebot/core/logger"
	"github.com/m3rciful/dallebot/core/openai"
	coretelegram "github.com/m3rciful/dallebot/core/telegram"
	"github.com/m3rciful/dallebot/core/telegram/cache"
	"github.com/m3rciful/dallebot/core/telegram/commands"
	"github.com/m3rciful/dallebot/core/telegram/middleware"
	"github.com/m3rciful/dallebot/core/telegram/router"
	"log/slog"

	"github.com/m3rciful/dallebot/bot/handlers"
	"github.com/m3rciful/dallebot/bot/texts"
	"github.com/m3rciful/dallebot/bot/users"
)

const sessionSweepInterval = 5 * time.Minute

// App owns the long-lived bot state.
type App struct {
	cfg      *coreconfig.Config
	registry *coretelegram.Registry
	sessions *cache.SessionCache
	limiter  *cache.RateLimiter
	users    *users.Repository
	access   middleware.AccessOptions

	sweepCancel context.CancelFunc
}

// New builds the application: caches, repositories, the OpenAI client and a
// fully populated registry. A registration conflict aborts startup.
func New(cfg *coreconfig.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}

	repo := users.NewRepository(db)

	sessions := cache.NewSessionCache(time.Duration(cfg.Limits.SessionTTLMinutes) * time.Minute)
	limiter := cache.NewRateLimiter(cfg.Limits.RateLimitCount, time.Duration(cfg.Limits.RateLimitWindowHrs)*time.Hour)
	client := openai.New(openai.Config{APIKey: cfg.OpenAI.APIKey})

	deps := handlers.Deps{
		Cfg:      cfg,
		Users:    repo,
		Sessions: sessions,
		Limiter:  limiter,
		OpenAI:   client,
	}

	registry, err := buildRegistry(deps)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		registry: registry,
		sessions: sessions,
		limiter:  limiter,
		users:    repo,
		access: middleware.AccessOptions{
			Resolve:    resolveAccount(cfg, repo),
			OnBanned:   handlers.Banned(),
			OnNotFound: handlers.UnknownText(),
			OnError:    handlers.Failure(),
		},
	}
	return app, nil
}

func buildRegistry(d handlers.Deps) (*coretelegram.Registry, error) {
	reg := coretelegram.NewRegistry()

	cmds := map[string]commands.Command{
		"/start": {
			Handler:     handlers.Start(d),
			Description: "Start the bot",
			BanExempt:   true,
		},
		handlers.TokenCreateImage: {
			Handler:     handlers.CreateImage(d),
			Continue:    handlers.CreateImageContinue(d),
			Description: "Generate images from a prompt",
		},
		"/cancel": {
			Handler:     handlers.Cancel(d),
			Description: "Cancel the current operation",
			// The reply-keyboard cancel button sends its label as plain
			// text; the alias routes it here before any live session.
			Aliases: []string{texts.CancelButton},
		},
		"/account": {
			Handler:     handlers.Account(d),
			Description: "Show your profile and quota",
		},
		handlers.TokenAPIKey: {
			Handler:     handlers.APIKey(d),
			Continue:    handlers.APIKeyContinue(d),
			Description: "Configure your own API key",
		},
		handlers.TokenGetUser: {
			Handler:     handlers.GetUser(d),
			Continue:    handlers.GetUserContinue(d),
			Description: "Look up a user record",
			Role:        commands.RoleAdmin,
			Hidden:      true,
		},
		"/stats": {
			Handler:     handlers.Stats(d),
			Description: "Show user statistics",
			Role:        commands.RoleAdmin,
			Hidden:      true,
		},
		handlers.TokenBroadcast: {
			Handler:     handlers.Broadcast(d),
			Continue:    handlers.BroadcastContinue(d),
			Description: "Forward a message to all users",
			Role:        commands.RoleAdmin,
			Hidden:      true,
		},
	}
	for token, cmd := range cmds {
		if err := reg.RegisterCommand(token, cmd); err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
	}

	queries := map[string]commands.Query{
		handlers.QueryBanUser:   {Handler: handlers.BanUser(d), Role: commands.RoleAdmin},
		handlers.QueryUnbanUser: {Handler: handlers.UnbanUser(d), Role: commands.RoleAdmin},
		handlers.QueryGetUser:   {Handler: handlers.RefreshUser(d), Role: commands.RoleAdmin},
		handlers.QueryLogReport: {Handler: handlers.LogReport(d), Role: commands.RoleAdmin},
	}
	for key, q := range queries {
		if err := reg.RegisterQuery(key, q); err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
	}

	reg.SetTextFallback(handlers.UnknownText())
	return reg, nil
}

func resolveAccount(cfg *coreconfig.Config, repo *users.Repository) func(context.Context, int64) (middleware.Account, error) {
	return func(ctx context.Context, userID int64) (middleware.Account, error) {
		u, _, err := repo.GetOrCreate(ctx, userID, cfg.OpenAI.ImageSize, cfg.OpenAI.ImagesPerRequest)
		if err != nil {
			return middleware.Account{}, err
		}
		role := commands.RoleUser
		if userID == cfg.Telegram.AdminID {
			role = commands.RoleAdmin
		}
		return middleware.Account{ID: u.ID, Role: role, Banned: u.Banned}, nil
	}
}

// TelegramRunOptions assembles the routes and lifecycle hooks for RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, a.access)
	routes = append(routes, router.CallbackRoute(a.registry, a.access, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, a.access, router.TextOptions{
		UnknownText: handlers.UnknownText(),
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.startSessionSweeper(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.sweepCancel != nil {
				a.sweepCancel()
			}
			return nil
		},
	}, nil
}

// startSessionSweeper drops expired session entries in the background.
// Expiry is also enforced lazily on access, so this only bounds memory.
func (a *App) startSessionSweeper(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	a.sweepCancel = cancel

	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := a.sessions.Sweep(); removed > 0 {
					logger.Debug(ctx, "tg", "session.sweep",
						slog.Int("removed", removed),
					)
				}
			}
		}
	}()
}
