package router

import (
	"time"

	"github.com/m3rciful/dallebot/core/logger"
	tg "github.com/m3rciful/dallebot/core/telegram"
	"github.com/m3rciful/dallebot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes prepares slash-command handlers wrapped with shared
// middleware. Every route carries the full chain: panic recovery, request
// logging, metrics and the per-command ban/role filters.
func CommandRoutes(reg *tg.Registry, access middleware.AccessOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for key, def := range reg.Commands() {
		name := normalizeHandlerName(key)
		inner := def.Handler
		summarised := func(c tele.Context) error {
			return handleWithSummary(c, name, time.Now(), "", "", func() error {
				return inner(c)
			})
		}
		h := middleware.AccessMiddleware(access, def.Role, def.BanExempt)(summarised)
		h = middleware.LoggerMiddleware(h)
		h = middleware.RecoverMiddleware(h)
		routes = append(routes, tg.Route{
			Endpoint: key,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("queries", len(reg.ListQueries())),
	)

	return routes
}
