package router

import (
	"time"

	tg "github.com/m3rciful/dallebot/core/telegram"
	"github.com/m3rciful/dallebot/core/telegram/callbacks"
	"github.com/m3rciful/dallebot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callback queries through the
// registry. The query's ban and role filters run before its handler; an
// unknown key lands in the not-found fallback.
func CallbackRoute(reg *tg.Registry, access middleware.AccessOptions, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		q, ok := reg.GetQuery(key)
		if !ok || q.Handler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		guarded := middleware.AccessMiddleware(access, q.Role, q.BanExempt)(q.Handler)
		return handleWithSummary(c, name, start, "", "", func() error {
			return guarded(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
