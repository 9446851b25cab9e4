package router

import (
	"time"

	tg "github.com/m3rciful/dallebot/core/telegram"
	"github.com/m3rciful/dallebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Sessions is the minimal view of the pending-command store the text router
// needs to route continuations.
type Sessions interface {
	PendingToken(userID int64) (string, bool)
	CanGetLastCommand(userID int64, token string, minTurns int, consume bool) bool
}

// TextOptions controls fallback behaviour for plain text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the OnText handler. Routing order is fixed:
//
//  1. the leading token names a registered command: dispatch its handler;
//  2. the sender has a live pending session and the session's command has a
//     continuation handler: charge one turn and dispatch the continuation;
//  3. otherwise the registry's text fallback, then opts.UnknownText.
//
// A message that names a command never touches the session budget, and the
// ban/role filters of the target command run before a turn is consumed, so
// an update that ends in a denial leaves the session intact.
func TextRoutes(sessions Sessions, reg *tg.Registry, access middleware.AccessOptions, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.ResolveText(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				guarded := middleware.AccessMiddleware(access, cmd.Role, cmd.BanExempt)(cmd.Handler)
				return handleWithSummary(c, name, start, "", "", func() error {
					return guarded(c)
				})
			}
		}

		if sessions != nil && reg != nil && c.Sender() != nil {
			uid := c.Sender().ID
			if token, live := sessions.PendingToken(uid); live {
				if key, cmd, found := reg.LookupCommand(token); found && cmd.Continue != nil {
					name := normalizeHandlerName(key) + ".continue"
					cont := cmd.Continue
					guarded := middleware.AccessMiddleware(access, cmd.Role, cmd.BanExempt)(func(c tele.Context) error {
						// The entry may have expired between the peek above
						// and this charge; treat that as no session at all.
						if !sessions.CanGetLastCommand(uid, token, 1, true) {
							return runFallback(reg, opts, c)
						}
						return cont(c)
					})
					return handleWithSummary(c, name, start, "", "", func() error {
						return guarded(c)
					})
				}
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}

func runFallback(reg *tg.Registry, opts TextOptions, c tele.Context) error {
	if reg != nil {
		if fb := reg.TextFallback(); fb != nil {
			return fb(c)
		}
	}
	if opts.UnknownText != nil {
		return opts.UnknownText(c)
	}
	return nil
}
