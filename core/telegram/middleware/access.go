package middleware

import (
	"context"

	"github.com/m3rciful/dallebot/core/logger"
	"github.com/m3rciful/dallebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Account is the minimal read-only view of a user record the authorization
// filters need. It is resolved once per update and never mutated here.
type Account struct {
	ID     int64
	Role   commands.Role
	Banned bool
}

// BanAllowed is the ban filter: banned users are denied unless the command is
// explicitly exempt. Pure function of (account, exemption).
func BanAllowed(acc Account, banExempt bool) bool {
	return banExempt || !acc.Banned
}

// RoleAllowed is the role filter: the account's role must be at least the
// descriptor's required role.
func RoleAllowed(acc Account, required commands.Role) bool {
	return acc.Role >= required
}

// AccessOptions configures the per-route authorization middleware.
type AccessOptions struct {
	// Resolve loads the account for a Telegram user id.
	Resolve func(ctx context.Context, userID int64) (Account, error)
	// OnBanned produces the fixed denial message for banned users.
	OnBanned tele.HandlerFunc
	// OnNotFound produces the unknown-command style denial used for role
	// misses, so restricted tokens are not discoverable by regular users.
	OnNotFound tele.HandlerFunc
	// OnError reports a failed account resolution to the user.
	OnError tele.HandlerFunc
}

// AccessMiddleware enforces ban and role checks, in that order, before the
// wrapped handler runs. Each denial path notifies the user exactly once and
// never reaches the handler.
func AccessMiddleware(opts AccessOptions, required commands.Role, banExempt bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)

			acc, err := opts.Resolve(ctx, sender.ID)
			if err != nil {
				logger.TG.LogAttrs(ctx, slog.LevelError, "access.resolve_failed",
					slog.Int64("user_id", sender.ID),
					slog.String("err", err.Error()),
				)
				if opts.OnError != nil {
					return opts.OnError(c)
				}
				return nil
			}

			if !BanAllowed(acc, banExempt) {
				logger.TG.LogAttrs(ctx, slog.LevelInfo, "access.denied",
					slog.String("status", "denied"),
					slog.Int64("user_id", acc.ID),
					slog.String("cause", "banned"),
				)
				if opts.OnBanned != nil {
					return opts.OnBanned(c)
				}
				return nil
			}

			if !RoleAllowed(acc, required) {
				logger.TG.LogAttrs(ctx, slog.LevelInfo, "access.denied",
					slog.String("status", "denied"),
					slog.Int64("user_id", acc.ID),
					slog.String("cause", "role"),
				)
				if opts.OnNotFound != nil {
					return opts.OnNotFound(c)
				}
				return nil
			}

			return next(c)
		}
	}
}
