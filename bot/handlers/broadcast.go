package handlers

import (
	"github.com/m3rciful/dallebot/core/logger"
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"github.com/m3rciful/dallebot/core/telegram/keyboard"
	"log/slog"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// Broadcast arms the session that waits for the message to forward.
func Broadcast(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		uid := c.Sender().ID
		d.Sessions.SetLastCommand(uid, TokenBroadcast, d.Cfg.Limits.SessionTurns, "")
		return tghelpers.SendText(c, texts.AdminBroadcastAsk, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons([]string{texts.CancelButton}),
		})
	}
}

// BroadcastContinue forwards the received message to every non-banned user.
// Delivery is synchronous and best-effort; individual failures only count.
func BroadcastContinue(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID

		ids, err := d.Users.ListIDs(ctx, false)
		if err != nil {
			return err
		}

		d.Sessions.RemoveLastCommand(uid)
		if err := tghelpers.SendText(c, texts.BroadcastStarted(len(ids)), &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		}); err != nil {
			return err
		}

		text := c.Text()
		sent, failed := 0, 0
		for _, id := range ids {
			if _, err := c.Bot().Send(&tele.User{ID: id}, text); err != nil {
				failed++
				logger.Debug(ctx, "tg", "broadcast.send_failed",
					slog.Int64("user_id", id),
					slog.String("err", err.Error()),
				)
				continue
			}
			sent++
		}

		logger.Info(ctx, "tg", "broadcast.finished",
			slog.Int("sent", sent),
			slog.Int("failed", failed),
		)
		return tghelpers.SendText(c, texts.BroadcastFinished(sent, failed))
	}
}
