package handlers

import (
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"github.com/m3rciful/dallebot/core/telegram/keyboard"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// Cancel drops the user's pending session, if any. Cancellation always wins
// over a live continuation because the command token is matched before the
// session store is consulted.
func Cancel(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		uid := c.Sender().ID
		if _, live := d.Sessions.PendingToken(uid); !live {
			return tghelpers.SendText(c, texts.NothingToCancel, &tele.SendOptions{
				ReplyMarkup: keyboard.RemoveKeyboard(),
			})
		}
		d.Sessions.RemoveLastCommand(uid)
		return tghelpers.SendText(c, texts.OperationCancelled, &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})
	}
}
