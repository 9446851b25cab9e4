package handlers

import (
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// UnknownText answers plain text that matched neither a command nor a live
// session. The same handler backs role denials so restricted commands are
// indistinguishable from nonexistent ones.
func UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, texts.NotExistCommand)
	}
}

// Banned is the fixed denial for banned accounts.
func Banned() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, texts.BannedUser)
	}
}

// Failure tells the user that account resolution failed.
func Failure() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, texts.InternalError)
	}
}
