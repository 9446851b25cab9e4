package handlers

import (
	"strings"

	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"github.com/m3rciful/dallebot/core/telegram/keyboard"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

const apiKeyMinLength = 20

// APIKey shows the current key state and arms the session that waits for a
// new key. Sending "clear" inside the session removes the stored key.
func APIKey(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID

		user, _, err := d.Users.GetOrCreate(ctx, uid, d.Cfg.OpenAI.ImageSize, d.Cfg.OpenAI.ImagesPerRequest)
		if err != nil {
			return err
		}

		if user.HasAPIKey() {
			if err := tghelpers.SendMD(c, "Secret Key: *"+maskKey(user.APIKey)+"*"); err != nil {
				return err
			}
		} else {
			if err := tghelpers.SendText(c, texts.APIKeyNotSet); err != nil {
				return err
			}
		}

		d.Sessions.SetLastCommand(uid, TokenAPIKey, d.Cfg.Limits.SessionTurns, "")
		return tghelpers.SendText(c, texts.APIKeyAsk, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons([]string{texts.CancelButton}),
		})
	}
}

// APIKeyContinue receives the key text of an armed session.
func APIKeyContinue(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID
		text := strings.TrimSpace(c.Text())

		if strings.EqualFold(text, "clear") {
			if err := d.Users.SetAPIKey(ctx, uid, ""); err != nil {
				return err
			}
			d.Sessions.RemoveLastCommand(uid)
			return tghelpers.SendText(c, texts.APIKeyCleared, &tele.SendOptions{
				ReplyMarkup: keyboard.RemoveKeyboard(),
			})
		}

		// A bad key leaves the session armed so the remaining budget covers
		// one more attempt.
		if !strings.HasPrefix(text, "sk-") || len(text) < apiKeyMinLength {
			return tghelpers.SendText(c, texts.APIKeyBadFormat)
		}
		if err := d.OpenAI.ValidateAPIKey(ctx, text); err != nil {
			return tghelpers.SendText(c, texts.APIKeyRejected)
		}

		if err := d.Users.SetAPIKey(ctx, uid, text); err != nil {
			return err
		}
		d.Sessions.RemoveLastCommand(uid)
		return tghelpers.SendText(c, texts.APIKeySaved, &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:5] + strings.Repeat("*", 6) + key[len(key)-3:]
}
