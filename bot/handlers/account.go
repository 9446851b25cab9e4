package handlers

import (
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// Account shows the profile card with the quota counter.
func Account(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		sender := c.Sender()

		user, _, err := d.Users.GetOrCreate(ctx, sender.ID, d.Cfg.OpenAI.ImageSize, d.Cfg.OpenAI.ImagesPerRequest)
		if err != nil {
			return err
		}

		name := sender.FirstName
		if name == "" {
			name = sender.Username
		}
		used := d.Limiter.GetMessageCount(sender.ID)
		return tghelpers.SendMD(c, texts.AccountInfo(name, sender.ID, user.CreatedAt, used, d.Cfg.Limits.RateLimitCount))
	}
}
