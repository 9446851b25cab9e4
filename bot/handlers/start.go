package handlers

import (
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// Start greets the user and creates their account row on first contact.
func Start(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		sender := c.Sender()

		_, created, err := d.Users.GetOrCreate(ctx, sender.ID, d.Cfg.OpenAI.ImageSize, d.Cfg.OpenAI.ImagesPerRequest)
		if err != nil {
			return err
		}

		name := sender.FirstName
		if name == "" {
			name = sender.Username
		}
		return tghelpers.SendMD(c, texts.StartInfo(sender.ID, name, created))
	}
}
