package handlers

import (
	"errors"

	"github.com/m3rciful/dallebot/core/logger"
	"github.com/m3rciful/dallebot/core/openai"
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"github.com/m3rciful/dallebot/core/telegram/keyboard"
	"log/slog"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// CreateImage arms the generation session. Users without their own API key
// pass the shared quota checks first; users with a key are validated against
// the backend and run without the limit.
func CreateImage(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID

		user, _, err := d.Users.GetOrCreate(ctx, uid, d.Cfg.OpenAI.ImageSize, d.Cfg.OpenAI.ImagesPerRequest)
		if err != nil {
			return err
		}

		if !user.HasAPIKey() {
			// One limiter read per dispatch; both tiers decide on the same
			// snapshot.
			used := d.Limiter.GetMessageCount(uid)
			if used >= d.Cfg.Limits.RateLimitCount {
				return tghelpers.SendMD(c, texts.GenerationExceeded)
			}
			if !fitsQuota(user.ImageCount, used, d.Cfg.Limits.RateLimitCount) {
				return tghelpers.SendMD(c, texts.GenerationLimitLeft(d.Cfg.Limits.RateLimitCount-used))
			}
			d.Sessions.SetLastCommand(uid, TokenCreateImage, d.Cfg.Limits.SessionTurns, payloadWithLimit)
		} else {
			if err := d.OpenAI.ValidateAPIKey(ctx, user.APIKey); err != nil {
				logger.Warn(ctx, "tg", "apikey.validate_failed",
					slog.Int64("user_id", uid),
					slog.String("err", err.Error()),
				)
				return tghelpers.SendText(c, texts.GenerationBadAPIKey)
			}
			d.Sessions.SetLastCommand(uid, TokenCreateImage, d.Cfg.Limits.SessionTurns, payloadWithoutLimit)
		}

		return tghelpers.SendText(c, texts.GenerationSendPrompt, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons([]string{texts.CancelButton}),
		})
	}
}

// CreateImageContinue handles the prompt message of an armed session. The
// router has already charged one turn; on failure the entry is left in
// place so the remaining budget covers a retry, on success it is removed.
func CreateImageContinue(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID
		prompt := c.Text()

		user, err := d.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}

		processing, err := c.Bot().Send(c.Recipient(), texts.GenerationProcessing, &tele.SendOptions{
			ParseMode:   tele.ModeMarkdown,
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})
		if err != nil {
			return err
		}

		res, genErr := d.OpenAI.GenerateImages(ctx, prompt, user.ImageCount, user.ImageSize, user.APIKey)
		if genErr != nil {
			msg := texts.InternalError
			var apiErr *openai.Error
			if errors.As(genErr, &apiErr) {
				if apiErr.Unauthorized() {
					msg = texts.GenerationBadAPIKey
				} else {
					msg = texts.GenerationFailed(res.Elapsed, apiErr.Message)
				}
			}
			_, _ = c.Bot().Edit(processing, msg)
			return genErr
		}

		payload, _ := d.Sessions.GetCommandData(uid, false)
		d.Sessions.RemoveLastCommand(uid)

		if payload == payloadWithLimit {
			d.Limiter.UpdateUserMessageCount(uid, len(res.URLs))
		}

		_ = c.Bot().Delete(processing)
		if err := tghelpers.SendMD(c, texts.GenerationCompleted(res.Elapsed)); err != nil {
			return err
		}

		_ = tghelpers.Notify(c, tele.UploadingPhoto)
		album := make(tele.Album, 0, len(res.URLs))
		for _, url := range res.URLs {
			album = append(album, &tele.Photo{File: tele.FromURL(url)})
		}
		return tghelpers.SendAlbum(c, album)
	}
}

// fitsQuota reports whether a generation requesting perRequest images still
// fits under the window ceiling given the in-window usage.
func fitsQuota(perRequest, used, limit int) bool {
	return perRequest+used <= limit
}
