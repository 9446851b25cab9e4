package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/dallebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"github.com/m3rciful/dallebot/core/telegram/keyboard"

	"github.com/m3rciful/dallebot/bot/texts"
	"github.com/m3rciful/dallebot/bot/users"

	tele "gopkg.in/telebot.v4"
)

// GetUser arms the admin lookup session.
func GetUser(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		uid := c.Sender().ID
		d.Sessions.SetLastCommand(uid, TokenGetUser, d.Cfg.Limits.SessionTurns, "")
		return tghelpers.SendText(c, texts.AdminAskUserID, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons([]string{texts.CancelButton}),
		})
	}
}

// GetUserContinue receives the looked-up id and renders the user card with
// the ban toggle keyboard.
func GetUserContinue(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		uid := c.Sender().ID

		target, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
		if err != nil {
			// Leave the session armed, the remaining budget allows a retry.
			return tghelpers.SendText(c, texts.AdminInvalidUserID)
		}

		user, err := d.Users.GetByID(ctx, target)
		if errors.Is(err, users.ErrNotFound) {
			return tghelpers.SendText(c, texts.UserNotFound(target))
		}
		if err != nil {
			return err
		}

		d.Sessions.RemoveLastCommand(uid)
		return tghelpers.SendMD(c, texts.UserInfo(user.ID, user.Banned, user.CreatedAt), banToggleMarkup(user.ID, user.Banned))
	}
}

// BanUser handles the ban toggle callback; unban is the mirror image.
func BanUser(d Deps) tele.HandlerFunc {
	return setBanQuery(d, true)
}

// UnbanUser lifts a ban from the user card keyboard.
func UnbanUser(d Deps) tele.HandlerFunc {
	return setBanQuery(d, false)
}

func setBanQuery(d Deps, banned bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)

		target, err := callbacks.PayloadInt64(c)
		if err != nil {
			return tghelpers.SendText(c, texts.AdminInvalidUserID)
		}

		if err := d.Users.SetBan(ctx, target, banned); err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return tghelpers.SendText(c, texts.UserNotFound(target))
			}
			return err
		}

		user, err := d.Users.GetByID(ctx, target)
		if err != nil {
			return err
		}
		return tghelpers.EditMD(c, texts.UserInfo(user.ID, user.Banned, user.CreatedAt), banToggleMarkup(user.ID, user.Banned))
	}
}

// RefreshUser re-renders the user card in place from the current row.
func RefreshUser(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)

		target, err := callbacks.PayloadInt64(c)
		if err != nil {
			return tghelpers.SendText(c, texts.AdminInvalidUserID)
		}

		user, err := d.Users.GetByID(ctx, target)
		if errors.Is(err, users.ErrNotFound) {
			return tghelpers.SendText(c, texts.UserNotFound(target))
		}
		if err != nil {
			return err
		}
		return tghelpers.EditMD(c, texts.UserInfo(user.ID, user.Banned, user.CreatedAt), banToggleMarkup(user.ID, user.Banned))
	}
}

func banToggleMarkup(userID int64, banned bool) *tele.ReplyMarkup {
	payload := strconv.FormatInt(userID, 10)
	toggle := keyboard.InlineBtn{Text: "⛔ Ban", Unique: QueryBanUser, Data: payload}
	if banned {
		toggle = keyboard.InlineBtn{Text: "✅ Unban", Unique: QueryUnbanUser, Data: payload}
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{toggle},
		[]keyboard.InlineBtn{{Text: "🔄 Refresh", Unique: QueryGetUser, Data: payload}},
	)
}

// Stats renders the user table summary with the log report shortcut.
func Stats(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		stats, err := d.Users.GetStats(ctx)
		if err != nil {
			return err
		}
		markup := keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: texts.AdminLogReportButton, Unique: QueryLogReport, Data: "logs"},
		})
		return tghelpers.SendMD(c, texts.StatsInfo(stats.Total, stats.Banned), markup)
	}
}
