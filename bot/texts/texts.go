// Package texts holds every user-facing message in one place so handlers
// stay free of literals.
package texts

import (
	"fmt"
	"time"
)

const (
	NotExistCommand = "Sorry, your command does not exist.\nUse the buttons below:"
	BannedUser      = "You are banned from using this bot."
	InternalError   = "⚠️ Unfortunately, there is a problem in executing the order.\nContact support if needed."

	GenerationProcessing = "⏳Processing\n_please wait..._"
	GenerationExceeded   = "You can't generate images right now, the daily limit is used up."
	GenerationSendPrompt = "Please send a prompt to generate your image"
	GenerationBadAPIKey  = "Sorry, there was an error with your API key. OpenAI was unable to authorize your key."

	OperationCancelled = "Your operation cancelled"
	NothingToCancel    = "There is nothing to cancel."

	APIKeyAsk       = "Please send your api key"
	APIKeyBadFormat = "Invalid API key format."
	APIKeyRejected  = "Unauthorized API key."
	APIKeySaved     = "Your API key has been saved. Generations now run without the shared limit."
	APIKeyCleared   = "Your API key has been removed."
	APIKeyNotSet    = "You haven't set a secret key yet."

	AdminAskUserID       = "Please enter the user Id you would like to search for."
	AdminInvalidUserID   = "Your input is invalid! Please enter a valid user Id."
	AdminBroadcastAsk    = "Please enter the message you would like to send."
	AdminLogReportButton = "📝 Log report"
	AdminLogReportEmpty  = "There are no log files to report."
	CancelButton         = "❌Cancel"
)

// StartInfo greets the user with a mention link, with a different first
// line on repeat visits.
func StartInfo(userID int64, name string, newUser bool) string {
	greeting := "Hello"
	if !newUser {
		greeting = "Hello again"
	}
	return fmt.Sprintf(
		"👋🏻 %s! [%s](tg://user?id=%d)\n"+
			"Welcome to the *DALLE* bot!\n\n"+
			"• Write a sentence for me to create a picture of it for you.\n\n"+
			"• You can configure your API key in the bot and take pictures without any restrictions.\n\n"+
			"• Please don't use awkward words to create photos.",
		greeting, name, userID)
}

// GenerationCompleted reports the backend round-trip time.
func GenerationCompleted(elapsed time.Duration) string {
	return fmt.Sprintf("⌛️Completed✅\n(%05.2fs)", elapsed.Seconds())
}

// GenerationFailed reports a backend error together with its duration.
func GenerationFailed(elapsed time.Duration, msg string) string {
	return fmt.Sprintf("Uncompleted📛\n(%05.2fs)\nError: %s", elapsed.Seconds(), msg)
}

// GenerationLimitLeft tells the user how many images the quota still allows.
func GenerationLimitLeft(remaining int) string {
	return fmt.Sprintf("You can only make %d more photos", remaining)
}

// AccountInfo renders the /account profile card.
func AccountInfo(name string, userID int64, createdAt time.Time, count, maxCount int) string {
	return fmt.Sprintf(
		"☃️ *Profile*\n\n"+
			"🗣 _Name_: *%s*\n"+
			"🔑 _ID_: %d\n"+
			"🐣 _Registration date_: %s\n\n"+
			"⏳ _Count_: `%d/%d`",
		name, userID, createdAt.Format("2006-01-02"), count, maxCount)
}

// UserInfo renders the admin view of a user record.
func UserInfo(userID int64, banned bool, createdAt time.Time) string {
	ban := "NO"
	if banned {
		ban = "YES"
	}
	return fmt.Sprintf(
		"🔑 _ID_: *%d*\n"+
			"🐣 _Registration date_: %s\n"+
			"⚰️ _Is Ban_: %s",
		userID, createdAt.Format("2006-01-02 15:04:05"), ban)
}

// UserNotFound is shown when the admin looks up an unknown id.
func UserNotFound(userID int64) string {
	return fmt.Sprintf("User Id %d was not found.", userID)
}

// StatsInfo renders the admin statistics summary.
func StatsInfo(total, banned int) string {
	return fmt.Sprintf(
		"Number of users: `%d`\n"+
			"Number of banned users: `%d`\n"+
			"Number of users who can receive messages: `%d`",
		total, banned, total-banned)
}

// BroadcastStarted opens a broadcast run.
func BroadcastStarted(total int) string {
	return fmt.Sprintf("Start forwarding your message to %d users.", total)
}

// LogReportCaption carries the archive checksum under the sent document.
func LogReportCaption(sum string) string {
	return fmt.Sprintf("SHA256:\n`%s`", sum)
}

// BroadcastFinished closes a broadcast run.
func BroadcastFinished(sent, failed int) string {
	return fmt.Sprintf("Your message has been successfully forwarded to %d users.\nFailed to send to: %d.", sent, failed)
}
