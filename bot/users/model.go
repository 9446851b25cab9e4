// Package users persists the bot's account records: ban state, the user's
// own API key and the per-request generation settings the quota check reads.
package users

import "time"

// User is a single Telegram account known to the bot. A row is created
// lazily on first contact.
type User struct {
	ID     int64  `db:"id"`
	Banned bool   `db:"banned"`
	APIKey string `db:"api_key"`
	// ImageCount is the number of images a single generation call requests
	// for this user, not a usage counter.
	ImageCount int       `db:"image_count"`
	ImageSize  string    `db:"image_size"`
	CreatedAt  time.Time `db:"created_at"`
}

// HasAPIKey reports whether the user runs on their own key and is therefore
// outside the shared quota.
func (u User) HasAPIKey() bool {
	return u.APIKey != ""
}
