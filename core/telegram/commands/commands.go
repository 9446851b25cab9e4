package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Role ranks users for command access checks.
type Role int

const (
	// RoleUser is the default role of every account.
	RoleUser Role = iota
	// RoleAdmin marks the bot operator.
	RoleAdmin
)

// String returns the lowercase role name for logs.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// Command represents a bot command with its handler, description, and metadata.
// Continue, when set, handles follow-up messages of a multi-turn flow: the
// router invokes it for plain text from a user whose pending session points
// at this command.
type Command struct {
	Handler     tele.HandlerFunc
	Continue    tele.HandlerFunc
	Description string
	Role        Role
	// BanExempt lets banned users still reach the handler (e.g. /start).
	BanExempt bool
	Hidden    bool
	Aliases   []string
}

// Query represents a callback-query handler keyed by its unique discriminator.
type Query struct {
	Handler   tele.HandlerFunc
	Role      Role
	BanExempt bool
}
