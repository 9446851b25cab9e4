// Package handlers implements the bot's commands and callback queries on
// top of the core routing, session and quota machinery.
package handlers

import (
	coreconfig "github.com/m3rciful/dallebot/core/config"
	"github.com/m3rciful/dallebot/core/openai"
	"github.com/m3rciful/dallebot/core/telegram/cache"

	"github.com/m3rciful/dallebot/bot/users"
)

// Command tokens double as session keys, so an armed continuation always
// points back at its owning command.
const (
	TokenCreateImage = "/create-image"
	TokenAPIKey      = "/api-key"
	TokenGetUser     = "/get-user"
	TokenBroadcast   = "/broadcast"
)

// Session payloads for the create-image flow.
const (
	payloadWithLimit    = "with-limit"
	payloadWithoutLimit = "without-limit"
)

// Callback keys.
const (
	QueryBanUser   = "ban-user"
	QueryUnbanUser = "unban-user"
	QueryGetUser   = "get-user"
	QueryLogReport = "log-report"
)

// Deps bundles everything the handlers touch.
type Deps struct {
	Cfg      *coreconfig.Config
	Users    *users.Repository
	Sessions *cache.SessionCache
	Limiter  *cache.RateLimiter
	OpenAI   *openai.Client
}
