package telegram

import (
	"github.com/m3rciful/dallebot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared global middleware chain: panic
// recovery, request logging with RID correlation, and outbound message
// metrics. Per-route filters (ban, role) are attached by the routers, not
// here.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
