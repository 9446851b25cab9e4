package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/dallebot/core/logger"
	"github.com/m3rciful/dallebot/core/telegram/commands"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and callback queries. It is populated once at
// startup and read-only afterwards; registration is not safe for concurrent
// use and is not meant to be.
type Registry struct {
	commands         map[string]commands.Command
	queries          map[string]commands.Query
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		queries:  make(map[string]commands.Query),
		callbackNotFound: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
			return nil
		},
	}
}

// RegisterCommand adds a new command. A duplicate token or an invalid
// descriptor is a configuration error: the caller must abort startup rather
// than serve a partial table.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if r == nil {
		return fmt.Errorf("register command %q: nil registry", name)
	}
	if name == "" || cmd.Handler == nil || cmd.Description == "" {
		return fmt.Errorf("register command %q: incomplete descriptor", name)
	}
	if name[0] != '/' {
		return fmt.Errorf("register command %q: missing slash prefix", name)
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("register command %q: duplicate token", name)
	}
	r.commands[name] = cmd
	return nil
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.Role > commands.RoleUser) {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand searches for a command by name or its aliases and returns the
// canonical key with metadata if found. Matching is exact and case-sensitive
// past the optional slash.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// ResolveText matches the leading token of a message against the command
// table: "/create-image some tail" resolves the create-image command.
func (r *Registry) ResolveText(text string) (string, commands.Command, bool) {
	token := strings.TrimSpace(text)
	if token == "" {
		return "", commands.Command{}, false
	}
	if i := strings.IndexAny(token, " \n"); i > 0 {
		token = token[:i]
	}
	return r.LookupCommand(token)
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterQuery adds a callback query handler mapped to its unique key.
// Duplicates are a startup-time configuration error.
func (r *Registry) RegisterQuery(key string, q commands.Query) error {
	if r == nil {
		return fmt.Errorf("register query %q: nil registry", key)
	}
	if key == "" || q.Handler == nil {
		return fmt.Errorf("register query %q: incomplete descriptor", key)
	}
	if _, exists := r.queries[key]; exists {
		return fmt.Errorf("register query %q: duplicate key", key)
	}
	r.queries[key] = q
	return nil
}

// GetQuery returns the callback query descriptor by key.
func (r *Registry) GetQuery(key string) (commands.Query, bool) {
	q, ok := r.queries[key]
	return q, ok
}

// ListQueries returns sorted keys (for diagnostics).
func (r *Registry) ListQueries() []string {
	names := make([]string, 0, len(r.queries))
	for k := range r.queries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
