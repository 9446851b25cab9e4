package router

import (
	"context"
	"os"
	"testing"

	"github.com/m3rciful/dallebot/core/logger"
	tg "github.com/m3rciful/dallebot/core/telegram"
	"github.com/m3rciful/dallebot/core/telegram/commands"
	"github.com/m3rciful/dallebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(logger.Settings{Level: "error"})
	os.Exit(m.Run())
}

type fakeContext struct {
	tele.Context
	sender   *tele.User
	text     string
	callback *tele.Callback
	store    map[string]any
	sent     []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		text:   text,
		store:  make(map[string]any),
	}
}

func (f *fakeContext) Sender() *tele.User                      { return f.sender }
func (f *fakeContext) Chat() *tele.Chat                        { return nil }
func (f *fakeContext) Update() tele.Update                     { return tele.Update{ID: 7} }
func (f *fakeContext) Text() string                            { return f.text }
func (f *fakeContext) Callback() *tele.Callback                { return f.callback }
func (f *fakeContext) Get(key string) any                      { return f.store[key] }
func (f *fakeContext) Set(key string, val any)                 { f.store[key] = val }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

// fakeSessions records gate calls so tests can assert exactly when a turn
// is charged.
type fakeSessions struct {
	token    string
	live     bool
	consumed int
}

func (s *fakeSessions) PendingToken(int64) (string, bool) {
	return s.token, s.live
}

func (s *fakeSessions) CanGetLastCommand(_ int64, token string, _ int, consume bool) bool {
	if !s.live || s.token != token {
		return false
	}
	if consume {
		s.consumed++
	}
	return true
}

func allowAll() middleware.AccessOptions {
	return middleware.AccessOptions{
		Resolve: func(_ context.Context, id int64) (middleware.Account, error) {
			return middleware.Account{ID: id, Role: commands.RoleAdmin}, nil
		},
	}
}

func userOnly(denied *int) middleware.AccessOptions {
	return middleware.AccessOptions{
		Resolve: func(_ context.Context, id int64) (middleware.Account, error) {
			return middleware.Account{ID: id, Role: commands.RoleUser}, nil
		},
		OnNotFound: func(c tele.Context) error {
			*denied++
			return c.Send("does not exist")
		},
		OnBanned: func(c tele.Context) error {
			*denied++
			return c.Send("banned")
		},
	}
}

func bannedUser(denied *int) middleware.AccessOptions {
	return middleware.AccessOptions{
		Resolve: func(_ context.Context, id int64) (middleware.Account, error) {
			return middleware.Account{ID: id, Banned: true}, nil
		},
		OnBanned: func(c tele.Context) error {
			*denied++
			return c.Send("banned")
		},
	}
}

func mustRegister(t *testing.T, reg *tg.Registry, token string, cmd commands.Command) {
	t.Helper()
	if err := reg.RegisterCommand(token, cmd); err != nil {
		t.Fatalf("register %s: %v", token, err)
	}
}

func textHandler(t *testing.T, sessions Sessions, reg *tg.Registry, access middleware.AccessOptions, fallback tele.HandlerFunc) tele.HandlerFunc {
	t.Helper()
	routes := TextRoutes(sessions, reg, access, TextOptions{UnknownText: fallback})
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	return routes[0].Handler
}

func TestTextRouteDirectDispatch(t *testing.T) {
	reg := tg.NewRegistry()
	ran := false
	mustRegister(t, reg, "/ping", commands.Command{
		Description: "ping",
		Handler: func(c tele.Context) error {
			ran = true
			return nil
		},
	})

	h := textHandler(t, &fakeSessions{}, reg, allowAll(), nil)
	if err := h(newFakeContext(1, "/ping with a tail")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !ran {
		t.Error("leading command token did not dispatch")
	}
}

func TestTextRouteContinuationChargesOneTurn(t *testing.T) {
	reg := tg.NewRegistry()
	var gotPrompt string
	mustRegister(t, reg, "/draw", commands.Command{
		Description: "draw",
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			gotPrompt = c.Text()
			return nil
		},
	})

	sessions := &fakeSessions{token: "/draw", live: true}
	h := textHandler(t, sessions, reg, allowAll(), nil)

	if err := h(newFakeContext(1, "a red fox in the snow")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotPrompt != "a red fox in the snow" {
		t.Errorf("continuation got %q", gotPrompt)
	}
	if sessions.consumed != 1 {
		t.Errorf("consumed %d turns, want exactly 1", sessions.consumed)
	}
}

func TestTextRouteCommandWinsOverSession(t *testing.T) {
	reg := tg.NewRegistry()
	cancelRan := false
	mustRegister(t, reg, "/draw", commands.Command{
		Description: "draw",
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			t.Error("continuation ran for a command message")
			return nil
		},
	})
	mustRegister(t, reg, "/cancel", commands.Command{
		Description: "cancel",
		Handler: func(c tele.Context) error {
			cancelRan = true
			return nil
		},
	})

	sessions := &fakeSessions{token: "/draw", live: true}
	h := textHandler(t, sessions, reg, allowAll(), nil)

	if err := h(newFakeContext(1, "/cancel")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !cancelRan {
		t.Error("cancel command did not dispatch")
	}
	if sessions.consumed != 0 {
		t.Errorf("command message consumed %d turns, want 0", sessions.consumed)
	}
}

func TestTextRouteCancelButtonAliasWinsOverSession(t *testing.T) {
	reg := tg.NewRegistry()
	cancelRan := false
	mustRegister(t, reg, "/draw", commands.Command{
		Description: "draw",
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			t.Errorf("continuation took the button label %q as input", c.Text())
			return nil
		},
	})
	mustRegister(t, reg, "/cancel", commands.Command{
		Description: "cancel",
		Aliases:     []string{"❌Cancel"},
		Handler: func(c tele.Context) error {
			cancelRan = true
			return nil
		},
	})

	sessions := &fakeSessions{token: "/draw", live: true}
	h := textHandler(t, sessions, reg, allowAll(), nil)

	if err := h(newFakeContext(1, "❌Cancel")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !cancelRan {
		t.Error("cancel button label did not dispatch the cancel command")
	}
	if sessions.consumed != 0 {
		t.Errorf("button press consumed %d turns, want 0", sessions.consumed)
	}
}

func TestTextRouteRoleDenialDoesNotConsume(t *testing.T) {
	reg := tg.NewRegistry()
	mustRegister(t, reg, "/audit", commands.Command{
		Description: "audit",
		Role:        commands.RoleAdmin,
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			t.Error("admin continuation ran for a plain user")
			return nil
		},
	})

	denied := 0
	sessions := &fakeSessions{token: "/audit", live: true}
	h := textHandler(t, sessions, reg, userOnly(&denied), nil)

	if err := h(newFakeContext(1, "some follow-up")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if denied != 1 {
		t.Errorf("denials = %d, want 1", denied)
	}
	if sessions.consumed != 0 {
		t.Errorf("denied update consumed %d turns, want 0", sessions.consumed)
	}
}

func TestTextRouteBanShortCircuits(t *testing.T) {
	reg := tg.NewRegistry()
	mustRegister(t, reg, "/draw", commands.Command{
		Description: "draw",
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			t.Error("continuation ran for a banned user")
			return nil
		},
	})

	denied := 0
	sessions := &fakeSessions{token: "/draw", live: true}
	h := textHandler(t, sessions, reg, bannedUser(&denied), nil)

	if err := h(newFakeContext(1, "prompt")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if denied != 1 {
		t.Errorf("denials = %d, want 1", denied)
	}
	if sessions.consumed != 0 {
		t.Errorf("banned update consumed %d turns, want 0", sessions.consumed)
	}
}

func TestTextRouteUnknownFallsBack(t *testing.T) {
	reg := tg.NewRegistry()
	fallbackRan := false

	h := textHandler(t, &fakeSessions{}, reg, allowAll(), func(c tele.Context) error {
		fallbackRan = true
		return nil
	})

	if err := h(newFakeContext(1, "what is this")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !fallbackRan {
		t.Error("unknown text did not reach the fallback")
	}
}

func TestTextRouteStaleSessionFallsBack(t *testing.T) {
	reg := tg.NewRegistry()
	mustRegister(t, reg, "/draw", commands.Command{
		Description: "draw",
		Handler:     func(c tele.Context) error { return nil },
		Continue: func(c tele.Context) error {
			t.Error("continuation ran without a live session")
			return nil
		},
	})

	fallbackRan := false
	h := textHandler(t, &fakeSessions{}, reg, allowAll(), func(c tele.Context) error {
		fallbackRan = true
		return nil
	})

	if err := h(newFakeContext(1, "prompt")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !fallbackRan {
		t.Error("stale session did not fall back")
	}
}

func TestCallbackRouteDispatchesQuery(t *testing.T) {
	reg := tg.NewRegistry()
	var gotPayload string
	if err := reg.RegisterQuery("ban-user", commands.Query{
		Role: commands.RoleAdmin,
		Handler: func(c tele.Context) error {
			_, payload := splitCallback(c)
			gotPayload = payload
			return nil
		},
	}); err != nil {
		t.Fatalf("register query: %v", err)
	}

	route := CallbackRoute(reg, allowAll(), CallbackOptions{})
	c := newFakeContext(1, "")
	c.callback = &tele.Callback{Data: "\fban-user|12345"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotPayload != "12345" {
		t.Errorf("payload = %q, want 12345", gotPayload)
	}
}

func TestCallbackRouteRoleGated(t *testing.T) {
	reg := tg.NewRegistry()
	ran := false
	if err := reg.RegisterQuery("ban-user", commands.Query{
		Role: commands.RoleAdmin,
		Handler: func(c tele.Context) error {
			ran = true
			return nil
		},
	}); err != nil {
		t.Fatalf("register query: %v", err)
	}

	denied := 0
	route := CallbackRoute(reg, userOnly(&denied), CallbackOptions{})
	c := newFakeContext(1, "")
	c.callback = &tele.Callback{Data: "\fban-user|12345"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if ran {
		t.Error("admin query ran for a plain user")
	}
	if denied != 1 {
		t.Errorf("denials = %d, want 1", denied)
	}
}

func TestCallbackRouteUnknownKey(t *testing.T) {
	reg := tg.NewRegistry()
	notFound := false
	reg.SetCallbackNotFound(func(c tele.Context) error {
		notFound = true
		return nil
	})
	route := CallbackRoute(reg, allowAll(), CallbackOptions{})

	c := newFakeContext(1, "")
	c.callback = &tele.Callback{Data: "\fnope|1"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !notFound {
		t.Error("unknown callback key did not reach the fallback")
	}
}

func splitCallback(c tele.Context) (string, string) {
	cb := c.Callback()
	if cb == nil {
		return "", ""
	}
	raw := cb.Data
	for i := range raw {
		if raw[i] == '|' {
			return raw[:i], raw[i+1:]
		}
	}
	return raw, ""
}
