package middleware

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/m3rciful/dallebot/core/logger"
	"github.com/m3rciful/dallebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(logger.Settings{Level: "error"})
	os.Exit(m.Run())
}

// fakeContext implements the handful of tele.Context methods the
// authorization path touches. Anything else panics via the embedded nil
// interface, which keeps the fake honest.
type fakeContext struct {
	tele.Context
	sender *tele.User
	store  map[string]any
	sent   []any
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		store:  make(map[string]any),
	}
}

func (f *fakeContext) Sender() *tele.User  { return f.sender }
func (f *fakeContext) Chat() *tele.Chat    { return nil }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 42} }
func (f *fakeContext) Text() string        { return "" }

func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func staticResolve(acc Account, err error) func(context.Context, int64) (Account, error) {
	return func(context.Context, int64) (Account, error) {
		return acc, err
	}
}

func denial(marker string, hits *[]string) tele.HandlerFunc {
	return func(c tele.Context) error {
		*hits = append(*hits, marker)
		return c.Send(marker)
	}
}

func TestBanAllowed(t *testing.T) {
	if BanAllowed(Account{Banned: true}, false) {
		t.Error("banned user allowed without exemption")
	}
	if !BanAllowed(Account{Banned: true}, true) {
		t.Error("exemption did not lift the ban")
	}
	if !BanAllowed(Account{}, false) {
		t.Error("clean user denied")
	}
}

func TestRoleAllowed(t *testing.T) {
	if RoleAllowed(Account{Role: commands.RoleUser}, commands.RoleAdmin) {
		t.Error("user passed an admin gate")
	}
	if !RoleAllowed(Account{Role: commands.RoleAdmin}, commands.RoleUser) {
		t.Error("admin failed a user gate")
	}
	if !RoleAllowed(Account{Role: commands.RoleAdmin}, commands.RoleAdmin) {
		t.Error("admin failed an admin gate")
	}
}

func TestAccessMiddlewareBannedDenied(t *testing.T) {
	var hits []string
	handlerRan := false

	opts := AccessOptions{
		Resolve:    staticResolve(Account{ID: 7, Banned: true}, nil),
		OnBanned:   denial("banned", &hits),
		OnNotFound: denial("not_found", &hits),
	}
	h := AccessMiddleware(opts, commands.RoleUser, false)(func(c tele.Context) error {
		handlerRan = true
		return nil
	})

	c := newFakeContext(7)
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if handlerRan {
		t.Error("handler ran for a banned user")
	}
	if len(hits) != 1 || hits[0] != "banned" {
		t.Errorf("denials = %v, want exactly one banned notice", hits)
	}
}

func TestAccessMiddlewareBanExempt(t *testing.T) {
	handlerRan := false
	opts := AccessOptions{
		Resolve: staticResolve(Account{ID: 7, Banned: true}, nil),
	}
	h := AccessMiddleware(opts, commands.RoleUser, true)(func(c tele.Context) error {
		handlerRan = true
		return nil
	})

	if err := h(newFakeContext(7)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !handlerRan {
		t.Error("exempt command blocked for banned user")
	}
}

func TestAccessMiddlewareRoleDeniedAsUnknown(t *testing.T) {
	var hits []string
	handlerRan := false

	opts := AccessOptions{
		Resolve:    staticResolve(Account{ID: 8, Role: commands.RoleUser}, nil),
		OnBanned:   denial("banned", &hits),
		OnNotFound: denial("not_found", &hits),
	}
	h := AccessMiddleware(opts, commands.RoleAdmin, false)(func(c tele.Context) error {
		handlerRan = true
		return nil
	})

	if err := h(newFakeContext(8)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if handlerRan {
		t.Error("handler ran for an under-privileged user")
	}
	if len(hits) != 1 || hits[0] != "not_found" {
		t.Errorf("denials = %v, want the unknown-command notice", hits)
	}
}

func TestAccessMiddlewareBanBeforeRole(t *testing.T) {
	var hits []string
	opts := AccessOptions{
		Resolve:    staticResolve(Account{ID: 9, Role: commands.RoleUser, Banned: true}, nil),
		OnBanned:   denial("banned", &hits),
		OnNotFound: denial("not_found", &hits),
	}
	h := AccessMiddleware(opts, commands.RoleAdmin, false)(func(c tele.Context) error {
		return nil
	})

	if err := h(newFakeContext(9)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if len(hits) != 1 || hits[0] != "banned" {
		t.Errorf("denials = %v, want ban to win over role", hits)
	}
}

func TestAccessMiddlewareResolveError(t *testing.T) {
	var hits []string
	handlerRan := false

	opts := AccessOptions{
		Resolve: staticResolve(Account{}, errors.New("db down")),
		OnError: denial("error", &hits),
	}
	h := AccessMiddleware(opts, commands.RoleUser, false)(func(c tele.Context) error {
		handlerRan = true
		return nil
	})

	if err := h(newFakeContext(1)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if handlerRan {
		t.Error("handler ran after a failed resolve")
	}
	if len(hits) != 1 || hits[0] != "error" {
		t.Errorf("denials = %v, want the error notice", hits)
	}
}
