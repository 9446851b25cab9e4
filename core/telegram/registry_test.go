package telegram

import (
	"strings"
	"testing"

	"github.com/m3rciful/dallebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(tele.Context) error { return nil }

func TestRegistryDuplicateCommand(t *testing.T) {
	reg := NewRegistry()
	cmd := commands.Command{Handler: noopHandler, Description: "test"}
	if err := reg.RegisterCommand("/start", cmd); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := reg.RegisterCommand("/start", cmd)
	if err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryRejectsIncompleteDescriptor(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/x", commands.Command{Description: "no handler"}); err == nil {
		t.Fatal("descriptor without handler accepted")
	}
	if err := reg.RegisterCommand("nokey", commands.Command{Handler: noopHandler, Description: "d"}); err == nil {
		t.Fatal("command without slash prefix accepted")
	}
}

func TestRegistryResolveText(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/create-image", commands.Command{Handler: noopHandler, Description: "generate"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	key, _, ok := reg.ResolveText("/create-image")
	if !ok || key != "/create-image" {
		t.Fatalf("exact resolve failed: %q %v", key, ok)
	}
	if _, _, ok = reg.ResolveText("/create-image trailing prompt"); !ok {
		t.Fatal("leading-token resolve failed")
	}
	if _, _, ok = reg.ResolveText("/Create-Image"); ok {
		t.Fatal("match should be case-sensitive")
	}
	if _, _, ok = reg.ResolveText("just a prompt"); ok {
		t.Fatal("plain text resolved as command")
	}
}

func TestRegistryDuplicateQuery(t *testing.T) {
	reg := NewRegistry()
	q := commands.Query{Handler: noopHandler}
	if err := reg.RegisterQuery("ban-user", q); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := reg.RegisterQuery("ban-user", q); err == nil {
		t.Fatal("duplicate query registration accepted")
	}
}

func TestRegistryListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	_ = reg.RegisterCommand("/stats", commands.Command{Handler: noopHandler, Description: "stats", Role: commands.RoleAdmin})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	all := reg.ListCommands(false)
	if len(all) != 2 {
		t.Fatalf("all commands = %+v", all)
	}
}
