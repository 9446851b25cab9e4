package texts

import (
	"strings"
	"testing"
)

func TestStartInfoLinksTheUser(t *testing.T) {
	msg := StartInfo(42, "Ada", true)
	if !strings.Contains(msg, "[Ada](tg://user?id=42)") {
		t.Errorf("greeting lacks the mention link: %q", msg)
	}
	if !strings.Contains(msg, "Hello!") {
		t.Errorf("first visit greeting = %q", msg)
	}

	again := StartInfo(42, "Ada", false)
	if !strings.Contains(again, "Hello again!") {
		t.Errorf("repeat visit greeting = %q", again)
	}
}
