package main

import (
	"fmt"
	"testing"
)

func TestNewNotifierDisabledWithoutToken(t *testing.T) {
	config := DefaultConfig()

	notifier, err := NewNotifier(config)
	if err != nil {
		t.Fatalf("NewNotifier failed: %v", err)
	}

	if notifier.Enabled() {
		t.Error("Notifier should be disabled without a token")
	}

	// Sends on a disabled notifier are silent no-ops.
	notifier.BookingConfirmed(&EventConfig{Name: "Tuesday Basketball", Day: "Tuesday", Time: "18:00"})
	notifier.RunFailed(fmt.Errorf("boom"))
}

func TestNotifierDisabledWithoutChatID(t *testing.T) {
	n := &Notifier{chatID: 0}

	if n.Enabled() {
		t.Error("Notifier should be disabled without a chat id")
	}
}
