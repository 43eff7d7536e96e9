package prefs

import (
	"testing"

	"github.com/caesium-cloud/cimon/internal/models"
)

func TestApplyOnlyChangedFlags(t *testing.T) {
	prefs := models.DefaultPreferences()

	if apply(Cmd, prefs) {
		t.Fatal("expected no change without flags")
	}

	if err := Cmd.ParseFlags([]string{"--interval", "15", "--notify-start"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	if !apply(Cmd, prefs) {
		t.Fatal("expected preferences to change")
	}
	if prefs.PollingInterval != 15 || !prefs.NotifyOnStart {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
	if !prefs.NotifyOnFailure || prefs.NotifyOnSuccess {
		t.Fatalf("untouched preferences changed: %+v", prefs)
	}
}
