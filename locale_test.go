package main

import (
	"strings"
	"testing"
)

func TestTFallsBackToDefaults(t *testing.T) {
	globalLocale = nil

	if got := T("login_start"); got != "Logging in..." {
		t.Errorf("T(login_start) = %q, want built-in English", got)
	}
}

func TestTUnknownKeyReturnsKey(t *testing.T) {
	globalLocale = nil

	if got := T("no_such_key"); got != "no_such_key" {
		t.Errorf("T on unknown key = %q, want the key itself", got)
	}
}

func TestTWithParams(t *testing.T) {
	globalLocale = nil

	got := T("countdown_refreshing", 7)
	if got != "Refreshing in 7s..." {
		t.Errorf("T(countdown_refreshing, 7) = %q", got)
	}
}

func TestTOverrides(t *testing.T) {
	globalLocale = &Locale{
		translations: map[string]string{"login_start": "Connexion..."},
		locale:       "fr_FR",
	}
	defer func() { globalLocale = nil }()

	if got := T("login_start"); got != "Connexion..." {
		t.Errorf("Override not applied, got %q", got)
	}

	// Keys missing from the override table still resolve.
	if got := T("login_success"); !strings.Contains(got, "successful") {
		t.Errorf("Fallback not applied for missing override, got %q", got)
	}

	if GetLocale() != "fr_FR" {
		t.Errorf("GetLocale() = %q, want fr_FR", GetLocale())
	}
}

func TestDetectSystemLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ru_RU.UTF-8")

	if got := DetectSystemLocale(); got != "ru_RU" {
		t.Errorf("DetectSystemLocale() = %q, want ru_RU", got)
	}
}

func TestDetectSystemLocalePrecedence(t *testing.T) {
	t.Setenv("LC_ALL", "de_DE.UTF-8")
	t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")

	if got := DetectSystemLocale(); got != "de_DE" {
		t.Errorf("DetectSystemLocale() = %q, want LC_ALL to win", got)
	}
}

func TestDetectSystemLocaleDefault(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")

	if got := DetectSystemLocale(); got != "en_US" {
		t.Errorf("DetectSystemLocale() = %q, want en_US default", got)
	}
}
