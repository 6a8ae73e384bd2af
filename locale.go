package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in English strings. A lang/<locale>.yaml file next to the executable
// overrides individual keys; anything missing falls back to this table, so
// the binary works without any lang directory at all.
var defaultTranslations = map[string]string{
	"browser_launching":          "🌐 Launching browser...",
	"browser_using_system":       "✓ Using system Chrome",
	"browser_chrome_not_found":   "System Chrome not found, downloading Chromium...",
	"browser_launched":           "✓ Browser ready",
	"browser_closed_by_user":     "Browser window was closed",
	"shutting_down":              "Shutting down...",
	"cleaning_up":                "Cleaning up browser session...",
	"browser_destroyed":          "✓ Browser session closed",
	"error_chrome_running":       "Chrome is already running with this profile. Close it and try again.",
	"opening_portal":             "Opening booking portal...",
	"login_start":                "Logging in...",
	"login_success":              "✓ Log in successful",
	"opening_calendar":           "Opening drop-in calendar...",
	"locating_event":             "Locating event...",
	"target_date_header":         "Target date header: %s",
	"event_found":                "✓ Event found",
	"registering":                "Registering...",
	"registration_open":          "✓ Registration open",
	"countdown_refreshing":       "Refreshing in %ds...",
	"checkout_attendee_selected": "✓ Attendee selected: %s",
	"checkout_membership_found":  "Membership found, using free rate",
	"checkout_payment_required":  "Payment required, using default rate",
	"checkout_placing_order":     "Placing order...",
	"checkout_dry_run_stop":      "🏁 DRY RUN - stopping before placing the order",
	"payment_success":            "✓ Payment successful",
	"run_complete":               "✓ Booking completed successfully!",
	"dry_run_mode":               "🏁 DRY RUN MODE - No order will be placed",
	"debug_mode":                 "🔍 DEBUG MODE - Detailed logging enabled",
	"keeping_browser_open":       "Keeping browser open for 30 seconds...",
	"notify_booked":              "Booked: %s (%s %s)",
	"notify_failed":              "Booking run failed: %v",
}

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// InitLocale loads the override table for the detected system locale. Failure
// is not fatal; T falls back to the built-in English strings.
func InitLocale() error {
	locale := DetectSystemLocale()

	overrides, err := loadLocaleFile(locale)
	if err != nil {
		globalLocale = &Locale{translations: map[string]string{}, locale: "en_US"}
		if strings.HasPrefix(locale, "en") {
			return nil
		}
		return fmt.Errorf("no translation file for locale %s: %w", locale, err)
	}

	globalLocale = &Locale{translations: overrides, locale: locale}
	return nil
}

// DetectSystemLocale reads the locale from the usual environment variables,
// defaulting to en_US.
func DetectSystemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if locale := os.Getenv(key); locale != "" {
			if base, _, found := strings.Cut(locale, "."); found || base != "" {
				return base
			}
		}
	}
	return "en_US"
}

func loadLocaleFile(locale string) (map[string]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	localeFile := filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml")
	data, err := os.ReadFile(localeFile)
	if err != nil {
		return nil, err
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse locale file %s: %w", localeFile, err)
	}

	return translations, nil
}

// T translates a key, applying fmt-style parameters when given.
func T(key string, params ...interface{}) string {
	text, ok := "", false
	if globalLocale != nil {
		text, ok = globalLocale.translations[key]
	}
	if !ok {
		if text, ok = defaultTranslations[key]; !ok {
			return key
		}
	}

	if len(params) > 0 {
		return fmt.Sprintf(text, params...)
	}
	return text
}

// GetLocale returns the active locale code.
func GetLocale() string {
	if globalLocale == nil {
		return "en_US"
	}
	return globalLocale.locale
}
