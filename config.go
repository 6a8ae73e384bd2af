package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL      string `yaml:"base_url"`
	LoggedInURL  string `yaml:"logged_in_url"`
	CalendarName string `yaml:"calendar_name"`

	LoginTimeoutMs        int `yaml:"login_timeout_ms"`
	RefreshIntervalMs     int `yaml:"refresh_interval_ms"`
	RegisterWaitTimeoutMs int `yaml:"register_wait_timeout_ms"`
	CheckoutSettleMs      int `yaml:"checkout_settle_ms"`
	ConfirmationTimeoutMs int `yaml:"confirmation_timeout_ms"`

	EventsPath     string `yaml:"events_path"`
	PreferencePath string `yaml:"preference_path"`

	BrowserProfilePath string `yaml:"browser_profile_path"`
	Headless           bool   `yaml:"headless"`
	KeepBrowserOpen    bool   `yaml:"keep_browser_open"`

	DryRun    bool `yaml:"dry_run"`
	DebugMode bool `yaml:"debug_mode"`

	Telegram  TelegramConfig `yaml:"telegram"`
	Selectors SelectorConfig `yaml:"selectors"`
	Markers   MarkerConfig   `yaml:"markers"`
}

type SelectorConfig struct {
	UsernameField    string `yaml:"username_field"`
	PasswordField    string `yaml:"password_field"`
	LoginError       string `yaml:"login_error"`
	SignInButton     string `yaml:"sign_in_button"`
	SignInButtonText string `yaml:"sign_in_button_text"`

	DropinLink     string `yaml:"dropin_link"`
	DropinLinkText string `yaml:"dropin_link_text"`
	MenuItem       string `yaml:"menu_item"`
	MoreMenuText   string `yaml:"more_menu_text"`
	CalendarList   string `yaml:"calendar_list"`

	LoadMoreButton string `yaml:"load_more_button"`
	LoadingOverlay string `yaml:"loading_overlay"`
	ScheduleRows   string `yaml:"schedule_rows"`
	EventTimeLabel string `yaml:"event_time_label"`
	RowButton      string `yaml:"row_button"`

	EventInfoPanel string `yaml:"event_info_panel"`
	RegisterButton string `yaml:"register_button"`

	AttendeeRows     string `yaml:"attendee_rows"`
	AttendeeCheckbox string `yaml:"attendee_checkbox"`
	NextLink         string `yaml:"next_link"`
	NextLinkText     string `yaml:"next_link_text"`
	PriceTable       string `yaml:"price_table"`
	PriceRows        string `yaml:"price_rows"`
	PriceRadio       string `yaml:"price_radio"`
	CheckoutFrame    string `yaml:"checkout_frame"`
	PlaceOrderButton string `yaml:"place_order_button"`
	PlaceOrderText   string `yaml:"place_order_text"`
}

// MarkerConfig holds the free-text markers the listing uses in place of any
// machine-readable state.
type MarkerConfig struct {
	DateRowClass     string `yaml:"date_row_class"`
	EventRowClass    string `yaml:"event_row_class"`
	FullText         string `yaml:"full_text"`
	FreeRateText     string `yaml:"free_rate_text"`
	ConfirmationText string `yaml:"confirmation_text"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

func DefaultConfig() *Config {
	userDataDir := getUserDataDir()

	return &Config{
		BaseURL:      "https://townofoakville.perfectmind.com/",
		LoggedInURL:  `/MyProfile/Contact(?:/|$)`,
		CalendarName: "Sports Drop-in",

		LoginTimeoutMs:        8000,
		RefreshIntervalMs:     3000,
		RegisterWaitTimeoutMs: 10 * 60 * 1000,
		CheckoutSettleMs:      10000,
		ConfirmationTimeoutMs: 60000,

		EventsPath:     "dropin-events.json",
		PreferencePath: "dropin.config.json",

		BrowserProfilePath: filepath.Join(userDataDir, "browser-profile"),
		Headless:           false,
		KeepBrowserOpen:    false,

		DryRun:    false,
		DebugMode: false,

		Selectors: SelectorConfig{
			UsernameField:    "#username",
			PasswordField:    "#password",
			LoginError:       "#error",
			SignInButton:     "button",
			SignInButtonText: "/sign in/i",

			DropinLink:     "a",
			DropinLinkText: "Drop-In Programs",
			MenuItem:       `[role="menuitem"]`,
			MoreMenuText:   "More",
			CalendarList:   `ul[data-bind*="foreach: calendars"]`,

			LoadMoreButton: "#load-more",
			LoadingOverlay: "#bm-overlay",
			ScheduleRows:   "#classes tr",
			EventTimeLabel: `span[aria-label^="Event time"]`,
			RowButton:      "button",

			EventInfoPanel: ".event-info-column",
			RegisterButton: "#bookEventButton",

			AttendeeRows:     "#event-participants tr.bm-selectable-row",
			AttendeeCheckbox: `input[type="checkbox"]`,
			NextLink:         "a",
			NextLinkText:     "Next",
			PriceTable:       "table.bm-extras-prices",
			PriceRows:        "table.bm-extras-prices tr.radio-item",
			PriceRadio:       `input[type="radio"]`,
			CheckoutFrame:    "iframe.online-store",
			PlaceOrderButton: "button",
			PlaceOrderText:   "/place my order/i",
		},
		Markers: MarkerConfig{
			DateRowClass:     "bm-marker-row",
			EventRowClass:    "bm-class-row",
			FullText:         "Full",
			FreeRateText:     "Free",
			ConfirmationText: "Thank you",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EventConfig identifies one recurring class offering in the static catalog.
type EventConfig struct {
	Name     string `json:"name"`
	Sport    string `json:"sport"`
	Location string `json:"location"`
	Day      string `json:"day"`
	Time     string `json:"time"`
}

// DropinPreference selects which event to book and for whom.
type DropinPreference struct {
	Name            string `json:"name"`
	EventName       string `json:"event-name"`
	BookForTomorrow bool   `json:"book-for-tmr"`
}

type Credentials struct {
	Username string
	Password string
}

func LoadEvents(path string) ([]EventConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event catalog: %w", err)
	}

	var events []EventConfig
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse event catalog %s: %w", path, err)
	}

	return events, nil
}

func FindEvent(events []EventConfig, name string) (*EventConfig, error) {
	for i := range events {
		if events[i].Name == name {
			return &events[i], nil
		}
	}
	return nil, fmt.Errorf("invalid drop-in event %q", name)
}

func LoadPreference(path string) (*DropinPreference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drop-in preference: %w", err)
	}

	var pref DropinPreference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, fmt.Errorf("failed to parse drop-in preference %s: %w", path, err)
	}

	if pref.Name == "" {
		return nil, fmt.Errorf("drop-in preference %s has no attendee name", path)
	}

	return &pref, nil
}

// CredentialKey normalizes an attendee name into the env-variable prefix the
// credentials are stored under, e.g. "Jason Smith" -> "JASON_SMITH".
func CredentialKey(attendee string) string {
	return strings.ToUpper(strings.Join(strings.Fields(attendee), "_"))
}

// CredentialsFor looks up the attendee's portal credentials from the
// environment. Both halves must be present; a run without them cannot proceed.
func CredentialsFor(attendee string) (*Credentials, error) {
	key := CredentialKey(attendee)

	creds := &Credentials{
		Username: os.Getenv(key + "_USERNAME"),
		Password: os.Getenv(key + "_PASSWORD"),
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("missing %s_USERNAME or %s_PASSWORD in environment", key, key)
	}

	return creds, nil
}
