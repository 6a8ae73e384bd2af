package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	eventName := flag.String("event", "", "Event name to book (overrides the preference file)")
	dryRun := flag.Bool("dry-run", false, "Test mode: stop before placing the order")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	headless := flag.Bool("headless", false, "Run the browser headless")
	flag.Parse()

	if err := InitLocale(); err != nil {
		log.Printf("Warning: locale initialization failed, using default English: %v", err)
	}

	checkUserDataDirPermissions()

	// Credentials live in the environment; .env is a convenience, not a
	// requirement.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dryRun {
		config.DryRun = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *headless {
		config.Headless = true
	}

	events, err := LoadEvents(config.EventsPath)
	if err != nil {
		log.Fatalf("Failed to load event catalog: %v", err)
	}

	pref, err := LoadPreference(config.PreferencePath)
	if err != nil {
		log.Fatalf("Failed to load drop-in preference: %v", err)
	}
	if *eventName != "" {
		pref.EventName = *eventName
	}

	event, err := FindEvent(events, pref.EventName)
	if err != nil {
		log.Fatalf("Failed to resolve event: %v", err)
	}

	// Validate the catalog entry before any automation starts.
	time12, err := To12Hour(event.Time)
	if err != nil {
		log.Fatalf("Bad event time in catalog: %v", err)
	}
	if _, err := ParseWeekday(event.Day); err != nil {
		log.Fatalf("Bad event day in catalog: %v", err)
	}

	creds, err := CredentialsFor(pref.Name)
	if err != nil {
		log.Fatalf("Failed to resolve credentials: %v", err)
	}

	notifier, err := NewNotifier(config)
	if err != nil {
		log.Fatalf("Failed to set up notifications: %v", err)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║               Drop-In Registration Assistant              ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Event: %s (%s %s, %s @ %s)\n", event.Name, event.Day, time12, event.Sport, event.Location)
	fmt.Printf("Attendee: %s\n", pref.Name)
	fmt.Printf("Browser Profile: %s\n", config.BrowserProfilePath)

	if config.DryRun {
		fmt.Println(T("dry_run_mode"))
	}
	if config.DebugMode {
		fmt.Println(T("debug_mode"))
	}
	fmt.Println()

	clock := NewTimeSync(config)
	if err := clock.Sync(); err != nil {
		log.Printf("Warning: time sync failed, using local clock: %v", err)
	} else if config.DebugMode {
		fmt.Printf("[DEBUG] clock offset vs server: %v\n", clock.GetOffset())
	}

	automation := NewAutomation(config)
	defer automation.Close()

	if err := automation.setupBrowser(); err != nil {
		log.Fatalf("Failed to setup browser: %v", err)
	}
	if err := automation.OpenPortal(); err != nil {
		log.Fatalf("Failed to open portal: %v", err)
	}

	if err := automation.Login(creds); err != nil {
		fail(notifier, "Login failed: %v", err)
	}
	if err := automation.OpenDropinCalendar(); err != nil {
		fail(notifier, "Failed to open drop-in calendar: %v", err)
	}
	if err := automation.Register(event, pref, clock); err != nil {
		fail(notifier, "Registration failed: %v", err)
	}

	notifier.BookingConfirmed(event)

	fmt.Println()
	fmt.Println(T("run_complete"))

	if config.KeepBrowserOpen {
		fmt.Println(T("keeping_browser_open"))
		time.Sleep(30 * time.Second)
	}
}

// fail notifies the operator before aborting; every failure past login is
// terminal for the run.
func fail(notifier *Notifier, format string, err error) {
	notifier.RunFailed(err)
	log.Fatalf(format, err)
}

// Store init error for later display (after locale is loaded)
var initUserDataDirError error

func init() {
	userDataDir := getUserDataDir()
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		initUserDataDirError = err
	}
}

func checkUserDataDirPermissions() {
	if initUserDataDirError != nil {
		log.Printf("Warning: could not create user data dir %s: %v", getUserDataDir(), initUserDataDirError)
	}
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./dropin-data"
	}
	return filepath.Join(home, ".dropin")
}
