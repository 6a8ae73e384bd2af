package main

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Automation owns the single browser session for the run. One run books one
// event; nothing here is shared between concurrent bookings.
type Automation struct {
	config   *Config
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	stopChan chan bool
}

func NewAutomation(config *Config) *Automation {
	return &Automation{
		config:   config,
		stopChan: make(chan bool, 1),
	}
}

func (a *Automation) Close() {
	select {
	case a.stopChan <- true:
	default:
	}

	fmt.Println(T("cleaning_up"))

	if a.page != nil {
		a.page.Close()
	}

	if a.browser != nil {
		a.browser.Close()
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
	}

	fmt.Println(T("browser_destroyed"))
}

func (a *Automation) isBrowserAlive() bool {
	if a.browser == nil {
		return false
	}

	if _, err := a.browser.Version(); err != nil {
		a.debugLog("browser version check failed: %v", err)
		return false
	}

	if a.page != nil {
		if _, err := a.page.Info(); err != nil {
			a.debugLog("page info check failed: %v", err)
			return false
		}
	}

	return true
}

func (a *Automation) checkBrowserOrExit() {
	if !a.isBrowserAlive() {
		fmt.Println(T("browser_closed_by_user"))
		fmt.Println(T("shutting_down"))
		os.Exit(0)
	}
}

func (a *Automation) watchBrowser() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			a.checkBrowserOrExit()
		}
	}
}

func (a *Automation) debugLog(format string, args ...interface{}) {
	if a.config.DebugMode {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func (a *Automation) setupBrowser() error {
	fmt.Println(T("browser_launching"))

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	a.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(a.config.Headless)

	if a.config.BrowserProfilePath != "" {
		a.launcher = a.launcher.UserDataDir(a.config.BrowserProfilePath)
		a.debugLog("browser profile: %s", a.config.BrowserProfilePath)
	}

	if chromeExists {
		a.launcher = a.launcher.Bin(chromePath)
		fmt.Println(T("browser_using_system"))
	} else {
		fmt.Println(T("browser_chrome_not_found"))
	}

	url, err := a.launcher.Launch()
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Opening in existing browser session") ||
			strings.Contains(errMsg, "ProcessSingleton") ||
			strings.Contains(errMsg, "SingletonLock") {
			return fmt.Errorf("%s", T("error_chrome_running"))
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	a.browser = rod.New().ControlURL(url).MustConnect()

	go a.watchBrowser()

	fmt.Println(T("browser_launched"))
	return nil
}

// OpenPortal creates the stealth page and navigates to the booking portal's
// login surface.
func (a *Automation) OpenPortal() error {
	fmt.Println(T("opening_portal"))

	var err error
	a.page, err = stealth.Page(a.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}

	if err := a.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: userAgent,
	}); err != nil {
		a.debugLog("failed to set user agent: %v", err)
	}

	if err := a.page.Navigate(a.config.BaseURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", a.config.BaseURL, err)
	}
	if err := a.page.WaitLoad(); err != nil {
		return fmt.Errorf("portal failed to load: %w", err)
	}

	return nil
}

// LoginOutcome is the result of one login attempt. Exactly one occurs.
type LoginOutcome int

const (
	LoginSuccess LoginOutcome = iota
	LoginFailed
	LoginTimedOut
)

// raceLoginOutcome settles on whichever login signal fires first. The portal
// gives no single authoritative "done" event; success and failure are told
// apart purely by which side effect appears, so the three waits race and the
// losers are discarded.
func raceLoginOutcome(errVisible, success <-chan struct{}, timeout <-chan time.Time) LoginOutcome {
	select {
	case <-errVisible:
		return LoginFailed
	case <-success:
		return LoginSuccess
	case <-timeout:
		return LoginTimedOut
	}
}

// Login fills the credentials, clicks sign-in and waits for one of: the
// inline error indicator, a redirect into the profile area, or the timeout.
func (a *Automation) Login(creds *Credentials) error {
	fmt.Println(T("login_start"))
	sel := a.config.Selectors

	loggedInURL, err := regexp.Compile(a.config.LoggedInURL)
	if err != nil {
		return fmt.Errorf("invalid logged_in_url pattern: %w", err)
	}

	user, err := a.page.Element(sel.UsernameField)
	if err != nil {
		return fmt.Errorf("username field not found: %w", err)
	}
	if err := user.Input(creds.Username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}

	pass, err := a.page.Element(sel.PasswordField)
	if err != nil {
		return fmt.Errorf("password field not found: %w", err)
	}
	if err := pass.Input(creds.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}

	timeout := time.Duration(a.config.LoginTimeoutMs) * time.Millisecond
	done := make(chan struct{})
	defer close(done)

	errVisible := make(chan struct{}, 1)
	go func() {
		p := a.page.Timeout(timeout)
		el, err := p.Element(sel.LoginError)
		if err != nil {
			return
		}
		if err := el.WaitVisible(); err != nil {
			return
		}
		select {
		case errVisible <- struct{}{}:
		case <-done:
		}
	}()

	success := make(chan struct{}, 1)
	go func() {
		for {
			info, err := a.page.Info()
			if err == nil && loggedInURL.MatchString(info.URL) {
				select {
				case success <- struct{}{}:
				case <-done:
				}
				return
			}
			select {
			case <-done:
				return
			case <-time.After(250 * time.Millisecond):
			}
		}
	}()

	signIn, err := a.page.ElementR(sel.SignInButton, sel.SignInButtonText)
	if err != nil {
		return fmt.Errorf("sign-in button not found: %w", err)
	}
	if err := signIn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click sign-in: %w", err)
	}

	switch raceLoginOutcome(errVisible, success, time.After(timeout)) {
	case LoginSuccess:
		fmt.Println(T("login_success"))
		return nil
	case LoginFailed:
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("%w after %dms", ErrLoginTimeout, a.config.LoginTimeoutMs)
	}
}

// OpenDropinCalendar navigates from the authenticated landing page into the
// configured drop-in calendar.
func (a *Automation) OpenDropinCalendar() error {
	fmt.Println(T("opening_calendar"))
	sel := a.config.Selectors

	link, err := a.page.ElementR(sel.DropinLink, sel.DropinLinkText)
	if err != nil {
		return fmt.Errorf("drop-in link not found: %w", err)
	}

	visible, err := link.Visible()
	if err != nil {
		return fmt.Errorf("failed to check drop-in link: %w", err)
	}
	if !visible {
		// On narrow layouts the link lives under the collapsed "More" menu.
		more, err := a.page.ElementR(sel.MenuItem, sel.MoreMenuText)
		if err != nil {
			return fmt.Errorf("more menu not found: %w", err)
		}
		if err := more.Hover(); err != nil {
			return fmt.Errorf("failed to open more menu: %w", err)
		}
		if err := link.WaitVisible(); err != nil {
			return fmt.Errorf("drop-in link never became visible: %w", err)
		}
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to open drop-in programs: %w", err)
	}

	list, err := a.page.Element(sel.CalendarList)
	if err != nil {
		return fmt.Errorf("calendar list not found: %w", err)
	}
	cal, err := list.ElementR("*", a.config.CalendarName)
	if err != nil {
		return fmt.Errorf("calendar %q not found: %w", a.config.CalendarName, err)
	}
	if err := cal.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to open calendar %q: %w", a.config.CalendarName, err)
	}

	return nil
}
