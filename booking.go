package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// bookingSurface is the slice of page behavior the registration poller needs.
// The narrow interface keeps the poll loop free of presentation and browser
// concerns, and lets it run against a fake in tests.
type bookingSurface interface {
	RegisterVisible() (bool, error)
	ClickRegister() error
	ShowCountdown(text string)
	Reload() error
}

// Registrar polls for the register affordance to open within a fixed wait
// budget. The deadline is computed once on entry and never extended.
type Registrar struct {
	config  *Config
	surface bookingSurface
	now     func() time.Time
	sleep   func(time.Duration)
}

func NewRegistrar(config *Config, surface bookingSurface, clock *TimeSync) *Registrar {
	now := time.Now
	if clock != nil {
		now = clock.Now
	}
	return &Registrar{
		config:  config,
		surface: surface,
		now:     now,
		sleep:   time.Sleep,
	}
}

// WaitForRegistration runs the poll loop: a per-second countdown over one
// refresh interval with an affordance check at every tick, then a reload for
// a fresh listing snapshot, until the affordance appears or the budget runs
// out. Checking every second rather than only at reload boundaries keeps the
// latency between availability and claim under a second.
func (r *Registrar) WaitForRegistration() error {
	waitBudget := time.Duration(r.config.RegisterWaitTimeoutMs) * time.Millisecond
	deadline := r.now().Add(waitBudget)
	totalSeconds := r.config.RefreshIntervalMs / 1000

	for r.now().Before(deadline) {
		for sec := totalSeconds; sec > 0; sec-- {
			visible, err := r.surface.RegisterVisible()
			if err != nil {
				return fmt.Errorf("failed to check register button: %w", err)
			}
			if visible {
				fmt.Println(T("registration_open"))
				if err := r.surface.ClickRegister(); err != nil {
					return fmt.Errorf("failed to click register button: %w", err)
				}
				return nil
			}

			r.surface.ShowCountdown(T("countdown_refreshing", sec))
			r.sleep(time.Second)
		}

		if err := r.surface.Reload(); err != nil {
			return fmt.Errorf("failed to reload listing: %w", err)
		}
	}

	return fmt.Errorf("%w within %d seconds", ErrRegistrationMissed, r.config.RegisterWaitTimeoutMs/1000)
}

// pageSurface backs bookingSurface with the live rod page.
type pageSurface struct {
	a *Automation
}

func (p *pageSurface) RegisterVisible() (bool, error) {
	has, el, err := p.a.page.Has(p.a.config.Selectors.RegisterButton)
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

func (p *pageSurface) ClickRegister() error {
	el, err := p.a.page.Element(p.a.config.Selectors.RegisterButton)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *pageSurface) ShowCountdown(text string) {
	// The overlay is cosmetic; a failed update must not abort the claim loop.
	if _, err := p.a.page.Eval(overlayScript, text); err != nil {
		p.a.debugLog("countdown overlay update failed: %v", err)
	}
}

func (p *pageSurface) Reload() error {
	if err := p.a.page.Reload(); err != nil {
		return err
	}
	return p.a.page.WaitLoad()
}

// overlayScript upserts the fixed pill-shaped countdown indicator. Create if
// absent, then set text.
const overlayScript = `(content) => {
	const id = "register-refresh-timer";
	let el = document.getElementById(id);
	if (!el) {
		el = document.createElement("div");
		el.id = id;
		el.style.cssText = [
			"position:fixed", "top:20px", "left:50%", "transform:translateX(-50%)",
			"padding:12px 24px", "border-radius:999px", "max-width:80%",
			"text-align:center", "background:rgba(0,0,0,0.8)", "color:white",
			"font-family:system-ui,-apple-system,sans-serif", "font-size:18px",
			"font-weight:600", "box-shadow:0 4px 12px rgba(0,0,0,0.4)",
			"z-index:999999", "pointer-events:none",
		].join(";");
		document.body.appendChild(el);
	}
	el.textContent = content;
}`

// LocateEvent finds the configured event's row in the current listing
// snapshot and opens it.
func (a *Automation) LocateEvent(event *EventConfig, pref *DropinPreference) error {
	fmt.Println(T("locating_event"))
	sel := a.config.Selectors

	loadMore, err := a.page.Element(sel.LoadMoreButton)
	if err != nil {
		return fmt.Errorf("load-more button not found: %w", err)
	}
	if err := loadMore.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to expand listing: %w", err)
	}
	if has, overlay, err := a.page.Has(sel.LoadingOverlay); err == nil && has {
		if err := overlay.WaitInvisible(); err != nil {
			return fmt.Errorf("listing overlay never cleared: %w", err)
		}
	}

	day, err := ParseWeekday(event.Day)
	if err != nil {
		return err
	}
	targetDate := TargetDate(time.Now(), day, pref.BookForTomorrow)
	targetHeader := DateHeader(targetDate)
	fmt.Println(T("target_date_header", targetHeader))

	html, err := a.page.HTML()
	if err != nil {
		return fmt.Errorf("failed to snapshot listing: %w", err)
	}
	rows, err := ParseScheduleRows(html, a.config)
	if err != nil {
		return err
	}

	row, err := FindTargetRow(rows, targetHeader, event, a.config)
	if err != nil {
		return err
	}
	fmt.Println(T("event_found"))
	a.debugLog("matched row %d, time label %q", row.Index, row.TimeLabel)

	// Click the matched row's button by position. The live rows and the
	// snapshot come from the same render; positions only shift on reload.
	elements, err := a.page.Elements(sel.ScheduleRows)
	if err != nil {
		return fmt.Errorf("failed to fetch listing rows: %w", err)
	}
	if row.Index >= len(elements) {
		return fmt.Errorf("listing changed during matching: row %d of %d", row.Index, len(elements))
	}
	button, err := elements[row.Index].Element(sel.RowButton)
	if err != nil {
		return fmt.Errorf("matched row has no open button: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to open event row: %w", err)
	}

	return nil
}

// Register drives the full claim: locate and open the event, poll for the
// register affordance, then finalize checkout.
func (a *Automation) Register(event *EventConfig, pref *DropinPreference, clock *TimeSync) error {
	if err := a.LocateEvent(event, pref); err != nil {
		return err
	}

	panel, err := a.page.Element(a.config.Selectors.EventInfoPanel)
	if err != nil {
		return fmt.Errorf("event detail panel not found: %w", err)
	}
	if err := panel.WaitVisible(); err != nil {
		return fmt.Errorf("event detail panel never rendered: %w", err)
	}

	fmt.Println(T("registering"))

	registrar := NewRegistrar(a.config, &pageSurface{a: a}, clock)
	if err := registrar.WaitForRegistration(); err != nil {
		return err
	}

	return a.CompletePayment(pref)
}

// CompletePayment finalizes checkout: select the attendee, pick a free rate
// when offered, place the order inside the payment frame and wait for the
// confirmation text. Nothing here retries; a partially submitted payment must
// not be silently resubmitted.
func (a *Automation) CompletePayment(pref *DropinPreference) error {
	sel := a.config.Selectors

	attendee, err := a.page.ElementR(sel.AttendeeRows, pref.Name)
	if err != nil {
		return fmt.Errorf("%w: attendee row %q not found: %v", ErrCheckoutFailed, pref.Name, err)
	}
	checkbox, err := attendee.Element(sel.AttendeeCheckbox)
	if err != nil {
		return fmt.Errorf("%w: attendee checkbox not found: %v", ErrCheckoutFailed, err)
	}
	if err := checkbox.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: failed to select attendee: %v", ErrCheckoutFailed, err)
	}
	fmt.Println(T("checkout_attendee_selected", pref.Name))

	if err := a.clickNext(); err != nil {
		return err
	}

	table, err := a.page.Element(sel.PriceTable)
	if err != nil {
		return fmt.Errorf("%w: pricing options not found: %v", ErrCheckoutFailed, err)
	}
	if err := table.WaitVisible(); err != nil {
		return fmt.Errorf("%w: pricing options never rendered: %v", ErrCheckoutFailed, err)
	}

	if err := a.selectRate(); err != nil {
		return err
	}

	if err := a.clickNext(); err != nil {
		return err
	}

	frameEl, err := a.page.Element(sel.CheckoutFrame)
	if err != nil {
		return fmt.Errorf("%w: payment frame not found: %v", ErrCheckoutFailed, err)
	}
	frame, err := frameEl.Frame()
	if err != nil {
		return fmt.Errorf("%w: failed to enter payment frame: %v", ErrCheckoutFailed, err)
	}

	// The embedded store needs a moment to settle before the order button
	// responds.
	time.Sleep(time.Duration(a.config.CheckoutSettleMs) * time.Millisecond)

	order, err := frame.ElementR(sel.PlaceOrderButton, sel.PlaceOrderText)
	if err != nil {
		return fmt.Errorf("%w: place-order button not found: %v", ErrCheckoutFailed, err)
	}

	if a.config.DryRun {
		fmt.Println(T("checkout_dry_run_stop"))
		return nil
	}

	fmt.Println(T("checkout_placing_order"))
	if err := order.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: failed to place order: %v", ErrCheckoutFailed, err)
	}

	confirmTimeout := time.Duration(a.config.ConfirmationTimeoutMs) * time.Millisecond
	if _, err := a.page.Timeout(confirmTimeout).Search(a.config.Markers.ConfirmationText); err != nil {
		return fmt.Errorf("%w: confirmation never appeared: %v", ErrCheckoutFailed, err)
	}

	fmt.Println(T("payment_success"))
	return nil
}

func (a *Automation) clickNext() error {
	next, err := a.page.ElementR(a.config.Selectors.NextLink, a.config.Selectors.NextLinkText)
	if err != nil {
		return fmt.Errorf("%w: next link not found: %v", ErrCheckoutFailed, err)
	}
	if err := next.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: failed to advance checkout: %v", ErrCheckoutFailed, err)
	}
	return nil
}

// selectRate picks the first rate tagged free when one exists, else the first
// available paid rate. A least-friction default, no price comparison beyond
// the free/paid binary.
func (a *Automation) selectRate() error {
	sel := a.config.Selectors

	rows, err := a.page.Elements(sel.PriceRows)
	if err != nil || len(rows) == 0 {
		return fmt.Errorf("%w: no rate rows found: %v", ErrCheckoutFailed, err)
	}

	chosen := rows.First()
	free := false
	for _, row := range rows {
		text, err := row.Text()
		if err != nil {
			continue
		}
		if strings.Contains(text, a.config.Markers.FreeRateText) {
			chosen = row
			free = true
			break
		}
	}

	if free {
		fmt.Println(T("checkout_membership_found"))
	} else {
		fmt.Println(T("checkout_payment_required"))
	}

	radio, err := chosen.Element(sel.PriceRadio)
	if err != nil {
		return fmt.Errorf("%w: rate row has no radio control: %v", ErrCheckoutFailed, err)
	}
	if err := radio.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: failed to select rate: %v", ErrCheckoutFailed, err)
	}

	return nil
}
