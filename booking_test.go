package main

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeSurface struct {
	visibleOnCheck int // RegisterVisible returns true from this check on; 0 = never
	checks         int
	clicks         int
	reloads        int
	countdowns     []string
	checkErr       error
	clickErr       error
	reloadErr      error
}

func (f *fakeSurface) RegisterVisible() (bool, error) {
	f.checks++
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.visibleOnCheck > 0 && f.checks >= f.visibleOnCheck, nil
}

func (f *fakeSurface) ClickRegister() error {
	f.clicks++
	return f.clickErr
}

func (f *fakeSurface) ShowCountdown(text string) {
	f.countdowns = append(f.countdowns, text)
}

func (f *fakeSurface) Reload() error {
	f.reloads++
	return f.reloadErr
}

// fakeClock advances only when the registrar sleeps, so poll timing is fully
// deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestRegistrar(config *Config, surface bookingSurface) *Registrar {
	clock := &fakeClock{now: time.Date(2025, time.June, 3, 17, 50, 0, 0, time.UTC)}
	r := NewRegistrar(config, surface, nil)
	r.now = clock.Now
	r.sleep = clock.Sleep
	return r
}

func TestWaitForRegistrationMissedWindow(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 12000 // exactly 4 whole intervals

	surface := &fakeSurface{}
	r := newTestRegistrar(config, surface)

	err := r.WaitForRegistration()
	if !errors.Is(err, ErrRegistrationMissed) {
		t.Fatalf("Expected ErrRegistrationMissed, got %v", err)
	}

	// A budget of N whole intervals yields exactly N reload cycles, no extra
	// cycle at the deadline boundary.
	if surface.reloads != 4 {
		t.Errorf("Expected exactly 4 reload cycles, got %d", surface.reloads)
	}
	if surface.checks != 12 {
		t.Errorf("Expected one affordance check per second (12), got %d", surface.checks)
	}
	if surface.clicks != 0 {
		t.Errorf("Register must not be clicked on a missed window, got %d clicks", surface.clicks)
	}
}

func TestWaitForRegistrationClaimsMidInterval(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 60000

	// The affordance appears on the 5th check: second tick of the second
	// interval, between reload boundaries.
	surface := &fakeSurface{visibleOnCheck: 5}
	r := newTestRegistrar(config, surface)

	if err := r.WaitForRegistration(); err != nil {
		t.Fatalf("WaitForRegistration failed: %v", err)
	}

	if surface.clicks != 1 {
		t.Errorf("Expected exactly one register click, got %d", surface.clicks)
	}
	if surface.reloads != 1 {
		t.Errorf("Expected one reload before the claim, got %d", surface.reloads)
	}
	if surface.checks != 5 {
		t.Errorf("Expected the claim on check 5, got %d checks", surface.checks)
	}
}

func TestWaitForRegistrationCountdownText(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 3000

	surface := &fakeSurface{}
	r := newTestRegistrar(config, surface)

	if err := r.WaitForRegistration(); !errors.Is(err, ErrRegistrationMissed) {
		t.Fatalf("Expected ErrRegistrationMissed, got %v", err)
	}

	want := []string{"Refreshing in 3s...", "Refreshing in 2s...", "Refreshing in 1s..."}
	if len(surface.countdowns) != len(want) {
		t.Fatalf("Expected %d countdown updates, got %d", len(want), len(surface.countdowns))
	}
	for i, text := range want {
		if surface.countdowns[i] != text {
			t.Errorf("Countdown %d = %q, want %q", i, surface.countdowns[i], text)
		}
	}
}

func TestWaitForRegistrationImmediateClaim(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 60000

	surface := &fakeSurface{visibleOnCheck: 1}
	r := newTestRegistrar(config, surface)

	if err := r.WaitForRegistration(); err != nil {
		t.Fatalf("WaitForRegistration failed: %v", err)
	}

	if surface.reloads != 0 {
		t.Errorf("Expected no reloads on immediate claim, got %d", surface.reloads)
	}
	if len(surface.countdowns) != 0 {
		t.Errorf("Expected no countdown updates on immediate claim, got %d", len(surface.countdowns))
	}
}

func TestWaitForRegistrationReloadError(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 60000

	surface := &fakeSurface{reloadErr: fmt.Errorf("connection reset")}
	r := newTestRegistrar(config, surface)

	err := r.WaitForRegistration()
	if err == nil {
		t.Fatal("Expected reload error to propagate")
	}
	if errors.Is(err, ErrRegistrationMissed) {
		t.Errorf("Reload failure must not be reported as a missed window: %v", err)
	}
}

func TestWaitForRegistrationCheckError(t *testing.T) {
	config := DefaultConfig()
	config.RefreshIntervalMs = 3000
	config.RegisterWaitTimeoutMs = 60000

	surface := &fakeSurface{checkErr: fmt.Errorf("browser gone")}
	r := newTestRegistrar(config, surface)

	if err := r.WaitForRegistration(); err == nil {
		t.Fatal("Expected affordance check error to propagate")
	}
	if surface.clicks != 0 {
		t.Errorf("Register must not be clicked after a failed check, got %d clicks", surface.clicks)
	}
}

func TestNewRegistrarUsesSyncedClock(t *testing.T) {
	config := DefaultConfig()
	clock := &TimeSync{synced: true, offset: 5 * time.Second}

	r := NewRegistrar(config, &fakeSurface{}, clock)

	diff := r.now().Sub(time.Now().Add(5 * time.Second))
	if diff > time.Second || diff < -time.Second {
		t.Errorf("Registrar clock not offset-adjusted, diff %v", diff)
	}
}
