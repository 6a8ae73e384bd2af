package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeSync(t *testing.T) {
	// net/http sets the Date header on every response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ts := &TimeSync{servers: []string{server.URL}}

	if ts.IsSynced() {
		t.Error("TimeSync should not be synced initially")
	}

	if err := ts.Sync(); err != nil {
		t.Fatalf("Failed to sync time: %v", err)
	}

	if !ts.IsSynced() {
		t.Error("TimeSync should be synced after calling Sync()")
	}

	// Against a local server the offset is bounded by the Date header's
	// one-second resolution.
	offset := ts.GetOffset()
	if offset > 2*time.Second || offset < -2*time.Second {
		t.Errorf("Time offset seems unreasonable: %v", offset)
	}
}

func TestTimeSyncAllServersFail(t *testing.T) {
	ts := &TimeSync{servers: []string{"http://127.0.0.1:1"}}

	if err := ts.Sync(); err == nil {
		t.Error("Expected error when no server is reachable")
	}

	if ts.IsSynced() {
		t.Error("TimeSync must not report synced after a failed sync")
	}
}

func TestTimeSyncBeforeSync(t *testing.T) {
	ts := &TimeSync{}

	// Before syncing, Now() should return approximately system time.
	diff := ts.Now().Sub(time.Now())
	if diff > 100*time.Millisecond || diff < -100*time.Millisecond {
		t.Errorf("Unsynced time differs from system time: %v", diff)
	}
}

func TestTimeSyncNowAppliesOffset(t *testing.T) {
	ts := &TimeSync{synced: true, offset: 5 * time.Second}

	diff := ts.Now().Sub(time.Now().Add(5 * time.Second))
	if diff > time.Second || diff < -time.Second {
		t.Errorf("Now() did not apply the offset, diff %v", diff)
	}
}

func TestNewTimeSyncAsksPortalFirst(t *testing.T) {
	config := DefaultConfig()
	ts := NewTimeSync(config)

	if len(ts.servers) == 0 {
		t.Fatal("No sync servers configured")
	}
	if ts.servers[0] != config.BaseURL {
		t.Errorf("Expected the portal to be asked first, got %s", ts.servers[0])
	}
}
