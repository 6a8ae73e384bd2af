package main

import (
	"fmt"
	"net/http"
	"time"
)

// TimeSync estimates the offset between the local clock and the portal's
// clock so the registration deadline tracks server time. Offsets come from
// HTTP Date headers; the portal itself is asked first, with public fallbacks
// in case it refuses HEAD requests.
type TimeSync struct {
	offset       time.Duration
	lastSyncTime time.Time
	synced       bool
	debugMode    bool
	servers      []string
}

func NewTimeSync(config *Config) *TimeSync {
	return &TimeSync{
		debugMode: config.DebugMode,
		servers: []string{
			config.BaseURL,
			"https://www.google.com",
			"https://www.cloudflare.com",
		},
	}
}

// Sync queries each server and averages the successful offsets.
func (ts *TimeSync) Sync() error {
	var totalOffset time.Duration
	successCount := 0

	for _, server := range ts.servers {
		offset, err := ts.getTimeOffset(server)
		if err != nil {
			if ts.debugMode {
				fmt.Printf("[DEBUG] time sync failed for %s: %v\n", server, err)
			}
			continue
		}

		totalOffset += offset
		successCount++

		if ts.debugMode {
			fmt.Printf("[DEBUG] time offset from %s: %v\n", server, offset)
		}
	}

	if successCount == 0 {
		return fmt.Errorf("failed to sync time with any server")
	}

	ts.offset = totalOffset / time.Duration(successCount)
	ts.lastSyncTime = time.Now()
	ts.synced = true

	return nil
}

// getTimeOffset makes an HTTP HEAD request and derives the clock offset from
// the Date header, compensating for half the round trip.
func (ts *TimeSync) getTimeOffset(url string) (time.Duration, error) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	beforeRequest := time.Now()

	req, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	afterRequest := time.Now()

	dateHeader := resp.Header.Get("Date")
	if dateHeader == "" {
		return 0, fmt.Errorf("no Date header in response")
	}

	serverTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Date header: %w", err)
	}

	latency := afterRequest.Sub(beforeRequest) / 2
	localTime := beforeRequest.Add(latency)

	return serverTime.Sub(localTime), nil
}

// Now returns the current time adjusted by the synchronized offset, or plain
// local time when no sync has succeeded.
func (ts *TimeSync) Now() time.Time {
	if !ts.synced {
		return time.Now()
	}
	return time.Now().Add(ts.offset)
}

func (ts *TimeSync) IsSynced() bool {
	return ts.synced
}

func (ts *TimeSync) GetOffset() time.Duration {
	return ts.offset
}
