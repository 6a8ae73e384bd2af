package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGetUserDataDir(t *testing.T) {
	dir := getUserDataDir()

	if dir == "" {
		t.Fatal("getUserDataDir returned empty string")
	}

	if dir == "./dropin-data" {
		// Fallback path is acceptable
		return
	}

	if !strings.Contains(dir, ".dropin") {
		t.Errorf("Expected directory to contain '.dropin', got '%s'", dir)
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("Expected absolute path, got '%s'", dir)
	}
}

func TestMainPackage(t *testing.T) {
	// Basic sanity check that the wiring types construct.
	config := DefaultConfig()
	if config == nil {
		t.Fatal("Unable to create default config")
	}

	automation := NewAutomation(config)
	if automation == nil {
		t.Fatal("Unable to create automation instance")
	}
}
