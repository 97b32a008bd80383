package ingest

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDeactivateOutsideWhitelist(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	for _, name := range []string{"pkg-a", "pkg-b", "pkg-c"} {
		if err := tx.UpsertPackage(name, now, now); err != nil {
			t.Fatalf("UpsertPackage failed: %v", err)
		}
	}

	whitelist := map[string][]string{"pkg-a": {"core"}}
	noBlacklist := func(string) bool { return false }
	if err := Deactivate(tx, whitelist, noBlacklist, now, testLogger()); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	for name, wantActive := range map[string]bool{"pkg-a": true, "pkg-b": false, "pkg-c": false} {
		pkg, err := s.GetPackage(name)
		if err != nil {
			t.Fatalf("GetPackage %s failed: %v", name, err)
		}
		if pkg.IsActive != wantActive {
			t.Errorf("%s: expected active=%v, got %v", name, wantActive, pkg.IsActive)
		}
	}
}

func TestDeactivateBlacklistOverridesWhitelist(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	for _, name := range []string{"pkg-a", "@internal/tool"} {
		if err := tx.UpsertPackage(name, now, now); err != nil {
			t.Fatalf("UpsertPackage failed: %v", err)
		}
	}

	// @internal/tool is whitelisted AND blacklisted: the blacklist wins.
	whitelist := map[string][]string{
		"pkg-a":          {"core"},
		"@internal/tool": {"core"},
	}
	blacklisted := func(name string) bool { return strings.HasPrefix(name, "@internal/") }
	if err := Deactivate(tx, whitelist, blacklisted, now, testLogger()); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	pkg, err := s.GetPackage("@internal/tool")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if pkg.IsActive {
		t.Error("blacklisted package must be inactive even when whitelisted")
	}

	pkg, err = s.GetPackage("pkg-a")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if !pkg.IsActive {
		t.Error("whitelisted package should stay active")
	}
}

func TestDeactivateNeverReactivates(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := tx.UpsertPackage("pkg-a", now, now); err != nil {
		t.Fatalf("UpsertPackage failed: %v", err)
	}
	if err := tx.DeactivatePackages([]string{"pkg-a"}, now); err != nil {
		t.Fatalf("DeactivatePackages failed: %v", err)
	}

	// pkg-a is whitelisted, but the deactivation pass must not flip an
	// inactive row back to active.
	whitelist := map[string][]string{"pkg-a": {"core"}}
	if err := Deactivate(tx, whitelist, func(string) bool { return false }, now, testLogger()); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	pkg, err := s.GetPackage("pkg-a")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if pkg.IsActive {
		t.Error("deactivation pass must never reactivate a row")
	}
}
