package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/registrykit/npmtrack/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func applyWhitelist(t *testing.T, s *store.Store, whitelist map[string][]string, names []string) {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := ApplyCategories(tx, whitelist, names, time.Now(), testLogger()); err != nil {
		tx.Rollback()
		t.Fatalf("ApplyCategories failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func TestApplyCategoriesMaterializesWhitelist(t *testing.T) {
	s := newTestStore(t)

	applyWhitelist(t, s,
		map[string][]string{
			"pkg-a": {"core"},
			"pkg-b": {"core", "tooling"},
		},
		[]string{"core", "tooling"})

	// pkg-b was never returned by a search, yet it must have a row.
	pkg, err := s.GetPackage("pkg-b")
	if err != nil {
		t.Fatalf("expected placeholder row for pkg-b: %v", err)
	}
	if !pkg.IsActive {
		t.Error("placeholder row should be active")
	}

	got, err := s.PackageCategories("pkg-b")
	if err != nil {
		t.Fatalf("PackageCategories failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"core", "tooling"}) {
		t.Errorf("unexpected categories for pkg-b: %v", got)
	}
}

func TestApplyCategoriesOverwritesAssociations(t *testing.T) {
	s := newTestStore(t)

	applyWhitelist(t, s,
		map[string][]string{"pkg-a": {"legacy", "core"}},
		[]string{"core", "legacy"})

	// Second run drops legacy from pkg-a's entry: the association must go,
	// not merge.
	applyWhitelist(t, s,
		map[string][]string{"pkg-a": {"core"}},
		[]string{"core", "legacy"})

	got, err := s.PackageCategories("pkg-a")
	if err != nil {
		t.Fatalf("PackageCategories failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"core"}) {
		t.Errorf("expected legacy association removed, got %v", got)
	}

	// The category row itself survives even when nothing references it.
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()
	ids, err := tx.CategoryIDs()
	if err != nil {
		t.Fatalf("CategoryIDs failed: %v", err)
	}
	if _, ok := ids["legacy"]; !ok {
		t.Error("legacy category row should not be deleted")
	}
}

func TestApplyCategoriesKeepsExistingDates(t *testing.T) {
	s := newTestStore(t)
	created := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := tx.UpsertPackage("pkg-a", created, published); err != nil {
		t.Fatalf("UpsertPackage failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	applyWhitelist(t, s, map[string][]string{"pkg-a": {"core"}}, []string{"core"})

	pkg, err := s.GetPackage("pkg-a")
	if err != nil {
		t.Fatalf("GetPackage failed: %v", err)
	}
	if !pkg.CreationDate.Equal(created) || !pkg.LastPublishDate.Equal(published) {
		t.Errorf("existing dates must survive the category pass: %+v", pkg)
	}
}

type missingIDWriter struct{}

func (missingIDWriter) UpsertCategory(string, time.Time) error       { return nil }
func (missingIDWriter) EnsurePackage(string, time.Time) error        { return nil }
func (missingIDWriter) CategoryIDs() (map[string]int64, error)       { return map[string]int64{}, nil }
func (missingIDWriter) ReplacePackageCategories(string, []int64) error { return nil }

func TestApplyCategoriesMissingIDFails(t *testing.T) {
	err := ApplyCategories(missingIDWriter{},
		map[string][]string{"pkg-a": {"core"}},
		[]string{"core"},
		time.Now(), testLogger())

	var missing *MissingCategoryError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingCategoryError, got %v", err)
	}
	if missing.Name != "core" {
		t.Errorf("unexpected category in error: %s", missing.Name)
	}
}
