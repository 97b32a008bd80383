package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func newTestRegistry(t *testing.T, handler http.Handler) *Registry {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(WithHTTPClient(srv.Client()))
	return New(srv.URL, client)
}

func TestSearchSinglePage(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/-/v1/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "author:alice" {
			t.Errorf("unexpected text query %q", got)
		}
		fmt.Fprint(w, `{
			"objects": [
				{"package": {"name": "pkg-a", "version": "1.2.0", "date": "2024-03-01T10:00:00.000Z"}},
				{"package": {"name": "pkg-b", "version": "0.4.1", "date": "2024-05-20T08:30:00.000Z"}}
			],
			"total": 2
		}`)
	}))

	results, err := reg.Search(context.Background(), ByAuthor, "alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "pkg-a" || results[0].Version != "1.2.0" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Date.IsZero() {
		t.Error("expected parsed date on second result")
	}
}

func TestSearchPaginates(t *testing.T) {
	// 3 results served one per page: the client must follow the from offset
	// until total is exhausted.
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, _ := strconv.Atoi(r.URL.Query().Get("from"))
		if from >= 3 {
			fmt.Fprint(w, `{"objects": [], "total": 3}`)
			return
		}
		fmt.Fprintf(w, `{
			"objects": [{"package": {"name": "pkg-%d", "version": "1.0.0", "date": "2024-01-01T00:00:00.000Z"}}],
			"total": 3
		}`, from)
	}))

	results, err := reg.Search(context.Background(), ByMaintainer, "bob")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results across pages, got %d", len(results))
	}
	for i, d := range results {
		want := fmt.Sprintf("pkg-%d", i)
		if d.Name != want {
			t.Errorf("result %d: expected %s, got %s", i, want, d.Name)
		}
	}
}

func TestSearchServerError(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))

	_, err := reg.Search(context.Background(), ByPublisher, "carol")
	if err == nil {
		t.Fatal("expected error on 502 response")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", httpErr.StatusCode)
	}
}

func TestPackageTimes(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pkg-a" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"name": "pkg-a",
			"time": {
				"created": "2019-06-15T12:00:00.000Z",
				"modified": "2024-03-01T10:00:00.000Z",
				"1.0.0": "2019-06-15T12:05:00.000Z"
			}
		}`)
	}))

	times, err := reg.PackageTimes(context.Background(), "pkg-a")
	if err != nil {
		t.Fatalf("PackageTimes failed: %v", err)
	}

	if times.Created.Year() != 2019 {
		t.Errorf("unexpected created time: %v", times.Created)
	}
	if times.Modified.Year() != 2024 {
		t.Errorf("unexpected modified time: %v", times.Modified)
	}
}

func TestPackageTimesNotFound(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := reg.PackageTimes(context.Background(), "no-such-pkg")
	if err == nil {
		t.Fatal("expected error for missing package")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPackageTimesScopedNameEscaped(t *testing.T) {
	var gotPath string
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"name": "@scope/pkg", "time": {"created": "2020-01-01T00:00:00.000Z"}}`)
	}))

	if _, err := reg.PackageTimes(context.Background(), "@scope/pkg"); err != nil {
		t.Fatalf("PackageTimes failed: %v", err)
	}
	if gotPath != "/@scope%2Fpkg" {
		t.Errorf("expected escaped scoped path, got %s", gotPath)
	}
}
