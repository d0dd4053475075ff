package rates

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"effective_date,change_points",
		"2022-06-08,0.50",
		"2022-05-04,0.25",
		"2022-07-06,0.00",
		"not-a-date,0.25",
		"2022-08-03,garbage",
	}, "\n")

	changes, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("got %d changes, expected 2 (zero and malformed rows skipped)", len(changes))
	}
	if !changes[0].EffectiveDate.Before(changes[1].EffectiveDate) {
		t.Error("changes are not sorted by date")
	}
	if changes[0].Value != 0.25 || changes[1].Value != 0.50 {
		t.Errorf("unexpected values: %v, %v", changes[0].Value, changes[1].Value)
	}
}

func TestParseCSVSameDateSummed(t *testing.T) {
	input := "2022-06-08,0.25\n2022-06-08,0.25\n"

	changes, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d changes, expected 1", len(changes))
	}
	if changes[0].Value != 0.5 {
		t.Errorf("same-date changes sum = %v, expected 0.5", changes[0].Value)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty CSV")
	}
}

func TestStaticSource(t *testing.T) {
	changes, err := NewStaticSource().Changes()
	if err != nil {
		t.Fatalf("static source returned error: %v", err)
	}
	if len(changes) == 0 {
		t.Fatal("static source returned no changes")
	}
	for i := 1; i < len(changes); i++ {
		if changes[i].EffectiveDate.Before(changes[i-1].EffectiveDate) {
			t.Fatal("static changes are not sorted by date")
		}
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("effective_date,change_points\n2022-05-04,0.25\n"))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, nil)
	changes, err := source.Changes()
	if err != nil {
		t.Fatalf("HTTPSource returned error: %v", err)
	}
	if len(changes) != 1 || changes[0].Value != 0.25 {
		t.Errorf("unexpected changes: %+v", changes)
	}
}

func TestHTTPSourceBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewHTTPSource(server.URL, nil).Changes(); err == nil {
		t.Error("expected error for non-200 response")
	}
}

type failingSource struct{}

func (failingSource) Changes() ([]Change, error) {
	return nil, errors.New("feed unavailable")
}

type countingSource struct {
	calls   int
	changes []Change
}

func (s *countingSource) Changes() ([]Change, error) {
	s.calls++
	return s.changes, nil
}

func TestFallbackSource(t *testing.T) {
	fallback := &countingSource{changes: []Change{
		{EffectiveDate: time.Date(2022, time.May, 4, 0, 0, 0, 0, time.UTC), Value: 0.25},
	}}

	source := NewFallbackSource(failingSource{}, fallback, nil)
	changes, err := source.Changes()

	if err != nil {
		t.Fatalf("fallback stack surfaced an error: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d changes, expected 1 from fallback", len(changes))
	}
}

func TestFallbackSourcePrefersPrimary(t *testing.T) {
	primary := &countingSource{changes: []Change{
		{EffectiveDate: time.Date(2022, time.May, 4, 0, 0, 0, 0, time.UTC), Value: 0.25},
	}}
	fallback := &countingSource{}

	source := NewFallbackSource(primary, fallback, nil)
	if _, err := source.Changes(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Error("fallback consulted although primary succeeded")
	}
}

func TestCacheMemoizes(t *testing.T) {
	source := &countingSource{changes: []Change{
		{EffectiveDate: time.Date(2022, time.May, 4, 0, 0, 0, 0, time.UTC), Value: 0.25},
	}}
	cache := NewCache(source, nil)

	for i := 0; i < 3; i++ {
		if _, err := cache.Changes(); err != nil {
			t.Fatalf("cache returned error: %v", err)
		}
	}
	if source.calls != 1 {
		t.Errorf("source called %d times, expected 1", source.calls)
	}

	if _, err := cache.Refresh(); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if source.calls != 2 {
		t.Errorf("source called %d times after refresh, expected 2", source.calls)
	}
}

func TestCacheKeepsDataOnFailedRefresh(t *testing.T) {
	source := &countingSource{changes: []Change{
		{EffectiveDate: time.Date(2022, time.May, 4, 0, 0, 0, 0, time.UTC), Value: 0.25},
	}}
	cache := NewCache(source, nil)
	if _, err := cache.Changes(); err != nil {
		t.Fatalf("cache returned error: %v", err)
	}

	// Swap in a failing source; the cached records must survive.
	cache.source = failingSource{}
	changes, err := cache.Refresh()
	if err != nil {
		t.Fatalf("refresh with failing source surfaced an error: %v", err)
	}
	if len(changes) != 1 {
		t.Errorf("got %d changes, expected the 1 cached record", len(changes))
	}
}
