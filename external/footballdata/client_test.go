package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		Token:          "secret-token",
		Timeout:        2 * time.Second,
		RetryDelay:     time.Millisecond,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, server
}

const matchesBody = `{
	"competition": {"code": "PL", "name": "Premier League"},
	"matches": [
		{
			"utcDate": "2025-11-15T15:00:00Z",
			"status": "FINISHED",
			"homeTeam": {"name": "Arsenal"},
			"awayTeam": {"name": "Chelsea"},
			"score": {"fullTime": {"home": 2, "away": 1}}
		},
		{
			"utcDate": "2025-11-16T14:00:00Z",
			"status": "TIMED",
			"homeTeam": {"name": "Everton"},
			"awayTeam": {"name": "Fulham"},
			"score": {"fullTime": {"home": null, "away": null}}
		}
	]
}`

func TestClient_FetchMatches(t *testing.T) {
	t.Parallel()

	var gotPath, gotToken, gotFrom, gotTo string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Auth-Token")
		gotFrom = r.URL.Query().Get("dateFrom")
		gotTo = r.URL.Query().Get("dateTo")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(matchesBody))
	}))
	client.now = func() time.Time {
		return time.Date(2025, 11, 16, 10, 0, 0, 0, time.UTC)
	}

	page, err := client.FetchMatches(context.Background(), "PL", 168*time.Hour)
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}

	if gotPath != "/competitions/PL/matches" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotToken != "secret-token" {
		t.Fatalf("auth header = %q", gotToken)
	}
	if gotFrom != "2025-11-09" || gotTo != "2025-11-16" {
		t.Fatalf("window = [%s, %s]", gotFrom, gotTo)
	}

	if len(page.Matches) != 2 || page.Dropped != 0 {
		t.Fatalf("page = %+v", page)
	}
	first := page.Matches[0]
	if first.HomeTeamName != "Arsenal" || first.Status != "FINISHED" {
		t.Fatalf("first record = %+v", first)
	}
	if first.FullTimeHome == nil || *first.FullTimeHome != 2 {
		t.Fatalf("full-time home = %v", first.FullTimeHome)
	}
	if first.CompetitionCode != "PL" || first.CompetitionName != "Premier League" {
		t.Fatalf("competition fallback not applied: %+v", first)
	}
	second := page.Matches[1]
	if second.FullTimeHome != nil {
		t.Fatalf("null score must decode to nil, got %v", second.FullTimeHome)
	}
}

func TestClient_FetchMatches_DropsUndecodableRecords(t *testing.T) {
	t.Parallel()

	body := `{
		"competition": {"code": "SA", "name": "Serie A"},
		"matches": [
			{"utcDate": "2025-11-15T17:00:00Z", "status": "TIMED", "homeTeam": {"name": "Inter"}, "awayTeam": {"name": "Milan"}},
			{"utcDate": 12345, "status": ["not", "a", "string"]}
		]
	}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))

	page, err := client.FetchMatches(context.Background(), "SA", 168*time.Hour)
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}
	if len(page.Matches) != 1 {
		t.Fatalf("got %d records, want 1", len(page.Matches))
	}
	if page.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", page.Dropped)
	}
}

func TestClient_NonSuccessStatusFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusTooManyRequests)
	}))

	_, err := client.FetchMatches(context.Background(), "PL", 168*time.Hour)
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if usecase.IsTransient(err) {
		t.Fatalf("non-2xx must not classify transient: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("made %d requests, want 1 (no retry on status)", got)
	}
}

func TestClient_TransientFailureRetriesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		// first attempt: drop the connection mid-response
		if calls.Load() == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"scorers": []}`))
	}))

	if _, err := client.FetchScorers(context.Background(), "PL", 10); err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("made %d requests, want 2", got)
	}
}

func TestClient_TransientFailureGivesUpAfterRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
	}))

	_, err := client.FetchScorers(context.Background(), "PL", 10)
	if err == nil {
		t.Fatal("expected transient failure")
	}
	if !usecase.IsTransient(err) {
		t.Fatalf("connection failure must classify transient: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("made %d requests, want 2 (retry exactly once)", got)
	}
}

func TestClient_FetchStandings(t *testing.T) {
	t.Parallel()

	body := `{
		"standings": [
			{"type": "HOME", "table": [{"position": 4, "team": {"name": "Arsenal"}}]},
			{"type": "TOTAL", "table": [
				{"position": 1, "team": {"name": "Arsenal"}, "playedGames": 11, "won": 8, "draw": 2, "lost": 1, "points": 26, "goalsFor": 20, "goalsAgainst": 7, "goalDifference": 13}
			]}
		]
	}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))

	tables, err := client.FetchStandings(context.Background(), "PL")
	if err != nil {
		t.Fatalf("fetch standings: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if tables[1].Type != "TOTAL" || len(tables[1].Rows) != 1 {
		t.Fatalf("tables[1] = %+v", tables[1])
	}
	row := tables[1].Rows[0]
	if row.Position != 1 || row.Points != 26 || row.Team.Name != "Arsenal" {
		t.Fatalf("row = %+v", row)
	}
}

func TestClient_FetchScorers(t *testing.T) {
	t.Parallel()

	var gotLimit string
	body := `{
		"scorers": [
			{"player": {"id": 1, "name": "Haaland"}, "team": {"id": 65, "name": "Manchester City"}, "playedMatches": 11, "goals": 14, "assists": 2, "penalties": null}
		]
	}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(body))
	}))

	items, err := client.FetchScorers(context.Background(), "PL", 10)
	if err != nil {
		t.Fatalf("fetch scorers: %v", err)
	}
	if gotLimit != "10" {
		t.Fatalf("limit = %q", gotLimit)
	}
	if len(items) != 1 || items[0].Player.Name != "Haaland" || items[0].Goals != 14 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Penalties != nil {
		t.Fatalf("null penalties must decode to nil, got %v", items[0].Penalties)
	}
}

func TestClient_EmptyCompetitionCode(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.FetchMatches(context.Background(), " ", time.Hour); err == nil {
		t.Fatal("expected invalid input error")
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText("Get https://host/x: token secret-token rejected", "secret-token")
	if got != "Get https://host/x: token REDACTED rejected" {
		t.Fatalf("got %q", got)
	}
}

func TestClient_RestrictedScorersDegradeToEmpty(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusForbidden, http.StatusNotFound} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"restricted resource"}`, status)
		}))

		got, err := client.FetchScorers(context.Background(), "FL1", 10)
		if err != nil {
			t.Fatalf("status %d: expected empty result, got error %v", status, err)
		}
		if len(got) != 0 {
			t.Fatalf("status %d: expected no scorers, got %v", status, got)
		}
	}
}

func TestClient_RestrictedStandingsDegradeToEmpty(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"restricted resource"}`, http.StatusForbidden)
	}))

	got, err := client.FetchStandings(context.Background(), "CL")
	if err != nil {
		t.Fatalf("expected empty result, got error %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tables, got %v", got)
	}
}

func TestClient_RestrictedMatchesStillFail(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"restricted resource"}`, http.StatusForbidden)
	}))

	// matches are the primary surface; a 403 there is a real failure
	if _, err := client.FetchMatches(context.Background(), "PL", 168*time.Hour); err == nil {
		t.Fatal("expected error on 403 matches fetch")
	}
}
