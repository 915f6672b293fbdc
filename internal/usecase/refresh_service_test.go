package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/competition"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/match-tracker/internal/platform/cache"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

type stubProvider struct {
	mu sync.Mutex

	matchPages    map[string]UpstreamMatchPage
	matchErrs     map[string]error
	scorerLists   map[string][]scorers.Scorer
	scorerErrs    map[string]error
	standingLists map[string][]UpstreamStandingsTable
	standingErrs  map[string]error

	calls []string
}

func (p *stubProvider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *stubProvider) FetchMatches(_ context.Context, code string, _ time.Duration) (UpstreamMatchPage, error) {
	p.record("matches:" + code)
	if err := p.matchErrs[code]; err != nil {
		return UpstreamMatchPage{}, err
	}
	return p.matchPages[code], nil
}

func (p *stubProvider) FetchScorers(_ context.Context, code string, _ int) ([]scorers.Scorer, error) {
	p.record("scorers:" + code)
	if err := p.scorerErrs[code]; err != nil {
		return nil, err
	}
	return p.scorerLists[code], nil
}

func (p *stubProvider) FetchStandings(_ context.Context, code string) ([]UpstreamStandingsTable, error) {
	p.record("standings:" + code)
	if err := p.standingErrs[code]; err != nil {
		return nil, err
	}
	return p.standingLists[code], nil
}

func testCompetitions() []competition.Competition {
	return []competition.Competition{
		{Code: "PL", Name: "Premier League"},
		{Code: "SA", Name: "Serie A"},
		{Code: "BL1", Name: "Bundesliga"},
	}
}

func pageWith(home string, utcDate string) UpstreamMatchPage {
	return UpstreamMatchPage{Matches: []UpstreamMatch{
		{Status: match.StatusFinished, HomeTeamName: home, AwayTeamName: "Opponent", UTCDate: utcDate, FullTimeHome: intPtr(1), FullTimeAway: intPtr(0)},
	}}
}

func newTestRefreshService(p *stubProvider, matchRepo match.Repository, scorerRepo scorers.Repository, standingsRepo standings.Repository, snap *cache.Snapshot) *RefreshService {
	svc := NewRefreshService(p, matchRepo, scorerRepo, standingsRepo, snap, RefreshConfig{
		Competitions: testCompetitions(),
		CallPause:    0,
	}, logging.NewNop())
	return svc
}

func TestRefreshService_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := memory.NewMatchRepository()
	scorerRepo := memory.NewScorersRepository()
	standingsRepo := memory.NewStandingsRepository()

	// prior cycle left data for SA
	prior := []match.Match{{CompetitionCode: "SA", HomeTeam: "Old Inter"}}
	if err := matchRepo.ReplaceByCompetition(ctx, "SA", prior); err != nil {
		t.Fatalf("seed prior data: %v", err)
	}

	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL":  pageWith("Arsenal", "2025-11-15T15:00:00Z"),
			"BL1": pageWith("Bayern", "2025-11-15T17:30:00Z"),
		},
		matchErrs: map[string]error{"SA": errors.New("connection refused")},
	}

	svc := newTestRefreshService(p, matchRepo, scorerRepo, standingsRepo, cache.NewSnapshot(time.Minute))

	result, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("cycle with partial failure must succeed, got %v", err)
	}
	if result.MatchesFetched != 2 {
		t.Fatalf("MatchesFetched = %d, want 2", result.MatchesFetched)
	}

	stored, err := matchRepo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list stored: %v", err)
	}
	if len(stored["PL"]) != 1 || stored["PL"][0].HomeTeam != "Arsenal" {
		t.Fatalf("PL not refreshed: %+v", stored["PL"])
	}
	if len(stored["SA"]) != 1 || stored["SA"][0].HomeTeam != "Old Inter" {
		t.Fatalf("failed source SA must keep prior data: %+v", stored["SA"])
	}
}

func TestRefreshService_TotalFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := memory.NewMatchRepository()
	prior := []match.Match{{CompetitionCode: "PL", HomeTeam: "Old Arsenal"}}
	if err := matchRepo.ReplaceByCompetition(ctx, "PL", prior); err != nil {
		t.Fatalf("seed prior data: %v", err)
	}

	p := &stubProvider{
		matchErrs: map[string]error{
			"PL":  errors.New("timeout"),
			"SA":  errors.New("timeout"),
			"BL1": errors.New("timeout"),
		},
	}

	snap := cache.NewSnapshot(time.Minute)
	svc := newTestRefreshService(p, matchRepo, memory.NewScorersRepository(), memory.NewStandingsRepository(), snap)

	if _, err := svc.Run(ctx); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("got %v, want ErrRefreshFailed", err)
	}

	// every source must still have been attempted
	if got := len(p.calls); got != 3 {
		t.Fatalf("attempted %d sources, want 3", got)
	}

	stored, _ := matchRepo.ListAll(ctx)
	if stored["PL"][0].HomeTeam != "Old Arsenal" {
		t.Fatalf("failed cycle must not touch stored data: %+v", stored["PL"])
	}
	if snap.IsValid() {
		t.Fatal("failed cycle must not install a cache snapshot")
	}
}

func TestRefreshService_EmptyFetchOverwritesStaleList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := memory.NewMatchRepository()
	stale := []match.Match{{CompetitionCode: "PL", HomeTeam: "Stale"}}
	if err := matchRepo.ReplaceByCompetition(ctx, "PL", stale); err != nil {
		t.Fatalf("seed stale data: %v", err)
	}

	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL":  {},
			"SA":  pageWith("Inter", "2025-11-15T17:00:00Z"),
			"BL1": {},
		},
	}

	svc := newTestRefreshService(p, matchRepo, memory.NewScorersRepository(), memory.NewStandingsRepository(), nil)

	if _, err := svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	stored, _ := matchRepo.ListAll(ctx)
	if got, ok := stored["PL"]; !ok || len(got) != 0 {
		t.Fatalf("empty upstream list must overwrite stale data, got %+v", got)
	}
}

func TestRefreshService_ScorersFailureKeepsPriorValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	scorerRepo := memory.NewScorersRepository()
	prior := []scorers.Scorer{{Player: scorers.Player{Name: "Old Top Scorer"}, Goals: 20}}
	if err := scorerRepo.ReplaceByCompetition(ctx, "PL", prior); err != nil {
		t.Fatalf("seed prior scorers: %v", err)
	}

	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL": pageWith("Arsenal", "2025-11-15T15:00:00Z"),
		},
		scorerErrs: map[string]error{"PL": errors.New("status 500")},
		scorerLists: map[string][]scorers.Scorer{
			"SA": {{Player: scorers.Player{Name: "Martinez"}, Goals: 12}},
		},
	}

	svc := newTestRefreshService(p, memory.NewMatchRepository(), scorerRepo, memory.NewStandingsRepository(), nil)

	result, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ScorersFetched != 2 {
		t.Fatalf("ScorersFetched = %d, want 2", result.ScorersFetched)
	}

	stored, _ := scorerRepo.ListAll(ctx)
	if stored["PL"][0].Player.Name != "Old Top Scorer" {
		t.Fatalf("failed scorers fetch must keep prior value: %+v", stored["PL"])
	}
	if stored["SA"][0].Player.Name != "Martinez" {
		t.Fatalf("successful scorers fetch not persisted: %+v", stored["SA"])
	}
}

func TestRefreshService_StandingsSelectsTotalTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	standingsRepo := memory.NewStandingsRepository()

	totalRows := []standings.Row{{Position: 1, Team: standings.Team{Name: "Arsenal"}, Points: 30}}
	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL": pageWith("Arsenal", "2025-11-15T15:00:00Z"),
		},
		standingLists: map[string][]UpstreamStandingsTable{
			"PL": {
				{Type: "HOME", Rows: []standings.Row{{Position: 9}}},
				{Type: standings.TableTypeTotal, Rows: totalRows},
			},
			// no TOTAL split: persisting is skipped for this source
			"SA": {
				{Type: "AWAY", Rows: []standings.Row{{Position: 3}}},
			},
		},
	}

	svc := newTestRefreshService(p, memory.NewMatchRepository(), memory.NewScorersRepository(), standingsRepo, nil)

	result, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StandingsFetched != 1 {
		t.Fatalf("StandingsFetched = %d, want 1", result.StandingsFetched)
	}

	stored, _ := standingsRepo.ListAll(ctx)
	if len(stored["PL"]) != 1 || stored["PL"][0].Team.Name != "Arsenal" {
		t.Fatalf("TOTAL table not persisted: %+v", stored["PL"])
	}
	if _, ok := stored["SA"]; ok {
		t.Fatalf("source without TOTAL table must not be persisted: %+v", stored["SA"])
	}
}

func TestRefreshService_PausesAfterEveryCall(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{"PL": pageWith("Arsenal", "2025-11-15T15:00:00Z")},
		matchErrs:  map[string]error{"SA": errors.New("boom"), "BL1": errors.New("boom")},
	}

	svc := NewRefreshService(p, memory.NewMatchRepository(), memory.NewScorersRepository(), memory.NewStandingsRepository(), nil, RefreshConfig{
		Competitions: testCompetitions(),
		CallPause:    time.Second,
	}, logging.NewNop())

	var pauses int
	svc.sleep = func(context.Context, time.Duration) error {
		pauses++
		return nil
	}

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// 3 matches calls + 3 scorers + 3 standings, pause after each,
	// failures included.
	if pauses != 9 {
		t.Fatalf("paused %d times, want 9", pauses)
	}
}

func TestRefreshService_InstallsGroupedSnapshot(t *testing.T) {
	t.Parallel()

	snap := cache.NewSnapshot(time.Hour)
	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL": pageWith("Arsenal", "2025-11-15T15:00:00Z"),
			"SA": pageWith("Inter", "2025-11-15T17:00:00Z"),
		},
		matchErrs: map[string]error{"BL1": errors.New("boom")},
	}

	svc := newTestRefreshService(p, memory.NewMatchRepository(), memory.NewScorersRepository(), memory.NewStandingsRepository(), snap)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	value, ok := snap.Get()
	if !ok {
		t.Fatal("snapshot not installed after successful cycle")
	}
	grouped, ok := value.(map[string][]match.Match)
	if !ok {
		t.Fatalf("snapshot holds %T", value)
	}
	if len(grouped) != 2 {
		t.Fatalf("snapshot has %d groups, want 2", len(grouped))
	}
}

func TestRefreshService_CacheOnlyShortCircuitsWhenValid(t *testing.T) {
	t.Parallel()

	snap := cache.NewSnapshot(time.Hour)
	if !snap.Set(map[string][]match.Match{}, time.Now()) {
		t.Fatal("seed snapshot")
	}

	p := &stubProvider{}
	svc := newTestRefreshService(p, nil, nil, nil, snap)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("valid cache must short-circuit, made calls: %v", p.calls)
	}
}

func TestRefreshService_CacheOnlyFetchesMatchesOnly(t *testing.T) {
	t.Parallel()

	snap := cache.NewSnapshot(time.Hour)
	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL":  pageWith("Arsenal", "2025-11-15T15:00:00Z"),
			"SA":  pageWith("Inter", "2025-11-15T17:00:00Z"),
			"BL1": pageWith("Bayern", "2025-11-15T17:30:00Z"),
		},
	}

	svc := newTestRefreshService(p, nil, nil, nil, snap)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, call := range p.calls {
		if call[:8] != "matches:" {
			t.Fatalf("cache-only cycle made non-matches call %s", call)
		}
	}
	if !snap.IsValid() {
		t.Fatal("cache-only cycle must install the snapshot")
	}
}

func TestRefreshService_DropCountSurfacesInResult(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		matchPages: map[string]UpstreamMatchPage{
			"PL": {Matches: pageWith("Arsenal", "2025-11-15T15:00:00Z").Matches, Dropped: 2},
		},
		matchErrs: map[string]error{"SA": errors.New("boom"), "BL1": errors.New("boom")},
	}

	svc := newTestRefreshService(p, memory.NewMatchRepository(), memory.NewScorersRepository(), memory.NewStandingsRepository(), nil)

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RecordsDropped != 2 {
		t.Fatalf("RecordsDropped = %d, want 2", result.RecordsDropped)
	}
}

type gatedProvider struct {
	stubProvider
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProvider) FetchMatches(ctx context.Context, code string, lookback time.Duration) (UpstreamMatchPage, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
	case <-ctx.Done():
		return UpstreamMatchPage{}, ctx.Err()
	}
	return p.stubProvider.FetchMatches(ctx, code, lookback)
}

func TestRefreshService_RejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	p := &gatedProvider{
		stubProvider: stubProvider{
			matchPages: map[string]UpstreamMatchPage{"PL": pageWith("Arsenal", "2025-11-15T15:00:00Z")},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestRefreshService(nil, memory.NewMatchRepository(), memory.NewScorersRepository(), memory.NewStandingsRepository(), cache.NewSnapshot(time.Minute))
	svc.provider = p

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()

	<-p.started
	if _, err := svc.Run(context.Background()); !errors.Is(err, ErrRefreshInProgress) {
		t.Fatalf("second run: got %v, want ErrRefreshInProgress", err)
	}

	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestRefreshService_NeedsPriming(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := memory.NewMatchRepository()
	svc := newTestRefreshService(&stubProvider{}, matchRepo, memory.NewScorersRepository(), memory.NewStandingsRepository(), nil)

	if !svc.NeedsPriming(ctx) {
		t.Fatal("empty store must prime")
	}

	seeded := []match.Match{{CompetitionCode: "PL", HomeTeam: "Arsenal"}}
	if err := matchRepo.ReplaceByCompetition(ctx, "PL", seeded); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if svc.NeedsPriming(ctx) {
		t.Fatal("populated store must not prime")
	}

	cacheOnly := newTestRefreshService(&stubProvider{}, nil, nil, nil, cache.NewSnapshot(time.Minute))
	if !cacheOnly.NeedsPriming(ctx) {
		t.Fatal("cache-only configuration must always prime")
	}
}
