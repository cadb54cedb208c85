package resolve

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"platewise/internal/core/nutrition"
	"platewise/internal/core/realism"
	"platewise/internal/platform/cache"
	perr "platewise/internal/platform/errors"
)

type fakeDB struct {
	configured bool
	searches   atomic.Int32
	byTerm     map[string][]nutrition.Candidate
	err        error
	release    chan struct{} // when non-nil, Search blocks until closed
}

func (f *fakeDB) Configured() bool { return f.configured }

func (f *fakeDB) Search(_ context.Context, term string, _ int) ([]nutrition.Candidate, error) {
	f.searches.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.byTerm[term], nil
}

type fakeEstimator struct {
	configured bool
	rewrites   atomic.Int32
	estimates  atomic.Int32
	rewrite    string
	rewriteErr error

	// estimate returns records in order per call; the last repeats
	records []nutrition.Record
	err     error
}

func (f *fakeEstimator) Configured() bool { return f.configured }

func (f *fakeEstimator) RewriteQuery(context.Context, string) (string, error) {
	f.rewrites.Add(1)
	return f.rewrite, f.rewriteErr
}

func (f *fakeEstimator) EstimateNutrition(
	_ context.Context, name string, grams float64, feedback []string,
) (nutrition.Record, error) {
	n := int(f.estimates.Add(1)) - 1
	if f.err != nil {
		return nutrition.Record{}, f.err
	}
	if n >= len(f.records) {
		n = len(f.records) - 1
	}
	rec := f.records[n]
	rec.ServingGrams = grams
	rec.Provenance.Source = nutrition.SourceGenerativeEstimate
	if len(feedback) > 0 {
		rec.Provenance.Source = nutrition.SourceGenerativeCorrected
	}
	return rec, nil
}

func riceCandidates() []nutrition.Candidate {
	return []nutrition.Candidate{{
		ID:          "169756",
		Description: "Rice, white, cooked",
		DataType:    "SR Legacy",
		Nutrients: []nutrition.RawNutrient{
			{ID: "208", Value: 130},
			{ID: "203", Value: 2.7},
			{ID: "205", Value: 28},
			{ID: "204", Value: 0.3},
		},
	}}
}

func plausibleEstimate() nutrition.Record {
	return nutrition.Record{Calories: 250, ProteinGrams: 12, CarbGrams: 30, FatGrams: 8}
}

func TestResolveAuthoritativeDirect(t *testing.T) {
	db := &fakeDB{configured: true, byTerm: map[string][]nutrition.Candidate{"rice": riceCandidates()}}
	est := &fakeEstimator{configured: true, records: []nutrition.Record{plausibleEstimate()}}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "2 cups of rice")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Record.Provenance.Source != nutrition.SourceAuthoritativeDirect {
		t.Fatalf("source = %v", res.Record.Provenance.Source)
	}
	if res.Record.Calories != 624 || res.ServingGrams != 480 {
		t.Fatalf("record = %+v", res.Record)
	}
	if !res.RealismValidated {
		t.Fatalf("realism failed: %v", res.RealismIssues)
	}
	// the estimator must never be consulted on an authoritative hit
	if est.rewrites.Load() != 0 || est.estimates.Load() != 0 {
		t.Fatalf("estimator called: rewrites=%d estimates=%d", est.rewrites.Load(), est.estimates.Load())
	}
}

func TestResolveAIAssistedFallback(t *testing.T) {
	db := &fakeDB{configured: true, byTerm: map[string][]nutrition.Candidate{
		"rice white cooked": riceCandidates(),
	}}
	est := &fakeEstimator{configured: true, rewrite: "rice white cooked"}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "grandma rice special")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Record.Provenance.Source != nutrition.SourceAuthoritativeAIAssisted {
		t.Fatalf("source = %v", res.Record.Provenance.Source)
	}
	if est.rewrites.Load() != 1 {
		t.Fatalf("rewrites = %d", est.rewrites.Load())
	}
}

func TestResolveGenerativeFallback(t *testing.T) {
	db := &fakeDB{configured: true} // configured but empty results
	est := &fakeEstimator{configured: true, records: []nutrition.Record{plausibleEstimate()}}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "weird fusion bowl")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Record.Provenance.Source != nutrition.SourceGenerativeEstimate {
		t.Fatalf("source = %v", res.Record.Provenance.Source)
	}
}

func TestResolveUnresolved(t *testing.T) {
	db := &fakeDB{configured: true}
	est := &fakeEstimator{configured: false}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	_, err := svc.Resolve(context.Background(), "mystery dish")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestResolveNoUpstreamsConfigured(t *testing.T) {
	svc := New(&fakeDB{}, &fakeEstimator{}, cache.NewMemory(), realism.DefaultLimits())

	_, err := svc.Resolve(context.Background(), "rice")
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	svc := New(&fakeDB{}, &fakeEstimator{}, cache.NewMemory(), realism.DefaultLimits())
	_, err := svc.Resolve(context.Background(), "   ")
	if !perr.IsCode(err, perr.ErrorCodeInput) {
		t.Fatalf("want input error, got %v", err)
	}
}

func TestResolveRealismCorrectionOnce(t *testing.T) {
	db := &fakeDB{configured: true}
	bogus := nutrition.Record{Calories: 200, ProteinGrams: 10, CarbGrams: 10, FatGrams: 30}
	est := &fakeEstimator{configured: true, records: []nutrition.Record{bogus, plausibleEstimate()}}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "snack bar")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.RealismValidated {
		t.Fatalf("corrected record still invalid: %v", res.RealismIssues)
	}
	if res.Record.Provenance.Source != nutrition.SourceGenerativeCorrected {
		t.Fatalf("source = %v", res.Record.Provenance.Source)
	}
	if est.estimates.Load() != 2 {
		t.Fatalf("estimates = %d, want exactly 2 (one estimate + one correction)", est.estimates.Load())
	}
}

func TestResolveRealismFailedAfterRetry(t *testing.T) {
	db := &fakeDB{configured: true}
	bogus := nutrition.Record{Calories: 200, ProteinGrams: 10, CarbGrams: 10, FatGrams: 30}
	est := &fakeEstimator{configured: true, records: []nutrition.Record{bogus, bogus}}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "snack bar")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RealismValidated {
		t.Fatal("invalid record marked validated")
	}
	if len(res.RealismIssues) == 0 {
		t.Fatal("violations missing from failed resolution")
	}
	if res.Record.Calories != 200 {
		t.Fatal("best-effort record missing")
	}
	if est.estimates.Load() != 2 {
		t.Fatalf("estimates = %d, want exactly 2 (no second retry)", est.estimates.Load())
	}
}

func TestResolveCachesAuthoritativeOnly(t *testing.T) {
	db := &fakeDB{configured: true, byTerm: map[string][]nutrition.Candidate{"rice": riceCandidates()}}
	est := &fakeEstimator{configured: true, records: []nutrition.Record{plausibleEstimate()}}
	store := cache.NewMemory()
	svc := New(db, est, store, realism.DefaultLimits())

	// authoritative resolution populates the cache
	if _, err := svc.Resolve(context.Background(), "1 cup rice"); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Fatalf("cache len = %d after authoritative hit", store.Len())
	}
	res, err := svc.Resolve(context.Background(), "1 cup rice")
	if err != nil {
		t.Fatal(err)
	}
	if !res.FromCache {
		t.Fatal("second identical query missed cache")
	}
	if db.searches.Load() != 1 {
		t.Fatalf("searches = %d, want 1", db.searches.Load())
	}

	// generative resolution must not persist
	if _, err := svc.Resolve(context.Background(), "weird bowl"); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Fatalf("cache len = %d; generative record was cached", store.Len())
	}
	if _, err := svc.Resolve(context.Background(), "weird bowl"); err != nil {
		t.Fatal(err)
	}
	if got := db.searches.Load(); got != 3 {
		t.Fatalf("searches = %d; repeated generative query should re-attempt the database", got)
	}
}

func TestResolveDeduplicatesInFlight(t *testing.T) {
	release := make(chan struct{})
	db := &fakeDB{
		configured: true,
		byTerm:     map[string][]nutrition.Candidate{"rice": riceCandidates()},
		release:    release,
	}
	est := &fakeEstimator{configured: true}
	svc := New(db, est, cache.NewMemory(), realism.DefaultLimits())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Resolution, callers)
	errs := make([]error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Resolve(context.Background(), "2 cups of rice")
		}(i)
	}

	// let all callers pile onto the shared flight, then let the search finish.
	// stragglers that miss the flight entirely hit the cache instead, so the
	// search count stays at one either way
	for db.searches.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Record.Calories != 624 {
			t.Fatalf("caller %d record = %+v", i, results[i].Record)
		}
	}
	if got := db.searches.Load(); got != 1 {
		t.Fatalf("searches = %d, want 1 shared upstream call", got)
	}
}

func TestResolveCandidatesKept(t *testing.T) {
	cands := riceCandidates()
	for i := 0; i < 9; i++ {
		extra := riceCandidates()[0]
		extra.ID = string(rune('a' + i))
		extra.DataType = "Branded"
		cands = append(cands, extra)
	}
	db := &fakeDB{configured: true, byTerm: map[string][]nutrition.Candidate{"rice": cands}}
	svc := New(db, &fakeEstimator{}, cache.NewMemory(), realism.DefaultLimits())

	res, err := svc.Resolve(context.Background(), "rice")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != candidateKeep {
		t.Fatalf("candidates = %d, want %d", len(res.Candidates), candidateKeep)
	}
	if res.Candidates[0].ID != "169756" {
		t.Fatalf("ranking lost: first candidate %+v", res.Candidates[0])
	}
}
