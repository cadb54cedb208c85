// Package resolve runs the tiered nutrition resolution cascade for a single
// food description: authoritative database lookup, AI-assisted re-query,
// generative estimation, then a realism gate with one corrective retry
package resolve

import (
	"context"

	"platewise/internal/core/normalize"
	"platewise/internal/core/nutrition"
	"platewise/internal/core/realism"
	"platewise/internal/core/serving"
	"platewise/internal/platform/cache"
	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
)

// candidateKeep caps the alternatives carried back for user-facing pickers
const candidateKeep = 5

// Database is the authoritative nutrient search port
type Database interface {
	Configured() bool
	Search(ctx context.Context, query string, limit int) ([]nutrition.Candidate, error)
}

// Estimator is the generative estimation port
type Estimator interface {
	Configured() bool
	RewriteQuery(ctx context.Context, original string) (string, error)
	EstimateNutrition(ctx context.Context, foodName string, servingGrams float64, feedback []string) (nutrition.Record, error)
}

// Resolution is the outcome of one cascade run
type Resolution struct {
	Query        string  `json:"query"`
	FoodName     string  `json:"food_name"`
	ServingGrams float64 `json:"serving_grams"`

	Record nutrition.Record `json:"nutrition"`

	// Candidates holds up to five ranked authoritative alternatives when a
	// database search ran. Cache hits carry none
	Candidates []nutrition.Candidate `json:"candidates,omitempty"`

	// RealismValidated is false when the record stayed implausible after the
	// one corrective retry; RealismIssues then lists the violated rules
	RealismValidated bool     `json:"realism_validated"`
	RealismIssues    []string `json:"realism_issues,omitempty"`

	FromCache bool `json:"from_cache"`
}

// Service orchestrates the cascade over the configured upstreams
type Service struct {
	db     Database
	est    Estimator
	store  cache.Store
	flight *cache.Flight
	limits realism.Limits
	log    logger.Logger
}

// New creates a resolve Service. db and est may be unconfigured clients; the
// cascade skips the stages their keys are missing for. store may be nil to
// disable caching
func New(db Database, est Estimator, store cache.Store, limits realism.Limits) *Service {
	return &Service{
		db:     db,
		est:    est,
		store:  store,
		flight: cache.NewFlight(),
		limits: limits,
		log:    *logger.Named("resolve"),
	}
}

// Resolve runs the full cascade for a free-text food description.
// Identical in-flight queries share one upstream resolution
func (s *Service) Resolve(ctx context.Context, description string) (Resolution, error) {
	name, grams := serving.Parse(description)
	if name == "" {
		return Resolution{}, perr.Inputf("food description required")
	}
	key := normalize.Key(name, grams)

	v, shared, err := s.flight.Do(ctx, key, func() (any, error) {
		return s.resolveOnce(ctx, description, name, grams, key)
	})
	if err != nil {
		return Resolution{}, err
	}
	res := v.(Resolution)
	if shared {
		s.log.Debug().Str("key", key).Msg("coalesced duplicate resolution")
	}
	return res, nil
}

func (s *Service) resolveOnce(ctx context.Context, query, name string, grams float64, key string) (Resolution, error) {
	res := Resolution{Query: query, FoodName: name, ServingGrams: grams}

	if s.store != nil {
		if v, ok := s.store.Get(key); ok {
			rec := v.(nutrition.Record)
			res.Record = rec
			res.RealismValidated = true
			res.FromCache = true
			s.log.Debug().Str("key", key).Msg("cache hit")
			return res, nil
		}
	}

	rec, cands, err := s.cascade(ctx, name, grams)
	if err != nil {
		return Resolution{}, err
	}
	res.Candidates = cands

	rec, check := s.realismGate(ctx, name, grams, rec)
	res.Record = rec
	res.RealismValidated = check.Valid
	res.RealismIssues = check.Issues

	// only validated authoritative records are worth remembering; a
	// generative guess should not preempt a future authoritative attempt
	if s.store != nil && check.Valid && rec.Provenance.Source.Authoritative() {
		s.store.Set(key, rec)
	} else if s.store != nil {
		s.store.Evict(key)
	}
	return res, nil
}

// cascade tries each source in priority order until one yields calories > 0
func (s *Service) cascade(ctx context.Context, name string, grams float64) (nutrition.Record, []nutrition.Candidate, error) {
	if !s.db.Configured() && !s.est.Configured() {
		return nutrition.Record{}, nil, perr.Configf("no upstream credentials configured")
	}

	var cands []nutrition.Candidate

	if s.db.Configured() {
		rec, got, ok := s.searchMap(ctx, name, grams, nutrition.SourceAuthoritativeDirect)
		cands = got
		if ok {
			return rec, keep(cands), nil
		}

		if s.est.Configured() {
			term, err := s.est.RewriteQuery(ctx, name)
			if err != nil {
				s.log.Warn().Err(err).Str("food", name).Msg("query rewrite failed, skipping")
			} else if term != "" {
				rec, got, ok := s.searchMap(ctx, term, grams, nutrition.SourceAuthoritativeAIAssisted)
				if len(got) > 0 {
					cands = got
				}
				if ok {
					return rec, keep(cands), nil
				}
			}
		}
	}

	if s.est.Configured() {
		rec, err := s.est.EstimateNutrition(ctx, name, grams, nil)
		if err != nil {
			if perr.Recoverable(err) {
				return nutrition.Record{}, nil, perr.Wrapf(err, perr.CodeOf(err), "all resolution sources failed for %q", name)
			}
			return nutrition.Record{}, nil, err
		}
		if rec.Calories > 0 {
			return rec, keep(cands), nil
		}
	}

	return nutrition.Record{}, nil, perr.NotFoundf("no nutrition data found for %q", name)
}

// searchMap runs one database search and maps the best candidate.
// ok is true when the mapped record has calories > 0
func (s *Service) searchMap(
	ctx context.Context,
	term string,
	grams float64,
	src nutrition.Source,
) (nutrition.Record, []nutrition.Candidate, bool) {
	cands, err := s.db.Search(ctx, term, 10)
	if err != nil {
		s.log.Warn().Err(err).Str("term", term).Msg("database search failed, advancing cascade")
		return nutrition.Record{}, nil, false
	}

	ranked := nutrition.RankCandidates(cands)
	for _, cand := range ranked {
		rec := nutrition.MapNutrients(cand.Nutrients, grams, nutrition.Provenance{
			Source:            src,
			SourceID:          cand.ID,
			SourceDescription: cand.Description,
		})
		if rec.Calories > 0 {
			return rec, ranked, true
		}
	}
	return nutrition.Record{}, ranked, false
}

// realismGate validates rec and issues at most one corrective re-estimate
func (s *Service) realismGate(
	ctx context.Context,
	name string,
	grams float64,
	rec nutrition.Record,
) (nutrition.Record, realism.Result) {
	check := realism.Validate(rec, s.limits)
	if check.Valid || !s.est.Configured() {
		return rec, check
	}

	s.log.Info().Str("food", name).Strs("issues", check.Issues).Msg("realism check failed, issuing corrective retry")
	corrected, err := s.est.EstimateNutrition(ctx, name, grams, check.Issues)
	if err != nil {
		s.log.Warn().Err(err).Str("food", name).Msg("corrective retry failed")
		return rec, check
	}

	// the corrected record is the best effort either way; if it is still
	// implausible its issues travel with it
	recheck := realism.Validate(corrected, s.limits)
	return corrected, recheck
}

func keep(cands []nutrition.Candidate) []nutrition.Candidate {
	if len(cands) > candidateKeep {
		return cands[:candidateKeep]
	}
	return cands
}
