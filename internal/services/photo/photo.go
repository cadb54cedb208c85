// Package photo implements the photo decomposition pipeline: vision
// identification of food items, parallel per-item nutrition resolution, and
// recursive breakdown of composite dishes
package photo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"platewise/internal/adapters/upstream/genai"
	"platewise/internal/core/nutrition"
	"platewise/internal/core/realism"
	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
	"platewise/internal/services/resolve"
)

// Vision is the photo identification and dish decomposition port
type Vision interface {
	Configured() bool
	IdentifyFoods(ctx context.Context, imageB64, mimeType string) ([]genai.IdentifiedItem, error)
	BreakdownDish(ctx context.Context, dishName string) ([]genai.Ingredient, error)
}

// Resolver resolves one food description through the cascade
type Resolver interface {
	Resolve(ctx context.Context, description string) (resolve.Resolution, error)
}

// ItemResult is one identified item with its resolved nutrition
type ItemResult struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	EstimatedServing string                `json:"estimated_serving"`
	Source           nutrition.Source      `json:"source"`
	ServingGrams     float64               `json:"serving_grams"`
	Nutrition        *nutrition.Record     `json:"nutrition,omitempty"`
	Candidates       []nutrition.Candidate `json:"candidates,omitempty"`
	RealismValidated bool                  `json:"realism_validated"`
	RealismIssues    []string              `json:"realism_issues,omitempty"`

	// Ingredients and IngredientNutrition are set for composite dishes that
	// were decomposed; Nutrition then holds the re-validated aggregate
	Ingredients         []string           `json:"ingredients,omitempty"`
	IngredientNutrition []nutrition.Record `json:"ingredient_nutrition,omitempty"`

	// Failed carries the reason when resolution yielded nothing usable
	Failed string `json:"failed,omitempty"`
}

// Result is the outcome of one photo request
type Result struct {
	Foods           []ItemResult `json:"foods"`
	TotalIdentified int          `json:"total_identified"`
}

// Service runs the pipeline
type Service struct {
	vision  Vision
	resolve Resolver
	limits  realism.Limits
	log     logger.Logger
}

// New creates a photo Service
func New(vision Vision, resolve Resolver, limits realism.Limits) *Service {
	return &Service{
		vision:  vision,
		resolve: resolve,
		limits:  limits,
		log:     *logger.Named("photo"),
	}
}

// Identify runs the full pipeline for one photo. The result array preserves
// identification order regardless of per-item completion order. It fails as a
// whole only when no item could be identified or every nutrition-bearing item
// failed realism validation
func (s *Service) Identify(ctx context.Context, imageB64, mimeType string) (Result, error) {
	if !s.vision.Configured() {
		return Result{}, perr.Configf("generative estimator key not configured")
	}

	items, err := s.vision.IdentifyFoods(ctx, imageB64, mimeType)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, perr.NotFoundf("no food identified in photo")
	}

	// fan out one resolution per item; each slot writes only its own index
	foods := make([]ItemResult, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, it := range items {
		go func(i int, it genai.IdentifiedItem) {
			defer wg.Done()
			foods[i] = s.resolveItem(ctx, it)
		}(i, it)
	}
	wg.Wait()

	bearing, invalid := 0, 0
	for i := range foods {
		if foods[i].Nutrition == nil {
			continue
		}
		bearing++
		if !foods[i].RealismValidated {
			invalid++
		}
	}
	if bearing > 0 && bearing == invalid {
		issues := collectIssues(foods)
		return Result{}, perr.WithIssues(
			perr.Realismf("no realistic nutrition could be produced for any identified item"), issues)
	}

	return Result{Foods: foods, TotalIdentified: len(items)}, nil
}

// resolveItem resolves one identified item, decomposing composite dishes
func (s *Service) resolveItem(ctx context.Context, it genai.IdentifiedItem) ItemResult {
	out := ItemResult{
		ID:               uuid.NewString(),
		Name:             it.Name,
		EstimatedServing: it.EstimatedServing,
	}

	if it.IsComplex {
		if done := s.resolveComposite(ctx, it, &out); done {
			return out
		}
		// decomposition failed; fall through to resolving the dish as a whole
	}

	res, err := s.resolve.Resolve(ctx, itemQuery(it))
	if err != nil {
		s.log.Warn().Err(err).Str("item", it.Name).Msg("item resolution failed")
		out.Source = nutrition.SourceFailed
		out.Failed = perr.WireFrom(err).Message
		return out
	}
	rec := res.Record
	out.Source = rec.Provenance.Source
	out.Nutrition = &rec
	out.ServingGrams = res.ServingGrams
	out.Candidates = res.Candidates
	out.RealismValidated = res.RealismValidated
	out.RealismIssues = res.RealismIssues
	return out
}

// resolveComposite decomposes a dish and sums its ingredient records.
// Returns false when decomposition yielded nothing usable
func (s *Service) resolveComposite(ctx context.Context, it genai.IdentifiedItem, out *ItemResult) bool {
	ings, err := s.vision.BreakdownDish(ctx, it.Name)
	if err != nil || len(ings) == 0 {
		s.log.Warn().Err(err).Str("dish", it.Name).Msg("dish breakdown failed, resolving whole")
		return false
	}

	// fan out one resolution per ingredient; each slot writes only its own index
	type slot struct {
		res resolve.Resolution
		err error
	}
	slots := make([]slot, len(ings))
	var wg sync.WaitGroup
	wg.Add(len(ings))
	for i, ing := range ings {
		go func(i int, ing genai.Ingredient) {
			defer wg.Done()
			slots[i].res, slots[i].err = s.resolve.Resolve(ctx, ing.Serving+" "+ing.Name)
		}(i, ing)
	}
	wg.Wait()

	var (
		parts   []nutrition.Record
		names   []string
		sum     nutrition.Record
		allAuth = true
	)
	for i, ing := range ings {
		if slots[i].err != nil {
			s.log.Warn().Err(slots[i].err).Str("ingredient", ing.Name).Msg("ingredient resolution failed, skipping")
			continue
		}
		rec := slots[i].res.Record
		if !rec.Provenance.Source.Authoritative() {
			allAuth = false
		}
		names = append(names, ing.Name)
		parts = append(parts, rec)
		if len(parts) == 1 {
			sum = rec
		} else {
			sum = sum.Add(rec)
		}
	}
	if len(parts) == 0 {
		return false
	}

	// an aggregate built only from authoritative parts keeps that pedigree
	src := nutrition.SourceGenerativeEstimate
	if allAuth {
		src = nutrition.SourceAuthoritativeDerived
	}
	sum.Provenance = nutrition.Provenance{
		Source:            src,
		SourceDescription: it.Name,
	}
	check := realism.Validate(sum, s.limits)

	out.Source = sum.Provenance.Source
	out.Nutrition = &sum
	out.ServingGrams = sum.ServingGrams
	out.Ingredients = names
	out.IngredientNutrition = parts
	out.RealismValidated = check.Valid
	out.RealismIssues = check.Issues
	return true
}

// itemQuery folds the estimated serving into the resolution query so the
// serving parser can recover a weight from it
func itemQuery(it genai.IdentifiedItem) string {
	sv := strings.TrimSpace(it.EstimatedServing)
	if sv == "" {
		return it.Name
	}
	return sv + " " + it.Name
}

func collectIssues(foods []ItemResult) []string {
	var issues []string
	for i := range foods {
		for _, iss := range foods[i].RealismIssues {
			issues = append(issues, foods[i].Name+": "+iss)
		}
	}
	return issues
}
