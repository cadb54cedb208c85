// Package http provides the nutrition estimation endpoints
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"platewise/internal/core/normalize"
	"platewise/internal/core/nutrition"
	"platewise/internal/core/serving"
	"platewise/internal/modkit/httpkit"
	"platewise/internal/platform/net/http/bind"
	"platewise/internal/services/resolve"
)

// Resolver is the cascade port the handlers call
type Resolver interface {
	Resolve(ctx context.Context, description string) (resolve.Resolution, error)
}

// Deps are the handler dependencies
type Deps struct {
	Resolver Resolver
}

type handlers struct {
	deps Deps
}

// Register mounts the nutrition routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Post("/estimate", httpkit.Handle(h.estimate))
	httpkit.PostJSON(r, "/parse", h.parse)
}

// EstimateRequest asks for a nutrition estimate of a food description
// swagger:model
type EstimateRequest struct {
	FoodDescription string `json:"food_description" validate:"required,min=1,max=500" example:"2 cups of rice"`
}

// EstimateResponse is the resolved nutrition payload
type EstimateResponse struct {
	Nutrition        nutrition.Record      `json:"nutrition"`
	Source           nutrition.Source      `json:"source" example:"authoritative_direct"`
	Candidates       []nutrition.Candidate `json:"candidates,omitempty"`
	RealismValidated bool                  `json:"realism_validated" example:"true"`
	RealismIssues    []string              `json:"realism_issues,omitempty"`
	FromCache        bool                  `json:"from_cache" example:"false"`
	ResponseTimeMs   int64                 `json:"response_time_ms" example:"412"`
}

// swagger:route POST /nutrition/estimate Nutrition nutritionEstimate
// @Summary Resolve nutrition for a food description
// @Tags Nutrition
// @Accept json
// @Produce json
// @Success 200 type EstimateResponse ok
// @Failure 422 type EstimateResponse "resolved but not realism validated"
// @Router /nutrition/estimate [post]
func (h *handlers) estimate(r *http.Request) httpkit.Response {
	start := time.Now()

	in, err := bind.ParseJSON[EstimateRequest](r)
	if err != nil {
		return httpkit.Error(err)
	}

	res, err := h.deps.Resolver.Resolve(r.Context(), in.FoodDescription)
	if err != nil {
		return httpkit.Error(err)
	}

	out := EstimateResponse{
		Nutrition:        res.Record,
		Source:           res.Record.Provenance.Source,
		Candidates:       res.Candidates,
		RealismValidated: res.RealismValidated,
		RealismIssues:    res.RealismIssues,
		FromCache:        res.FromCache,
		ResponseTimeMs:   time.Since(start).Milliseconds(),
	}
	if !res.RealismValidated {
		// the best-effort record still travels so the caller can explain the
		// violations to the user, but the status marks it unusable as-is
		return httpkit.Response{Status: http.StatusUnprocessableEntity, Body: out}
	}
	return httpkit.OK(out)
}

// ParseRequest asks how a description would be searched and weighed
// swagger:model
type ParseRequest struct {
	FoodDescription string  `json:"food_description" validate:"required,min=1,max=500" example:"2 cups of jasmine rice"`
	Quantity        float64 `json:"quantity" validate:"omitempty,gt=0" example:"2"`
	Unit            string  `json:"unit" validate:"omitempty,max=32" example:"cup"`
}

// ParseResponse is the parsed search plan
type ParseResponse struct {
	SearchQuery      string   `json:"search_query" example:"jasmine rice"`
	ServingSizeGrams float64  `json:"serving_size_grams" example:"480"`
	AlternateQueries []string `json:"alternate_queries,omitempty"`
	PreferBranded    bool     `json:"prefer_branded" example:"false"`
}

// swagger:route POST /nutrition/parse Nutrition nutritionParse
// @Summary Parse a description into a search query and serving weight
// @Tags Nutrition
// @Accept json
// @Produce json
// @Success 200 type ParseResponse ok
// @Router /nutrition/parse [post]
func (h *handlers) parse(_ *http.Request, in ParseRequest) (any, error) {
	var (
		name  string
		grams float64
	)
	if in.Quantity > 0 {
		name = in.FoodDescription
		grams = serving.Grams(in.Quantity, in.Unit)
	} else {
		name, grams = serving.Parse(in.FoodDescription)
	}

	query := normalize.Query(name)
	return ParseResponse{
		SearchQuery:      query,
		ServingSizeGrams: grams,
		AlternateQueries: alternates(query),
		PreferBranded:    preferBranded(in.FoodDescription),
	}, nil
}

// alternates produces database-friendly variants of a query: preparation
// qualifiers help match curated entries, and a truncated head helps when the
// description is over-specific
func alternates(query string) []string {
	if query == "" {
		return nil
	}
	var out []string
	add := func(q string) {
		if q == "" || q == query {
			return
		}
		for _, seen := range out {
			if seen == q {
				return
			}
		}
		out = append(out, q)
	}

	add(query + " raw")
	add(query + " cooked")
	if words := strings.Fields(query); len(words) > 2 {
		add(strings.Join(words[:2], " "))
	}
	return out
}

// preferBranded flags descriptions that name a packaged product
func preferBranded(description string) bool {
	if strings.ContainsAny(description, "®™") {
		return true
	}
	low := strings.ToLower(description)
	for _, marker := range []string{"brand", "packaged", "store-bought", "bottle of", "can of", "bar ("} {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}
