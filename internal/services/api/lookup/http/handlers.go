// Package http provides the authoritative database passthrough search.
// Credentials stay server-side; clients never see the upstream key
package http

import (
	"context"
	"net/http"

	"platewise/internal/core/nutrition"
	"platewise/internal/core/serving"
	"platewise/internal/modkit/httpkit"
	perr "platewise/internal/platform/errors"
)

// searchLimit caps the passthrough page size
const searchLimit = 10

// Searcher is the authoritative database port
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string, limit int) ([]nutrition.Candidate, error)
}

// Deps are the handler dependencies
type Deps struct {
	DB Searcher
}

type handlers struct {
	deps Deps
}

// Register mounts the lookup routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.PostJSON(r, "/search", h.search)
}

// SearchRequest queries the authoritative database by name
// swagger:model
type SearchRequest struct {
	Query              string `json:"query" validate:"required,min=1,max=200" example:"greek yogurt"`
	ServingDescription string `json:"serving_description" validate:"omitempty,max=100" example:"1 cup"`
}

// SearchCandidate is one ranked hit scaled to the requested serving
type SearchCandidate struct {
	ID          string           `json:"id" example:"170903"`
	Description string           `json:"description" example:"Yogurt, Greek, plain, nonfat"`
	DataType    string           `json:"data_type" example:"SR Legacy"`
	BrandOwner  string           `json:"brand_owner,omitempty"`
	Nutrition   nutrition.Record `json:"nutrition"`
}

// SearchResponse is the ranked candidate list
type SearchResponse struct {
	Candidates   []SearchCandidate `json:"candidates"`
	ServingGrams float64           `json:"serving_grams" example:"240"`
	Total        int               `json:"total" example:"7"`
}

// swagger:route POST /lookup/search Lookup lookupSearch
// @Summary Search the nutrient database with ranked results
// @Tags Lookup
// @Accept json
// @Produce json
// @Success 200 type SearchResponse ok
// @Router /lookup/search [post]
func (h *handlers) search(r *http.Request, in SearchRequest) (any, error) {
	if !h.deps.DB.Configured() {
		return nil, perr.Configf("nutrient database key not configured")
	}

	grams := float64(serving.DefaultGrams)
	if in.ServingDescription != "" {
		_, grams = serving.Parse(in.ServingDescription)
	}

	hits, err := h.deps.DB.Search(r.Context(), in.Query, searchLimit)
	if err != nil {
		return nil, err
	}

	ranked := nutrition.RankCandidates(hits)
	out := make([]SearchCandidate, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, SearchCandidate{
			ID:          c.ID,
			Description: c.Description,
			DataType:    c.DataType,
			BrandOwner:  c.BrandOwner,
			Nutrition: nutrition.MapNutrients(c.Nutrients, grams, nutrition.Provenance{
				Source:            nutrition.SourceAuthoritativeDirect,
				SourceID:          c.ID,
				SourceDescription: c.Description,
			}),
		})
	}

	return SearchResponse{Candidates: out, ServingGrams: grams, Total: len(out)}, nil
}
