package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"platewise/internal/core/nutrition"
	perr "platewise/internal/platform/errors"
	phttp "platewise/internal/platform/net/http"
	"platewise/internal/services/resolve"
)

type fakeResolver struct {
	res resolve.Resolution
	err error
}

func (f *fakeResolver) Resolve(context.Context, string) (resolve.Resolution, error) {
	return f.res, f.err
}

func mount(t *testing.T, f *fakeResolver) *chi.Mux {
	t.Helper()
	m := chi.NewRouter()
	Register(phttp.AdaptChi(m), Deps{Resolver: f})
	return m
}

func post(t *testing.T, m *chi.Mux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	return rr
}

func TestEstimateOK(t *testing.T) {
	f := &fakeResolver{res: resolve.Resolution{
		FoodName:     "rice",
		ServingGrams: 480,
		Record: nutrition.Record{
			Calories: 624, ProteinGrams: 13, CarbGrams: 134.4, FatGrams: 1.4,
			ServingGrams: 480,
			Provenance:   nutrition.Provenance{Source: nutrition.SourceAuthoritativeDirect},
		},
		RealismValidated: true,
	}}
	rr := post(t, mount(t, f), "/estimate", `{"food_description":"2 cups of rice"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var env struct {
		StatusCode int              `json:"status_code"`
		Data       EstimateResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Nutrition.Calories != 624 {
		t.Fatalf("calories = %v", env.Data.Nutrition.Calories)
	}
	if env.Data.Source != nutrition.SourceAuthoritativeDirect {
		t.Fatalf("source = %v", env.Data.Source)
	}
	if !env.Data.RealismValidated {
		t.Fatal("realism flag lost")
	}
}

func TestEstimateRealismFailedIs422WithRecord(t *testing.T) {
	f := &fakeResolver{res: resolve.Resolution{
		Record: nutrition.Record{
			Calories: 200, ProteinGrams: 10, CarbGrams: 10, FatGrams: 30,
			Provenance: nutrition.Provenance{Source: nutrition.SourceGenerativeCorrected},
		},
		RealismValidated: false,
		RealismIssues:    []string{"macro-calorie mismatch"},
	}}
	rr := post(t, mount(t, f), "/estimate", `{"food_description":"snack bar"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	var env struct {
		Data EstimateResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	// best-effort record and violations both travel in the 422 body
	if env.Data.Nutrition.Calories != 200 {
		t.Fatalf("record missing: %+v", env.Data)
	}
	if len(env.Data.RealismIssues) == 0 {
		t.Fatal("issues missing")
	}
}

func TestEstimateValidation(t *testing.T) {
	m := mount(t, &fakeResolver{})
	for _, body := range []string{
		`{}`,
		`{"food_description":""}`,
		`{"food_description":"` + strings.Repeat("x", 501) + `"}`,
	} {
		rr := post(t, m, "/estimate", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %.30s: status = %d", body, rr.Code)
		}
	}
}

func TestEstimateErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{perr.NotFoundf("no nutrition data"), http.StatusNotFound},
		{perr.Upstreamf("boom"), http.StatusBadGateway},
		{perr.Timeoutf("slow"), http.StatusGatewayTimeout},
		{perr.Configf("no key"), http.StatusInternalServerError},
	} {
		rr := post(t, mount(t, &fakeResolver{err: tc.err}), "/estimate", `{"food_description":"rice"}`)
		if rr.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rr.Code, tc.status)
		}
	}
}

func TestParseFreeText(t *testing.T) {
	rr := post(t, mount(t, &fakeResolver{}), "/parse", `{"food_description":"2 cups of jasmine rice"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var env struct {
		Data ParseResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.SearchQuery != "jasmine rice" {
		t.Fatalf("query = %q", env.Data.SearchQuery)
	}
	if env.Data.ServingSizeGrams != 480 {
		t.Fatalf("grams = %v", env.Data.ServingSizeGrams)
	}
	if len(env.Data.AlternateQueries) == 0 {
		t.Fatal("no alternates")
	}
}

func TestParseExplicitQuantity(t *testing.T) {
	rr := post(t, mount(t, &fakeResolver{}), "/parse", `{"food_description":"oats","quantity":3,"unit":"tbsp"}`)
	var env struct {
		Data ParseResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.ServingSizeGrams != 45 {
		t.Fatalf("grams = %v", env.Data.ServingSizeGrams)
	}
	if env.Data.SearchQuery != "oats" {
		t.Fatalf("query = %q", env.Data.SearchQuery)
	}
}

func TestParsePreferBranded(t *testing.T) {
	rr := post(t, mount(t, &fakeResolver{}), "/parse", `{"food_description":"a can of Acme™ energy drink"}`)
	var env struct {
		Data ParseResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Data.PreferBranded {
		t.Fatal("branded marker not detected")
	}
}

func TestParseEmptyDescriptionRejected(t *testing.T) {
	rr := post(t, mount(t, &fakeResolver{}), "/parse", `{"food_description":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
