package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"platewise/internal/core/nutrition"
	perr "platewise/internal/platform/errors"
)

const rewritePrompt = `You translate food descriptions into USDA nutrient database search terms.
Respond with ONLY the search term, no punctuation, no explanation.
Food description: %q`

const estimatePrompt = `You are a nutrition estimation service. Estimate the nutritional content of %q for a serving of %.0f grams.

Respond with ONLY a JSON object, no markdown, no explanation:
{"calories": <number>, "protein_g": <number>, "carb_g": <number>, "fat_g": <number>, "fiber_g": <number or null>, "sugar_g": <number or null>, "sodium_mg": <number or null>}

All values are for the full %.0f gram serving. Keep every value within realistic physiological ranges. Calories must be consistent with the macros (4 kcal per gram of protein and carbs, 9 per gram of fat).`

const feedbackSuffix = `

A previous estimate for this food was rejected for these reasons:
%s
Produce a corrected estimate that resolves every listed issue.`

// estimatePayload is the strict JSON contract the estimator must return
type estimatePayload struct {
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbG    float64  `json:"carb_g"`
	FatG     float64  `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarG   *float64 `json:"sugar_g"`
	SodiumMg *float64 `json:"sodium_mg"`
}

// RewriteQuery asks the estimator for a database-friendly search term.
// It returns "" when the suggestion is unusable (empty, too long, or the
// same as the original), which callers treat as "skip the rewrite stage"
func (c *Client) RewriteQuery(ctx context.Context, original string) (string, error) {
	text, err := c.generate(ctx, []genPart{{Text: fmt.Sprintf(rewritePrompt, original)}}, genConfig{
		Temperature:     0,
		MaxOutputTokens: 32,
	})
	if err != nil {
		return "", err
	}

	term := strings.TrimSpace(stripFences(text))
	term = strings.Trim(term, `"'`)
	if term == "" || len(term) > maxRewriteLen {
		return "", nil
	}
	if strings.EqualFold(term, strings.TrimSpace(original)) {
		return "", nil
	}
	return term, nil
}

// EstimateNutrition asks the estimator directly for a structured nutrition
// record for the given serving. feedback carries realism violations from a
// rejected earlier estimate; non-empty feedback marks the result as corrected
func (c *Client) EstimateNutrition(
	ctx context.Context,
	foodName string,
	servingGrams float64,
	feedback []string,
) (nutrition.Record, error) {
	prompt := fmt.Sprintf(estimatePrompt, foodName, servingGrams, servingGrams)
	if len(feedback) > 0 {
		prompt += fmt.Sprintf(feedbackSuffix, "- "+strings.Join(feedback, "\n- "))
	}

	text, err := c.generate(ctx, []genPart{{Text: prompt}}, genConfig{
		Temperature:     0.2,
		MaxOutputTokens: 256,
	})
	if err != nil {
		return nutrition.Record{}, err
	}

	var p estimatePayload
	if err := json.Unmarshal([]byte(stripFences(text)), &p); err != nil {
		return nutrition.Record{}, perr.Wrapf(err, perr.ErrorCodeParse, "genai nutrition estimate decode failed")
	}

	src := nutrition.SourceGenerativeEstimate
	if len(feedback) > 0 {
		src = nutrition.SourceGenerativeCorrected
	}
	return nutrition.Record{
		Calories:     p.Calories,
		ProteinGrams: p.ProteinG,
		CarbGrams:    p.CarbG,
		FatGrams:     p.FatG,
		FiberGrams:   p.FiberG,
		SugarGrams:   p.SugarG,
		SodiumMg:     p.SodiumMg,
		ServingGrams: servingGrams,
		Provenance: nutrition.Provenance{
			Source:            src,
			SourceDescription: foodName,
		},
	}, nil
}

// stripFences removes a markdown code fence wrapper if the model added one
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
