package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	perr "platewise/internal/platform/errors"
)

const identifyPrompt = `You identify food in photographs. List every distinct food item visible in this image.

Respond with ONLY a JSON array, no markdown, no explanation:
[{"name": "<food name>", "estimated_serving": "<quantity and unit, e.g. '1 cup' or '150 g'>", "is_complex": <true if the item is a mixed or composite dish with multiple ingredients>}]

List at most %d items. If no food is visible, respond with [].`

const breakdownPrompt = `Break the dish %q into its main ingredients with typical serving amounts for one portion.

Respond with ONLY a JSON array, no markdown, no explanation:
[{"name": "<ingredient>", "serving": "<quantity and unit, e.g. '100 g' or '2 tbsp'>"}]

List at most %d ingredients, largest contributors first.`

// IdentifiedItem is one food item the vision model found in a photo
type IdentifiedItem struct {
	Name             string `json:"name"`
	EstimatedServing string `json:"estimated_serving"`
	IsComplex        bool   `json:"is_complex"`
}

// Ingredient is one component of a composite dish
type Ingredient struct {
	Name    string `json:"name"`
	Serving string `json:"serving"`
}

// IdentifyFoods sends a photo to the vision model and returns the food items
// it can see, truncated to the fan-out cap. imageB64 is the raw base64 image
// data without a data-URL prefix
func (c *Client) IdentifyFoods(ctx context.Context, imageB64, mimeType string) ([]IdentifiedItem, error) {
	if imageB64 == "" {
		return nil, perr.Inputf("image data required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []genPart{
		{Text: fmt.Sprintf(identifyPrompt, maxIdentifiedItems)},
		{InlineData: &genInlineData{MimeType: mimeType, Data: imageB64}},
	}
	text, err := c.generate(ctx, parts, genConfig{Temperature: 0.1, MaxOutputTokens: 2048})
	if err != nil {
		return nil, err
	}

	var items []IdentifiedItem
	if err := json.Unmarshal([]byte(stripFences(text)), &items); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeParse, "genai identify response decode failed")
	}

	out := items[:0:len(items)]
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, it)
		if len(out) == maxIdentifiedItems {
			break
		}
	}
	return out, nil
}

// BreakdownDish asks for the ingredient composition of a composite dish,
// truncated to the decomposition cap
func (c *Client) BreakdownDish(ctx context.Context, dishName string) ([]Ingredient, error) {
	if strings.TrimSpace(dishName) == "" {
		return nil, perr.Inputf("dish name required")
	}

	text, err := c.generate(ctx, []genPart{{Text: fmt.Sprintf(breakdownPrompt, dishName, maxIngredients)}},
		genConfig{Temperature: 0.1, MaxOutputTokens: 1024})
	if err != nil {
		return nil, err
	}

	var ings []Ingredient
	if err := json.Unmarshal([]byte(stripFences(text)), &ings); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeParse, "genai breakdown response decode failed")
	}

	out := ings[:0:len(ings)]
	for _, ing := range ings {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		out = append(out, ing)
		if len(out) == maxIngredients {
			break
		}
	}
	return out, nil
}
