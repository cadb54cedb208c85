// Package serving turns free text quantity and unit expressions into a
// canonical serving weight in grams
package serving

import (
	"strconv"
	"strings"
)

// DefaultGrams is assumed when no unit is recognized. Downstream stages
// tolerate serving size uncertainty, so the parser never fails
const DefaultGrams = 100

// unitGrams is the fixed unit conversion table. Liquid units assume water
// density, which is close enough for serving estimation
var unitGrams = map[string]float64{
	"g":           1,
	"gram":        1,
	"grams":       1,
	"kg":          1000,
	"kilogram":    1000,
	"mg":          0.001,
	"ml":          1,
	"l":           1000,
	"liter":       1000,
	"litre":       1000,
	"cup":         240,
	"cups":        240,
	"tbsp":        15,
	"tablespoon":  15,
	"tablespoons": 15,
	"tsp":         5,
	"teaspoon":    5,
	"teaspoons":   5,
	"oz":          28.35,
	"ounce":       28.35,
	"ounces":      28.35,
	"lb":          453.59,
	"lbs":         453.59,
	"pound":       453.59,
	"pounds":      453.59,
	"slice":       30,
	"slices":      30,
	"piece":       150,
	"pieces":      150,
	"small":       100,
	"medium":      150,
	"large":       200,
	"serving":     100,
	"servings":    100,
	"bowl":        350,
	"bowls":       350,
	"plate":       400,
	"glass":       250,
	"can":         330,
	"bottle":      500,
	"handful":     30,
	"scoop":       30,
	"scoops":      30,
	"egg":         50,
	"eggs":        50,
}

// Grams converts an explicit quantity and unit pair to grams.
// Unknown units fall back to the default weight scaled by quantity
func Grams(quantity float64, unit string) float64 {
	if quantity <= 0 {
		quantity = 1
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if g, ok := unitGrams[u]; ok {
		return quantity * g
	}
	return quantity * DefaultGrams
}

// Parse extracts an optional leading quantity and unit from a description like
// "2 cups of rice" and returns the remaining food name with the serving weight.
// With no recognizable prefix the whole input is the name at the default weight
func Parse(raw string) (name string, grams float64) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", DefaultGrams
	}

	qty, ok := parseQuantity(fields[0])
	if !ok {
		return strings.Join(fields, " "), DefaultGrams
	}

	rest := fields[1:]
	if len(rest) == 0 {
		return strings.Join(fields, " "), DefaultGrams
	}

	unit := strings.ToLower(strings.Trim(rest[0], ".,"))
	perUnit, known := unitGrams[unit]
	if !known {
		// "2 bananas" style: quantity of default-weight items
		return strings.Join(dropOf(rest), " "), qty * DefaultGrams
	}
	rest = rest[1:]

	return strings.Join(dropOf(rest), " "), qty * perUnit
}

// parseQuantity accepts plain numbers, decimals, and simple fractions like 1/2
func parseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// dropOf removes a leading "of" connective so "2 cups of rice" names "rice"
func dropOf(fields []string) []string {
	if len(fields) > 0 && strings.EqualFold(fields[0], "of") {
		return fields[1:]
	}
	return fields
}
