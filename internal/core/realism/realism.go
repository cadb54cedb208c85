// Package realism applies plausibility rules to a nutrition record before it
// is returned to callers. The bounds are policy, not nutritional law, so they
// are carried in a Limits value that deployments can override
package realism

import (
	"fmt"
	"math"

	"platewise/internal/core/nutrition"
)

// Limits holds the plausibility policy for a single serving
type Limits struct {
	// CaloriesMin and CaloriesMax bound the total energy of one serving
	CaloriesMin float64
	CaloriesMax float64

	// MacroTolerance is the allowed relative error between stated calories
	// and the macro-derived estimate (4p + 4c + 9f)
	MacroTolerance float64

	// Micronutrient ceilings, applied only when the value is present
	FiberMaxGrams    float64
	SugarMaxGrams    float64
	SodiumMaxMg      float64
	CholesterolMaxMg float64
	CalciumMaxMg     float64
	IronMaxMg        float64
	PotassiumMaxMg   float64
	VitaminAMaxMcg   float64
	VitaminCMaxMg    float64
	VitaminDMaxMcg   float64
}

// DefaultLimits returns the stock policy
func DefaultLimits() Limits {
	return Limits{
		CaloriesMin:      1,
		CaloriesMax:      3000,
		MacroTolerance:   0.40,
		FiberMaxGrams:    80,
		SugarMaxGrams:    300,
		SodiumMaxMg:      8000,
		CholesterolMaxMg: 2000,
		CalciumMaxMg:     5000,
		IronMaxMg:        100,
		PotassiumMaxMg:   10000,
		VitaminAMaxMcg:   10000,
		VitaminCMaxMg:    5000,
		VitaminDMaxMcg:   500,
	}
}

// Result is the outcome of one validation pass. Valid is true iff Issues is
// empty; there is no partially-valid state
type Result struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// Validate checks r against the limits and returns every violated rule.
// Issues are phrased for end users, not operators
func Validate(r nutrition.Record, lim Limits) Result {
	var issues []string

	if r.Calories < lim.CaloriesMin || r.Calories > lim.CaloriesMax {
		issues = append(issues, fmt.Sprintf(
			"calories %.0f outside plausible range [%.0f, %.0f] for one serving",
			r.Calories, lim.CaloriesMin, lim.CaloriesMax))
	}

	if r.Calories > 0 && (r.ProteinGrams > 0 || r.CarbGrams > 0 || r.FatGrams > 0) {
		derived := 4*r.ProteinGrams + 4*r.CarbGrams + 9*r.FatGrams
		if relErr := math.Abs(derived-r.Calories) / r.Calories; relErr > lim.MacroTolerance {
			issues = append(issues, fmt.Sprintf(
				"macro-calorie mismatch: macros imply %.0f kcal but record states %.0f kcal (%.0f%% off)",
				derived, r.Calories, relErr*100))
		}
	}

	if r.Calories > 10 && r.ProteinGrams == 0 && r.CarbGrams == 0 && r.FatGrams == 0 {
		issues = append(issues, "all macros zero despite non-trivial calories")
	}

	issues = appendCap(issues, "fiber", r.FiberGrams, lim.FiberMaxGrams, "g")
	issues = appendCap(issues, "sugar", r.SugarGrams, lim.SugarMaxGrams, "g")
	issues = appendCap(issues, "sodium", r.SodiumMg, lim.SodiumMaxMg, "mg")
	issues = appendCap(issues, "cholesterol", r.CholesterolMg, lim.CholesterolMaxMg, "mg")
	issues = appendCap(issues, "calcium", r.CalciumMg, lim.CalciumMaxMg, "mg")
	issues = appendCap(issues, "iron", r.IronMg, lim.IronMaxMg, "mg")
	issues = appendCap(issues, "potassium", r.PotassiumMg, lim.PotassiumMaxMg, "mg")
	issues = appendCap(issues, "vitamin A", r.VitaminAMcg, lim.VitaminAMaxMcg, "mcg")
	issues = appendCap(issues, "vitamin C", r.VitaminCMg, lim.VitaminCMaxMg, "mg")
	issues = appendCap(issues, "vitamin D", r.VitaminDMcg, lim.VitaminDMaxMcg, "mcg")

	issues = appendNeg(issues, "protein", r.ProteinGrams)
	issues = appendNeg(issues, "carbs", r.CarbGrams)
	issues = appendNeg(issues, "fat", r.FatGrams)

	return Result{Valid: len(issues) == 0, Issues: issues}
}

func appendCap(issues []string, name string, v *float64, max float64, unit string) []string {
	if v == nil || max <= 0 {
		return issues
	}
	if *v < 0 {
		return append(issues, fmt.Sprintf("%s is negative", name))
	}
	if *v > max {
		return append(issues, fmt.Sprintf("%s %.1f%s exceeds plausible ceiling %.0f%s", name, *v, unit, max, unit))
	}
	return issues
}

func appendNeg(issues []string, name string, v float64) []string {
	if v < 0 {
		return append(issues, fmt.Sprintf("%s is negative", name))
	}
	return issues
}
