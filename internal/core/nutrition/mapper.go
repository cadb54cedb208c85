package nutrition

import (
	"math"
	"strings"
)

// Nutrient identifiers recognized by the mapper. The numeric forms are the
// FoodData Central nutrient numbers; the name forms cover payloads that omit
// numbers. Anything else is ignored
var nutrientKeys = map[string]string{
	"1008": "calories", "208": "calories", "energy": "calories", "calories": "calories",
	"1003": "protein", "203": "protein", "protein": "protein",
	"1005": "carbs", "205": "carbs", "carbohydrate, by difference": "carbs", "carbs": "carbs",
	"1004": "fat", "204": "fat", "total lipid (fat)": "fat", "fat": "fat",
	"1079": "fiber", "291": "fiber", "fiber, total dietary": "fiber", "fiber": "fiber",
	"2000": "sugar", "269": "sugar", "total sugars": "sugar", "sugars, total including nlea": "sugar", "sugar": "sugar",
	"1093": "sodium", "307": "sodium", "sodium, na": "sodium", "sodium": "sodium",
	"1253": "cholesterol", "601": "cholesterol", "cholesterol": "cholesterol",
	"1087": "calcium", "301": "calcium", "calcium, ca": "calcium", "calcium": "calcium",
	"1089": "iron", "303": "iron", "iron, fe": "iron", "iron": "iron",
	"1092": "potassium", "306": "potassium", "potassium, k": "potassium", "potassium": "potassium",
	"1106": "vitamin_a", "320": "vitamin_a", "vitamin a, rae": "vitamin_a", "vitamin a": "vitamin_a",
	"1162": "vitamin_c", "401": "vitamin_c", "vitamin c, total ascorbic acid": "vitamin_c", "vitamin c": "vitamin_c",
	"1114": "vitamin_d", "328": "vitamin_d", "vitamin d (d2 + d3)": "vitamin_d", "vitamin d": "vitamin_d",
}

// round1 and round2 keep scaling linear and invertible at the stated precision
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round0(v float64) float64 { return math.Round(v) }

// MapNutrients converts a source-specific per-100g nutrient list into a
// canonical Record scaled to servingGrams. Calories and mg/mcg-scale minerals
// round to integers; gram-scale macros round to one decimal; vitamins to two.
// Unrecognized identifiers are skipped
func MapNutrients(raw []RawNutrient, servingGrams float64, prov Provenance) Record {
	if servingGrams <= 0 {
		servingGrams = 100
	}
	scale := servingGrams / 100

	r := Record{ServingGrams: servingGrams, Provenance: prov}
	for _, n := range raw {
		key, ok := nutrientKeys[strings.ToLower(n.ID)]
		if !ok {
			key, ok = nutrientKeys[strings.ToLower(n.Name)]
		}
		if !ok {
			continue
		}
		v := n.Value * scale
		switch key {
		case "calories":
			r.Calories = round0(v)
		case "protein":
			r.ProteinGrams = round1(v)
		case "carbs":
			r.CarbGrams = round1(v)
		case "fat":
			r.FatGrams = round1(v)
		case "fiber":
			r.FiberGrams = ptr(round1(v))
		case "sugar":
			r.SugarGrams = ptr(round1(v))
		case "sodium":
			r.SodiumMg = ptr(round0(v))
		case "cholesterol":
			r.CholesterolMg = ptr(round0(v))
		case "calcium":
			r.CalciumMg = ptr(round0(v))
		case "iron":
			r.IronMg = ptr(round2(v))
		case "potassium":
			r.PotassiumMg = ptr(round0(v))
		case "vitamin_a":
			r.VitaminAMcg = ptr(round2(v))
		case "vitamin_c":
			r.VitaminCMg = ptr(round2(v))
		case "vitamin_d":
			r.VitaminDMcg = ptr(round2(v))
		}
	}
	return r
}

// Rescale produces a copy of r scaled to a new serving weight. Scaling is
// linear, so rescaling back to the original weight restores original values
func Rescale(r Record, servingGrams float64) Record {
	if servingGrams <= 0 || r.ServingGrams <= 0 {
		return r
	}
	scale := servingGrams / r.ServingGrams
	out := Record{
		Calories:     round0(r.Calories * scale),
		ProteinGrams: round1(r.ProteinGrams * scale),
		CarbGrams:    round1(r.CarbGrams * scale),
		FatGrams:     round1(r.FatGrams * scale),
		ServingGrams: servingGrams,
		Provenance:   r.Provenance,
	}
	out.FiberGrams = scaleOpt(r.FiberGrams, scale, round1)
	out.SugarGrams = scaleOpt(r.SugarGrams, scale, round1)
	out.SodiumMg = scaleOpt(r.SodiumMg, scale, round0)
	out.CholesterolMg = scaleOpt(r.CholesterolMg, scale, round0)
	out.CalciumMg = scaleOpt(r.CalciumMg, scale, round0)
	out.IronMg = scaleOpt(r.IronMg, scale, round2)
	out.PotassiumMg = scaleOpt(r.PotassiumMg, scale, round0)
	out.VitaminAMcg = scaleOpt(r.VitaminAMcg, scale, round2)
	out.VitaminCMg = scaleOpt(r.VitaminCMg, scale, round2)
	out.VitaminDMcg = scaleOpt(r.VitaminDMcg, scale, round2)
	return out
}

func scaleOpt(v *float64, scale float64, round func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(round(*v * scale))
}

func ptr(v float64) *float64 { return &v }
