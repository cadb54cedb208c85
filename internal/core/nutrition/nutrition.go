// Package nutrition defines the canonical nutrition schema shared by every
// resolution source, plus candidate ranking over authoritative search hits
package nutrition

import "sort"

// Source identifies which resolution stage produced a record
type Source string

const (
	// SourceAuthoritativeDirect is a direct hit against the nutrient database
	SourceAuthoritativeDirect Source = "authoritative_direct"
	// SourceAuthoritativeAIAssisted is a database hit found via an AI-rewritten query
	SourceAuthoritativeAIAssisted Source = "authoritative_ai_assisted"
	// SourceAuthoritativeDerived is an aggregate computed entirely from
	// authoritative ingredient records
	SourceAuthoritativeDerived Source = "authoritative_derived"
	// SourceGenerativeEstimate is a pure generative estimate
	SourceGenerativeEstimate Source = "generative_estimate"
	// SourceGenerativeCorrected is a generative re-estimate issued after a
	// realism validation failure
	SourceGenerativeCorrected Source = "generative_corrected"
	// SourceFailed marks a photo item whose resolution produced no usable
	// record; it never appears on a Record
	SourceFailed Source = "failed"
)

// Authoritative reports whether s is backed by the nutrient database.
// Only authoritative records are eligible for caching
func (s Source) Authoritative() bool {
	return s == SourceAuthoritativeDirect || s == SourceAuthoritativeAIAssisted
}

// Provenance records where a nutrition value came from
type Provenance struct {
	Source            Source `json:"source"`
	SourceID          string `json:"source_id,omitempty"`
	SourceDescription string `json:"source_description,omitempty"`
}

// Record is the canonical nutrient bundle for one serving. Macro fields are
// always present; micronutrients are nil when the source did not report them.
// Records are immutable once produced: a corrected record is a new value
type Record struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbGrams    float64 `json:"carb_grams"`
	FatGrams     float64 `json:"fat_grams"`

	FiberGrams     *float64 `json:"fiber_grams,omitempty"`
	SugarGrams     *float64 `json:"sugar_grams,omitempty"`
	SodiumMg       *float64 `json:"sodium_mg,omitempty"`
	CholesterolMg  *float64 `json:"cholesterol_mg,omitempty"`
	CalciumMg      *float64 `json:"calcium_mg,omitempty"`
	IronMg         *float64 `json:"iron_mg,omitempty"`
	PotassiumMg    *float64 `json:"potassium_mg,omitempty"`
	VitaminAMcg    *float64 `json:"vitamin_a_mcg,omitempty"`
	VitaminCMg     *float64 `json:"vitamin_c_mg,omitempty"`
	VitaminDMcg    *float64 `json:"vitamin_d_mcg,omitempty"`

	ServingGrams float64    `json:"serving_grams"`
	Provenance   Provenance `json:"provenance"`
}

// Add sums r and o field by field into a new record. Micros combine when both
// sides report them; a one-sided micro carries through unchanged
func (r Record) Add(o Record) Record {
	out := Record{
		Calories:     r.Calories + o.Calories,
		ProteinGrams: r.ProteinGrams + o.ProteinGrams,
		CarbGrams:    r.CarbGrams + o.CarbGrams,
		FatGrams:     r.FatGrams + o.FatGrams,
		ServingGrams: r.ServingGrams + o.ServingGrams,
		Provenance:   r.Provenance,
	}
	out.FiberGrams = addOpt(r.FiberGrams, o.FiberGrams)
	out.SugarGrams = addOpt(r.SugarGrams, o.SugarGrams)
	out.SodiumMg = addOpt(r.SodiumMg, o.SodiumMg)
	out.CholesterolMg = addOpt(r.CholesterolMg, o.CholesterolMg)
	out.CalciumMg = addOpt(r.CalciumMg, o.CalciumMg)
	out.IronMg = addOpt(r.IronMg, o.IronMg)
	out.PotassiumMg = addOpt(r.PotassiumMg, o.PotassiumMg)
	out.VitaminAMcg = addOpt(r.VitaminAMcg, o.VitaminAMcg)
	out.VitaminCMg = addOpt(r.VitaminCMg, o.VitaminCMg)
	out.VitaminDMcg = addOpt(r.VitaminDMcg, o.VitaminDMcg)
	return out
}

func addOpt(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		v := *a + *b
		return &v
	}
}

// Candidate is one authoritative search hit before mapping
type Candidate struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	DataType    string    `json:"data_type,omitempty"`
	BrandOwner  string    `json:"brand_owner,omitempty"`
	Nutrients   []RawNutrient `json:"-"`
}

// RawNutrient is one source-specific (identifier, per-100g value) pair
type RawNutrient struct {
	ID    string
	Name  string
	Value float64
}

// dataTypeRank orders data categories by curation quality. Lower is better
func dataTypeRank(dt string) int {
	switch dt {
	case "Foundation":
		return 0
	case "SR Legacy":
		return 1
	case "Survey (FNDDS)":
		return 2
	case "Branded":
		return 4
	default:
		return 3
	}
}

// RankCandidates sorts hits so curated data categories come before branded and
// user-submitted entries. The sort is stable: ties keep original response order
func RankCandidates(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return dataTypeRank(out[i].DataType) < dataTypeRank(out[j].DataType)
	})
	return out
}
