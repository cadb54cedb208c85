// Package normalize provides the deterministic query normalizer whose output
// keys the resolution cache and the in flight dedup map
// Pipeline order
// 1 Unicode NFKC normalization
// 2 Case folding
// 3 Remove combining marks and format chars
// 4 Width fold fullwidth to ASCII
// 5 Collapse whitespace to single spaces and trim
package normalize

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// Query folds a free text food description into its canonical form
func Query(s string) string {
	ch := chainPool.Get().(transform.Transformer)
	ch.Reset()
	out, _, err := transform.String(ch, s)
	chainPool.Put(ch)
	if err != nil {
		// fall back to a plain lowercase fold rather than failing a lookup
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Key derives the cache and dedup key for a resolution. The serving weight is
// part of the key so differently sized servings of the same food never share
// a scaled record
func Key(description string, servingGrams float64) string {
	return Query(description) + "|" + strconv.FormatFloat(servingGrams, 'f', -1, 64)
}
