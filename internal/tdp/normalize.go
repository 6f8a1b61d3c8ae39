package tdp

import (
	"regexp"
	"strings"
)

// glyphReplacer strips trademark, registered and copyright marks in both
// glyph and parenthesized ASCII form. Lower-case variants are included so
// normalization stays idempotent after the lower-casing step.
var glyphReplacer = strings.NewReplacer(
	"®", "", "™", "", "©", "",
	"(R)", "", "(TM)", "", "(C)", "",
	"(r)", "", "(tm)", "", "(c)", "",
)

var (
	// frequencyRe matches "@ <frequency>" clauses such as "@ 2.60GHz" or
	// "@2.4 GHz". Each clause is introduced by '@'.
	frequencyRe = regexp.MustCompile(`(?i)@\s*[0-9]+(?:\.[0-9]+)?\s*[gmk]?hz`)

	// fillerRe matches standalone tokens that carry no model identity:
	// "Processor", "CPUs", "16-Core" qualifiers, and manufacturer prefixes.
	// The reference dataset keys models without the manufacturer name.
	fillerRe = regexp.MustCompile(`(?i)\b(?:processors?|cpus?|[0-9]+-cores?|intel|amd)\b`)
)

// NormalizeModelName canonicalizes a raw CPU model name for matching:
// trademark glyphs are dropped, "@ <frequency>" clauses and filler tokens
// ("Processor", "CPU", "<N>-Core") are stripped, the remainder is
// lower-cased, and whitespace is collapsed. The result of normalizing a
// normalized string is the string itself.
func NormalizeModelName(raw string) string {
	s := glyphReplacer.Replace(raw)
	s = frequencyRe.ReplaceAllString(s, " ")
	s = fillerRe.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
