package catalog

import (
	"regexp"
	"strings"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
)

func normalizeSegment(value string) string {
	s := camelBoundary.ReplaceAllString(value, "$1-$2")
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// ExampleID derives the id of an example from its name and optional variant:
// "Effect.firstSuccessOf" becomes "effect-first-success-of".
func ExampleID(name, variant string) string {
	base := normalizeSegment(name)
	if variant == "" {
		return base
	}
	return base + "-" + normalizeSegment(variant)
}
