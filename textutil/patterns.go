package textutil

import (
	"regexp"
	"strings"
)

var (
	// Equipment identifiers look like SF-P-1, EF-B2-3, PAC-1: a short
	// letter prefix plus one or more dashed alphanumeric segments.
	codePattern      = regexp.MustCompile(`^[A-Z]{1,4}(?:-[A-Z0-9~]{1,8}){1,3}$`)
	codeTokenPattern = regexp.MustCompile(`[A-Z]{1,4}-[A-Z0-9]{1,6}`)
	codeSuffixNoise  = regexp.MustCompile(`^([A-Z]{1,4}-[A-Z0-9-]*\d)[A-Z]{1,2}$`)
	codeWithTail     = regexp.MustCompile(`^([A-Z]{1,4}-[A-Z0-9-]{1,12})(.+)$`)

	drawingNoPattern = regexp.MustCompile(`^[A-Z]{1,4}-[A-Z0-9]{1,8}(?:-[A-Z0-9]{1,8})*$`)
)

// IsEquipmentID reports whether s is a complete equipment identifier.
// The pattern alone is not enough: an identifier must also carry a
// digit (Go's regexp has no lookahead, so that rule is checked apart).
func IsEquipmentID(s string) bool {
	t := strings.ToUpper(CleanCell(s))
	return codePattern.MatchString(t) && ContainsDigit(t)
}

// ContainsEquipmentCode reports whether s contains an identifier-like
// token anywhere. Weaker than IsEquipmentID; used as row evidence.
func ContainsEquipmentCode(s string) bool {
	return codeTokenPattern.MatchString(strings.ToUpper(Normalize(s)))
}

// TrimCodeSuffixNoise removes one or two letters OCR appends after the
// trailing digit of an identifier (EF-B2-2A -> EF-B2-2). It only fires
// when the remainder still ends in a digit.
func TrimCodeSuffixNoise(s string) string {
	t := strings.ToUpper(CleanCell(s))
	if m := codeSuffixNoise.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return t
}

// SplitCodeTail separates an identifier from trailing text that OCR
// merged into the same cell ("SF-P-1supply fan" -> "SF-P-1", "supply fan").
// The match is case-sensitive: identifiers are uppercase, so the first
// lowercase rune bounds the code. Returns s unchanged with an empty
// tail when no identifier leads.
func SplitCodeTail(s string) (code, tail string) {
	t := Normalize(s)
	if m := codeWithTail.FindStringSubmatch(t); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return t, ""
}

// NormalizeDrawingNumber canonicalizes a drawing-number candidate:
// folded, uppercased, Unicode dashes unified, bracket noise stripped.
// Returns "" when the result does not match the drawing-number shape.
func NormalizeDrawingNumber(s string) string {
	t := strings.ToUpper(stripSpaces(Normalize(s)))
	t = dashPattern.ReplaceAllString(t, "-")
	t = strings.Trim(t, "|,:;[](){}<>")
	if drawingNoPattern.MatchString(t) {
		return t
	}
	return ""
}
