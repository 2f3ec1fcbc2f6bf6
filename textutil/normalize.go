// Package textutil provides text normalization for reconstructed table
// cells: Unicode folding, OCR homoglyph correction, voltage and
// capacity canonicalization, and the keyword rule tables that drive
// header detection and row classification.
package textutil

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	numberPattern     = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)
	fullNumberPattern = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
	plainVoltPattern  = regexp.MustCompile(`^([+-]?\d+)V?$`)
	threePhasePattern = regexp.MustCompile(`3[Φφ/+$*]?200`)
	dashPattern       = regexp.MustCompile("[‐‑‒–—―ー−－]")
	leadingJunk       = regexp.MustCompile(`^[.,:;・·]+`)
)

// Normalize applies NFKC composition and full-width folding, then
// trims surrounding whitespace. Every cell passes through here before
// any classification or comparison.
func Normalize(s string) string {
	return strings.TrimSpace(width.Fold.String(norm.NFKC.String(s)))
}

// CleanCell normalizes a cell, collapses whitespace runs to single
// spaces and strips stray table-border characters the OCR tends to
// attach.
func CleanCell(s string) string {
	t := strings.Join(strings.Fields(Normalize(s)), " ")
	return strings.Trim(t, "|,:;[]()")
}

// NormalizeKey canonicalizes a join key: folded, whitespace removed,
// uppercased, Unicode dashes unified.
func NormalizeKey(s string) string {
	return dashPattern.ReplaceAllString(strings.ToUpper(stripSpaces(Normalize(s))), "-")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '　' {
			return -1
		}
		return r
	}, s)
}

// fixNumericHomoglyphs corrects letter/digit confusions that OCR
// produces inside unit fields (O for 0, l/I for 1).
func fixNumericHomoglyphs(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'O', 'o':
			return '0'
		case 'l', 'I':
			return '1'
		}
		return r
	}, s)
}

// NormalizeCapacity canonicalizes a capacity (kW) cell: folds width,
// removes spaces and thousands separators, fixes numeric homoglyphs,
// and keeps the first numeric run when extra characters remain.
// Values with more than three fractional digits are treated as OCR
// noise and rounded half-up to two decimals; normal-precision values
// (9.0, 0.75, 0.535) pass through untouched.
func NormalizeCapacity(s string) string {
	t := strings.ReplaceAll(stripSpaces(Normalize(s)), ",", "")
	t = fixNumericHomoglyphs(t)
	if t == "" {
		return ""
	}
	if !fullNumberPattern.MatchString(t) {
		t = numberPattern.FindString(t)
		if t == "" {
			return ""
		}
	}
	dot := strings.IndexByte(t, '.')
	if dot < 0 || len(t)-dot-1 <= 3 {
		return t
	}

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return t
	}
	rounded := math.Round(v*100) / 100
	out := strconv.FormatFloat(rounded, 'f', 2, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimRight(out, ".")
}

// NormalizeVoltage canonicalizes a voltage cell. Three-phase 200V
// spellings (3φ200 and its OCR corruptions) collapse to "200";
// a bare number with an optional V suffix keeps just the number;
// anything else is returned folded but otherwise untouched.
func NormalizeVoltage(s string) string {
	t := strings.ToUpper(stripSpaces(Normalize(s)))
	if t == "" {
		return ""
	}
	if t == "1/200" {
		return "1φ200"
	}
	t = fixNumericHomoglyphs(t)

	digits := keepDigits(t)
	if threePhasePattern.MatchString(t) {
		return "200"
	}
	switch digits {
	case "3200", "34200", "36200", "30200", "200":
		return "200"
	}
	if m := plainVoltPattern.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return t
}

func keepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// StripLeadingJunk removes punctuation noise OCR attaches to the
// front of name cells.
func StripLeadingJunk(s string) string {
	return strings.TrimLeft(leadingJunk.ReplaceAllString(s, ""), "-")
}

// ContainsDigit reports whether s contains an ASCII digit.
func ContainsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
