package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hayashi-antas/plan2table/textutil"
)

type capacityKind string

const (
	kindBlank      capacityKind = "blank"
	kindNumeric    capacityKind = "numeric"
	kindMulti      capacityKind = "multi"
	kindNonNumeric capacityKind = "non_numeric"
)

var (
	blankTokens = map[string]bool{"": true, "-": true, "－": true, "—": true}

	thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

	// Mode-tagged composite capacities look like
	// "(cool)9.45/(heat)7.18/(low)5.32".
	modeCapacityPattern = regexp.MustCompile(`(?i)\((cool|heat|low)\)\s*([+-]?\d+(?:,\d{3})*(?:\.\d+)?)`)
)

// modeOrder fixes the display order of mode tags.
var modeOrder = []string{"cool", "heat", "low"}

// modeHints maps name vocabulary to the operating mode it implies.
var modeHints = []struct {
	mode     string
	keywords []string
}{
	{"cool", []string{"cooling-only", "cooling only"}},
	{"heat", []string{"heating-only", "heating only"}},
	{"low", []string{"low-temp-only", "low-temp only", "low temperature only"}},
}

const maxModeTieEps = 1e-9

// capacityVariant is one deduplicated capacity candidate.
type capacityVariant struct {
	display  string
	value    float64
	hasValue bool
	kind     capacityKind
}

func parseNumber(s string) (float64, bool) {
	t := textutil.Normalize(s)
	if blankTokens[t] {
		return 0, false
	}
	t = strings.ReplaceAll(t, ",", "")
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// classifyCapacity tags one raw capacity cell. A comma that is not a
// thousands separator marks multiple candidates joined into one cell.
func classifyCapacity(raw string) capacityVariant {
	t := textutil.Normalize(raw)
	if blankTokens[t] {
		return capacityVariant{kind: kindBlank}
	}
	if strings.Contains(t, ",") && !thousandsPattern.MatchString(t) {
		return capacityVariant{display: t, kind: kindMulti}
	}
	if v, ok := parseNumber(t); ok {
		return capacityVariant{display: formatNumber(v), value: v, hasValue: true, kind: kindNumeric}
	}
	return capacityVariant{display: t, kind: kindNonNumeric}
}

// collectVariants deduplicates non-blank capacity candidates in first
// occurrence order.
func collectVariants(values []string) []capacityVariant {
	seen := make(map[string]bool)
	var out []capacityVariant
	for _, raw := range values {
		v := classifyCapacity(raw)
		if v.kind == kindBlank {
			continue
		}
		key := v.display + "|" + string(v.kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func joinVariants(variants []capacityVariant) string {
	var parts []string
	for _, v := range variants {
		if v.display != "" {
			parts = append(parts, v.display)
		}
	}
	return strings.Join(parts, ",")
}

// modeValues extracts the mode-tagged values from a composite cell,
// preserving first-appearance order; a repeated tag overrides its
// earlier value.
type modeValueSet struct {
	order  []string
	values map[string]float64
}

func extractModeValues(raw string) modeValueSet {
	set := modeValueSet{values: make(map[string]float64)}
	for _, m := range modeCapacityPattern.FindAllStringSubmatch(textutil.Normalize(raw), -1) {
		mode := strings.ToLower(m[1])
		v, ok := parseNumber(m[2])
		if !ok {
			continue
		}
		if _, exists := set.values[mode]; !exists {
			set.order = append(set.order, mode)
		}
		set.values[mode] = v
	}
	return set
}

func (s modeValueSet) format() string {
	if len(s.values) == 0 {
		return ""
	}
	var ordered []string
	for _, m := range modeOrder {
		if _, ok := s.values[m]; ok {
			ordered = append(ordered, m)
		}
	}
	for _, m := range s.order {
		if !containsString(ordered, m) {
			ordered = append(ordered, m)
		}
	}
	parts := make([]string, len(ordered))
	for i, m := range ordered {
		parts[i] = m + "=" + formatNumber(s.values[m])
	}
	return strings.Join(parts, ",")
}

// inferModeFromName scans the equipment name for mode vocabulary.
// Exactly one hint selects a mode; two or more are ambiguous.
func inferModeFromName(name string) (mode, keyword string, ambiguous bool) {
	t := strings.ToLower(textutil.Normalize(name))
	var hitModes, hitKeywords []string
	for _, h := range modeHints {
		for _, k := range h.keywords {
			if strings.Contains(t, k) {
				hitModes = append(hitModes, h.mode)
				hitKeywords = append(hitKeywords, k)
				break
			}
		}
	}
	switch len(hitModes) {
	case 0:
		return "", "", false
	case 1:
		return hitModes[0], hitKeywords[0], false
	}
	return "", strings.Join(hitKeywords, ","), true
}

// uniqueMaxMode returns the single mode holding the maximum value, or
// the tied modes when the maximum is shared.
func (s modeValueSet) uniqueMaxMode() (mode string, max float64, tied []string) {
	if len(s.values) == 0 {
		return "", 0, nil
	}
	first := true
	for _, v := range s.values {
		if first || v > max {
			max = v
			first = false
		}
	}
	for _, m := range modeOrder {
		if v, ok := s.values[m]; ok && abs(v-max) <= maxModeTieEps {
			tied = append(tied, m)
		}
	}
	for _, m := range s.order {
		if containsString(tied, m) {
			continue
		}
		if abs(s.values[m]-max) <= maxModeTieEps {
			tied = append(tied, m)
		}
	}
	if len(tied) == 1 {
		return tied[0], max, tied
	}
	return "", max, tied
}

// capacityResolution is the adopted primary-side capacity plus its
// adoption rationale, recorded for auditability.
type capacityResolution struct {
	rawDisplay string
	modeValues string
	selected   capacityVariant
	mode       string
	note       string
	code       string
}

// resolvePrimaryCapacity reduces one raw primary capacity cell to a
// single comparable value where possible. Plain numbers pass through;
// mode-tagged composites are disambiguated by a name hint, then by the
// policy's maximum fallback; everything else stays unresolved and
// surfaces as review downstream.
func resolvePrimaryCapacity(raw, name string, policy FallbackPolicy) capacityResolution {
	res := capacityResolution{rawDisplay: textutil.Normalize(raw)}
	variant := classifyCapacity(raw)
	modes := extractModeValues(raw)
	res.modeValues = modes.format()

	switch variant.kind {
	case kindBlank:
		res.selected = variant
		res.code = "BLANK"
		return res
	case kindNumeric:
		res.selected = variant
		res.mode = "single"
		res.note = "single numeric value adopted"
		res.code = "SINGLE_NUMERIC"
		return res
	case kindMulti:
		res.selected = variant
		res.mode = "undetermined"
		res.note = "comma-separated candidates"
		res.code = "MULTI_CANDIDATE_COMMA"
		return res
	}

	if len(modes.values) == 0 {
		res.selected = variant
		res.mode = "undetermined"
		res.note = "value is not numeric"
		res.code = "NON_NUMERIC_TEXT"
		return res
	}
	if len(modes.values) == 1 {
		m := modes.order[0]
		v := modes.values[m]
		res.selected = capacityVariant{display: formatNumber(v), value: v, hasValue: true, kind: kindNumeric}
		res.mode = m
		res.note = fmt.Sprintf("single mode candidate; (%s) adopted", m)
		res.code = "MODE_SINGLE_CANDIDATE"
		return res
	}

	hintMode, hintKeyword, hintAmbiguous := inferModeFromName(name)
	if hintMode != "" {
		if v, ok := modes.values[hintMode]; ok {
			res.selected = capacityVariant{display: formatNumber(v), value: v, hasValue: true, kind: kindNumeric}
			res.mode = hintMode
			res.note = fmt.Sprintf("name hint (%s) selects (%s)", hintKeyword, hintMode)
			res.code = "MODE_BY_NAME_HINT"
			return res
		}
	}

	if !hintAmbiguous && policy != Strict {
		maxMode, maxValue, tied := modes.uniqueMaxMode()
		if maxMode != "" {
			res.selected = capacityVariant{display: formatNumber(maxValue), value: maxValue, hasValue: true, kind: kindNumeric}
			res.mode = "max(" + maxMode + ")"
			res.note = "mode not determinable from name; maximum adopted"
			res.code = "MODE_BY_MAX_FALLBACK"
			return res
		}
		res.selected = variant
		res.mode = "undetermined"
		res.note = fmt.Sprintf("mode not determinable from name and maximum tied (%s)", strings.Join(tied, ","))
		res.code = "MODE_MAX_TIE_UNRESOLVED"
		return res
	}

	res.selected = variant
	res.mode = "undetermined"
	switch {
	case hintAmbiguous:
		res.note = fmt.Sprintf("multiple name hints (%s); mode unresolved", hintKeyword)
		res.code = "MODE_HINT_AMBIGUOUS"
	case policy == Strict:
		res.note = "mode not determinable from name (strict policy)"
		res.code = "MODE_UNKNOWN_STRICT"
	default:
		res.note = "mode not determinable from name"
		res.code = "MODE_UNKNOWN"
	}
	return res
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
