package textutil

import "strings"

// RuleSet holds the keyword tables driving header detection and row
// classification. The tables are explicit values, not scattered
// literals, so a different document family can carry its own set.
type RuleSet struct {
	// Header category keyword sets. A row counts a category when any
	// of its keywords appears in the folded, lowercased row text.
	Code    []string
	Name    []string
	Voltage []string
	Power   []string

	// Count locates the per-unit quantity column. It is not one of the
	// anchor categories; only the real-grid keyword fallback uses it.
	Count []string

	// MinHeaderCategories is how many distinct categories a row must
	// hit to qualify as a header anchor.
	MinHeaderCategories int

	// HeaderRow is the broader header vocabulary used when
	// classifying already-extracted rows (threshold 3 matches).
	HeaderRow []string

	// Footer marks title-block and legend rows below the table.
	Footer []string

	// Terminator marks the notes/remarks row that ends record
	// extraction for a table.
	Terminator []string

	// Junk marks panel-diagram vocabulary that disqualifies a row
	// from being data (breaker and interlock callouts).
	Junk []string

	// EquipmentNouns is name-side evidence that a row describes
	// equipment even when its identifier cell is unreadable.
	EquipmentNouns []string

	// NamePrefixByCode fills an empty name cell from the identifier
	// prefix (longest prefix wins).
	NamePrefixByCode map[string]string

	// Synonyms corrects known OCR misreads of domain vocabulary,
	// applied as substring replacements on name cells.
	Synonyms map[string]string
}

// DefaultRules returns the rule tables for the standard equipment /
// panel schedule family.
func DefaultRules() *RuleSet {
	return &RuleSet{
		// Matching happens on space-stripped lowercase text, so
		// multi-word keywords are written without spaces.
		Code:    []string{"equipmentno", "equip.no", "code", "symbol", "mark", "itemno"},
		Name:    []string{"name", "designation", "description"},
		Voltage: []string{"voltage", "(v", "v)", "volt"},
		Power:   []string{"capacity", "kw", "(kw", "output", "power"},
		Count:   []string{"q'ty", "qty", "quantity", "count", "nos."},

		MinHeaderCategories: 3,

		HeaderRow: []string{
			"equipment", "symbol", "name", "voltage", "capacity",
			"remarks", "starter", "circuit", "kw", "phase",
		},
		Footer: []string{
			"drawing", "scale", "architect", "designed", "approved",
			"checked", "date", "project", "registration", "title",
		},
		Terminator: []string{"note", "notes", "remarks"},
		Junk: []string{
			"panellayout", "mainbreaker", "trip", "interlock", "elcb", "mccb",
		},
		EquipmentNouns: []string{
			"pump", "fan", "blower", "exhaust", "supplyair", "unit",
			"valve", "shutter", "damper", "float", "powersupply",
			"drainage", "heater", "compressor",
		},
		NamePrefixByCode: map[string]string{
			"EF-":  "exhaust fan",
			"F-":   "exhaust fan",
			"SF-":  "supply fan",
			"PAC-": "A/C indoor unit",
		},
		Synonyms: map[string]string{
			"flesh water": "fresh water",
			"lndoor":      "indoor",
			"exhaustfan":  "exhaust fan",
			"supplyfan":   "supply fan",
		},
	}
}

// HeaderCategories returns the set of header categories the row text
// hits.
func (r *RuleSet) HeaderCategories(text string) map[string]bool {
	t := foldForMatch(text)
	cats := make(map[string]bool)
	if matchAny(t, r.Code) {
		cats["code"] = true
	}
	if matchAny(t, r.Name) {
		cats["name"] = true
	}
	if matchAny(t, r.Voltage) {
		cats["voltage"] = true
	}
	if matchAny(t, r.Power) {
		cats["power"] = true
	}
	return cats
}

// MatchesCategory reports whether the text hits one named keyword
// table ("code", "name", "voltage", "power" or "count").
func (r *RuleSet) MatchesCategory(category, text string) bool {
	t := foldForMatch(text)
	switch category {
	case "code":
		return matchAny(t, r.Code)
	case "name":
		return matchAny(t, r.Name)
	case "voltage":
		return matchAny(t, r.Voltage)
	case "power":
		return matchAny(t, r.Power)
	case "count":
		return matchAny(t, r.Count)
	}
	return false
}

// IsHeaderAnchor reports whether the row text hits at least
// MinHeaderCategories distinct header categories.
func (r *RuleSet) IsHeaderAnchor(text string) bool {
	return len(r.HeaderCategories(text)) >= r.MinHeaderCategories
}

// IsHeaderRow reports whether an extracted row reads as a repeated
// header line (three or more header vocabulary hits).
func (r *RuleSet) IsHeaderRow(text string) bool {
	t := foldForMatch(text)
	n := 0
	for _, k := range r.HeaderRow {
		if strings.Contains(t, k) {
			n++
			if n >= 3 {
				return true
			}
		}
	}
	return false
}

// IsFooterRow reports whether the row belongs to the title block or
// legend area.
func (r *RuleSet) IsFooterRow(text string) bool {
	return matchAny(foldForMatch(text), r.Footer)
}

// IsTerminator reports whether the row is a notes/remarks marker that
// ends record extraction.
func (r *RuleSet) IsTerminator(text string) bool {
	t := foldForMatch(text)
	for _, k := range r.Terminator {
		if strings.HasPrefix(t, k) || strings.Contains(t, "("+k) {
			return true
		}
	}
	return false
}

// IsJunkRow reports whether the row carries panel-diagram vocabulary
// that rules it out as table data.
func (r *RuleSet) IsJunkRow(text string) bool {
	return matchAny(foldForMatch(text), r.Junk)
}

// HasEquipmentNoun reports whether a name cell names equipment.
func (r *RuleSet) HasEquipmentNoun(name string) bool {
	return matchAny(foldForMatch(name), r.EquipmentNouns)
}

// NameForCode returns the default name for an identifier prefix, or
// "" when no prefix matches. Longer prefixes win.
func (r *RuleSet) NameForCode(code string) string {
	c := strings.ToUpper(CleanCell(code))
	best, bestLen := "", 0
	for prefix, name := range r.NamePrefixByCode {
		if strings.HasPrefix(c, prefix) && len(prefix) > bestLen {
			best, bestLen = name, len(prefix)
		}
	}
	return best
}

// ApplySynonyms rewrites known OCR misreads inside a name cell.
func (r *RuleSet) ApplySynonyms(name string) string {
	t := name
	lower := strings.ToLower(t)
	for from, to := range r.Synonyms {
		for {
			i := strings.Index(lower, from)
			if i < 0 {
				break
			}
			t = t[:i] + to + t[i+len(from):]
			lower = strings.ToLower(t)
		}
	}
	return t
}

func foldForMatch(s string) string {
	return strings.ToLower(stripSpaces(Normalize(s)))
}

func matchAny(t string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
