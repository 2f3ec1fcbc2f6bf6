package pseudogrid

import (
	"math"
	"regexp"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// Row is one extracted data row of the four-column schedule layout.
type Row struct {
	Code     string
	Name     string
	Voltage  string
	Capacity string
	Y        float64
	Table    string // candidate or side label, e.g. "T01", "L", "R"
}

// rowsResult carries the scan outcome a caller needs to decide whether
// the crop should be expanded and rescanned.
type rowsResult struct {
	Rows            []Row
	SawData         bool
	LastDataBottom  float64 // page-local bottom of the last data row; -1 when none
	TrailingNonData int
	StoppedByFooter bool
}

var multiDigit = regexp.MustCompile(`^\d{2,}$`)

// rowsFromTokens assigns each row cluster's tokens to columns, builds
// cell strings, normalizes them and keeps the rows classified as data.
// Scanning stops at a footer row or after trailingGap consecutive
// non-data rows once data has been seen.
func rowsFromTokens(words []model.Token, bounds ColumnBounds, startY float64, trailingGap int, cfg Config) rowsResult {
	res := rowsResult{LastDataBottom: -1}

	all := cluster.ByY(words, cfg.RowYCluster)
	var rows []model.RowCluster
	for _, r := range all {
		box := r.Box()
		if r.CenterY >= startY || (box.Y0 <= startY && startY <= box.Y1) {
			rows = append(rows, r)
		}
	}

	for _, rc := range rows {
		var cols [columnCount][]model.Token
		for _, w := range rc.Tokens {
			if c := bounds.Column(w.CenterX()); c >= 0 {
				cols[c] = append(cols[c], w)
			}
		}
		if len(cols[colCode]) == 0 && len(cols[colName]) == 0 &&
			len(cols[colVoltage]) == 0 && len(cols[colCapacity]) == 0 {
			continue
		}

		capTokens := filterCapacityNoise(cols[colCapacity], rc)

		row := Row{
			Code:     textutil.CleanCell(joinTokens(cols[colCode])),
			Name:     textutil.CleanCell(joinTokens(cols[colName])),
			Voltage:  textutil.CleanCell(joinTokens(cols[colVoltage])),
			Capacity: textutil.CleanCell(joinTokens(capTokens)),
			Y:        rc.CenterY,
		}
		row = normalizeRowCells(row, cfg.Rules)

		combined := row.Code + row.Name + row.Voltage + row.Capacity
		switch {
		case cfg.Rules.IsFooterRow(combined):
			res.StoppedByFooter = true
			return res
		case cfg.Rules.IsHeaderRow(combined), !isDataRow(row, cfg.Rules):
			if res.SawData {
				res.TrailingNonData++
				if res.TrailingNonData > trailingGap {
					return res
				}
			}
			continue
		}

		res.SawData = true
		res.TrailingNonData = 0
		res.LastDataBottom = rc.Box().Y1
		res.Rows = append(res.Rows, row)
	}
	return res
}

// filterCapacityNoise drops oversized multi-digit tokens from the
// capacity column: vertical border remnants OCR reads as numbers.
func filterCapacityNoise(tokens []model.Token, rc model.RowCluster) []model.Token {
	if len(tokens) == 0 {
		return tokens
	}
	var heights []float64
	for _, w := range rc.Tokens {
		heights = append(heights, math.Max(1, w.Box.Height()))
	}
	medianH := cluster.Median(heights)
	if medianH <= 0 {
		return tokens
	}
	maxNoise := math.Max(36, medianH*2.2)

	var kept []model.Token
	for _, w := range tokens {
		tall := w.Box.Height() > maxNoise
		if tall && multiDigit.MatchString(strings.ReplaceAll(textutil.Normalize(w.Text), " ", "")) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return tokens
	}
	return kept
}

func joinTokens(tokens []model.Token) string {
	parts := make([]string, len(tokens))
	for i, w := range tokens {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// normalizeRowCells repairs the systematic OCR damage of this layout:
// a name fused onto the identifier, noise letters after the trailing
// digit, junk punctuation before the name, and non-canonical voltage
// and capacity spellings.
func normalizeRowCells(row Row, rules *textutil.RuleSet) Row {
	code, name := row.Code, row.Name

	// Name text fused into the identifier cell.
	if pure, tail := textutil.SplitCodeTail(code); tail != "" && rules.HasEquipmentNoun(tail) {
		code = pure
		name = tail + name
	}

	// Stray letters after the identifier's trailing digit.
	if name == "" {
		code = textutil.TrimCodeSuffixNoise(code)
	}

	// A code cell with no identifier shape is misplaced name text.
	if code != "" && !textutil.ContainsEquipmentCode(code) && name != "" {
		name = code + name
		code = ""
	}

	name = textutil.StripLeadingJunk(name)
	if name == "" {
		name = rules.NameForCode(code)
	}
	name = rules.ApplySynonyms(name)

	return Row{
		Code:     textutil.CleanCell(code),
		Name:     textutil.CleanCell(name),
		Voltage:  textutil.NormalizeVoltage(row.Voltage),
		Capacity: textutil.NormalizeCapacity(row.Capacity),
		Y:        row.Y,
		Table:    row.Table,
	}
}

// isDataRow decides whether a normalized row describes equipment.
// Identifier evidence alone is not enough: plan labels (SL-6, L-H2)
// share the identifier shape but carry no table values.
func isDataRow(row Row, rules *textutil.RuleSet) bool {
	combined := row.Code + row.Name + row.Voltage + row.Capacity
	if combined == "" {
		return false
	}
	if rules.IsHeaderRow(combined) || rules.IsJunkRow(combined) {
		return false
	}

	hasCode := textutil.ContainsEquipmentCode(row.Code)
	hasName := row.Name != ""
	hasVolt := textutil.ContainsDigit(row.Voltage)
	hasCap := textutil.ContainsDigit(row.Capacity)

	if hasCode && !hasName && !hasVolt && !hasCap {
		return false
	}
	if hasName && !hasCode && !hasVolt && !hasCap {
		return false
	}
	if hasCode {
		return true
	}
	if rules.HasEquipmentNoun(row.Name) && (hasVolt || hasCap) {
		return true
	}
	return hasName && (hasVolt || hasCap)
}
