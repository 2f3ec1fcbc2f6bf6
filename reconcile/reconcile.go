package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// primaryColumns indexes the primary document's resolved columns; -1
// marks an optional column the document does not carry.
type primaryColumns struct {
	id, name, capacity, count, drawing int
}

type secondaryColumns struct {
	id, name, voltage, capacity, drawing int
}

// aggregate folds every secondary row sharing one normalized key.
// Conflicting field values are kept as ordered candidate lists, not
// collapsed to a single "best" value.
type aggregate struct {
	ids        []string
	names      []string
	voltages   []string
	capacities []string
	drawings   []string
	traceRows  []traceRow
	matchCount int
}

// missingKeyGroup folds secondary rows whose key cell is empty. They
// cannot be joined, but they must still surface in the output.
type missingKeyGroup struct {
	name            string
	capacityDisplay string
	drawing         string
	traceRows       []traceRow
	count           int
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(textutil.Normalize(s)), ""))
}

// resolveHeader finds the column index whose header matches any
// accepted spelling of the canonical field, or -1.
func resolveHeader(headers []string, spellings []string) int {
	byNorm := make(map[string]int, len(headers))
	for i, h := range headers {
		n := normalizeHeader(h)
		if _, ok := byNorm[n]; !ok {
			byNorm[n] = i
		}
	}
	for _, s := range spellings {
		if i, ok := byNorm[normalizeHeader(s)]; ok {
			return i
		}
	}
	return -1
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func firstNonBlank(values []string) string {
	for _, v := range values {
		if t := textutil.Normalize(v); t != "" {
			return t
		}
	}
	return ""
}

// uniqueNonBlank deduplicates values on their folded form, preserving
// first-occurrence order and original spelling.
func uniqueNonBlank(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		t := textutil.Normalize(v)
		if t == "" {
			continue
		}
		n := normalizeNameForCompare(t)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, t)
	}
	return out
}

// Reconcile outer-joins the primary document against the secondary
// document on the normalized equipment identifier and judges every
// record. It errors only on missing required columns; data quality
// never raises, ambiguous entries become review records.
func Reconcile(primary, secondary model.Document, cfg Config) ([]ReconciledRecord, error) {
	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliases()
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 0.1
	}

	pc := primaryColumns{
		id:       resolveHeader(primary.Headers, cfg.Aliases["equipment_id"]),
		name:     resolveHeader(primary.Headers, cfg.Aliases["primary_name"]),
		capacity: resolveHeader(primary.Headers, cfg.Aliases["primary_capacity_kw"]),
		count:    resolveHeader(primary.Headers, cfg.Aliases["primary_count"]),
		drawing:  resolveHeader(primary.Headers, cfg.Aliases["primary_drawing_number"]),
	}
	if pc.id < 0 || pc.capacity < 0 || pc.count < 0 {
		return nil, fmt.Errorf("reconcile: primary document is missing required columns (id=%d capacity=%d count=%d)", pc.id, pc.capacity, pc.count)
	}

	sc := secondaryColumns{
		id:       resolveHeader(secondary.Headers, cfg.Aliases["equipment_id"]),
		name:     resolveHeader(secondary.Headers, cfg.Aliases["secondary_name"]),
		voltage:  resolveHeader(secondary.Headers, cfg.Aliases["secondary_voltage"]),
		capacity: resolveHeader(secondary.Headers, cfg.Aliases["secondary_capacity_kw"]),
		drawing:  resolveHeader(secondary.Headers, cfg.Aliases["secondary_drawing_number"]),
	}
	if sc.id < 0 || sc.name < 0 || sc.capacity < 0 {
		return nil, fmt.Errorf("reconcile: secondary document is missing required columns (id=%d name=%d capacity=%d)", sc.id, sc.name, sc.capacity)
	}

	// Primary drawing numbers per key: one identifier can repeat
	// across pages.
	primaryDrawings := make(map[string][]string)
	if pc.drawing >= 0 {
		for _, row := range primary.Rows {
			key := textutil.NormalizeKey(cellAt(row, pc.id))
			if key == "" {
				continue
			}
			primaryDrawings[key] = append(primaryDrawings[key], cellAt(row, pc.drawing))
		}
	}

	aggregates, keyOrder, missing, missingOrder := aggregateSecondary(secondary, sc)

	var out []ReconciledRecord
	primaryKeys := make(map[string]bool)

	for _, row := range primary.Rows {
		rawID := textutil.Normalize(cellAt(row, pc.id))
		key := textutil.NormalizeKey(rawID)
		if key != "" {
			primaryKeys[key] = true
		}
		agg := aggregates[key]

		primaryName := textutil.CleanCell(cellAt(row, pc.name))
		capRes := resolvePrimaryCapacity(cellAt(row, pc.capacity), primaryName, cfg.Policy)
		count, hasCount := parseNumber(cellAt(row, pc.count))

		exists := JudgmentMismatch
		matchCount := 0
		var secondaryVariants []capacityVariant
		var nameCandidates []string
		secondaryDrawing, trace := "", ""
		if agg != nil {
			exists = JudgmentMatch
			matchCount = agg.matchCount
			secondaryVariants = collectVariants(agg.capacities)
			nameCandidates = uniqueNonBlank(agg.names)
			secondaryDrawing = strings.Join(uniqueNonBlank(agg.drawings), ",")
			trace = formatTrace(agg.traceRows)
		}

		qtyCode, countDelta, hasCountDelta, qtyReason := evaluateQuantity(count, hasCount, matchCount, exists)
		capCode, capDelta, hasCapDelta, capReason := evaluateCapacity(capRes.selected, secondaryVariants, exists, cfg.Tolerance)
		nameCode, nameReason, variance := evaluateName(primaryName, nameCandidates, exists)

		overall := aggregateJudgments(exists, qtyCode, capCode, nameCode)
		reason := buildReason(overall, exists, qtyCode, qtyReason, capCode, capReason, nameCode, nameReason)

		rec := ReconciledRecord{
			Verdict:            overall,
			Existence:          exists,
			Quantity:           qtyCode,
			Capacity:           capCode,
			Name:               nameCode,
			Reason:             reason,
			EquipmentID:        rawID,
			PrimaryName:        primaryName,
			SecondaryNames:     strings.Join(nameCandidates, ","),
			SecondaryCount:     strconv.Itoa(matchCount),
			PrimaryCapacityRaw: capRes.rawDisplay,
			ModeCapacities:     capRes.modeValues,
			ResolvedMode:       capRes.mode,
			SecondaryCapacity:  joinVariants(secondaryVariants),
			SecondaryDrawing:   secondaryDrawing,
			AuditTrace:         trace,
			NameVariance:       variance,
			CapacityNote:       capRes.note,
			CapacityCode:       capRes.code,
		}
		if hasCount {
			rec.PrimaryCount = formatNumber(count)
		}
		if hasCountDelta {
			rec.CountDelta = formatNumber(countDelta)
		}
		if capRes.selected.kind == kindNumeric {
			rec.ResolvedCapacity = capRes.selected.display
		}
		if hasCapDelta {
			rec.CapacityDelta = formatNumber(capDelta)
		}
		if ds := primaryDrawings[key]; len(ds) > 0 {
			rec.PrimaryDrawing = strings.Join(uniqueNonBlank(ds), ",")
		}
		out = append(out, rec)
	}

	// Secondary-only keys trail the primary axis.
	for _, key := range keyOrder {
		if primaryKeys[key] {
			continue
		}
		agg := aggregates[key]
		id := firstNonBlank(agg.ids)
		if id == "" {
			id = key
		}
		out = append(out, ReconciledRecord{
			Verdict:           JudgmentMismatch,
			Existence:         JudgmentMismatch,
			Quantity:          JudgmentMismatch,
			Capacity:          JudgmentMismatch,
			Name:              JudgmentMismatch,
			Reason:            reasonNotInPrimary,
			EquipmentID:       id,
			SecondaryNames:    strings.Join(uniqueNonBlank(agg.names), ","),
			SecondaryCount:    strconv.Itoa(agg.matchCount),
			SecondaryCapacity: joinVariants(collectVariants(agg.capacities)),
			SecondaryDrawing:  strings.Join(uniqueNonBlank(agg.drawings), ","),
			AuditTrace:        formatTrace(agg.traceRows),
		})
	}

	// Secondary rows without a key cannot be joined at all; they are
	// emitted for review, never dropped.
	for _, mk := range missingOrder {
		g := missing[mk]
		out = append(out, ReconciledRecord{
			Verdict:           JudgmentReview,
			Existence:         JudgmentReview,
			Quantity:          JudgmentReview,
			Capacity:          JudgmentReview,
			Name:              JudgmentReview,
			Reason:            reasonKeyMissing,
			SecondaryNames:    g.name,
			SecondaryCount:    strconv.Itoa(g.count),
			SecondaryCapacity: g.capacityDisplay,
			SecondaryDrawing:  g.drawing,
			AuditTrace:        formatTrace(g.traceRows),
		})
	}

	return out, nil
}

// aggregateSecondary groups secondary rows by normalized key,
// preserving encounter order for keys and for missing-key groups.
func aggregateSecondary(secondary model.Document, sc secondaryColumns) (map[string]*aggregate, []string, map[string]*missingKeyGroup, []string) {
	aggregates := make(map[string]*aggregate)
	var keyOrder []string
	missing := make(map[string]*missingKeyGroup)
	var missingOrder []string

	for _, row := range secondary.Rows {
		id := cellAt(row, sc.id)
		name := cellAt(row, sc.name)
		voltage := cellAt(row, sc.voltage)
		capacity := cellAt(row, sc.capacity)
		drawing := cellAt(row, sc.drawing)
		key := textutil.NormalizeKey(id)

		if key == "" {
			if firstNonBlank([]string{name, voltage, capacity, drawing}) == "" {
				continue
			}
			mk := strings.Join([]string{
				normalizeNameForCompare(name),
				normalizeNameForCompare(voltage),
				normalizeNameForCompare(capacity),
				normalizeNameForCompare(drawing),
			}, "|")
			g := missing[mk]
			if g == nil {
				g = &missingKeyGroup{
					name:            firstNonBlank([]string{name}),
					capacityDisplay: textutil.Normalize(capacity),
					drawing:         firstNonBlank([]string{drawing}),
				}
				missing[mk] = g
				missingOrder = append(missingOrder, mk)
			}
			g.count++
			g.traceRows = append(g.traceRows, traceRow{drawing: drawing, name: name, capacity: capacity, voltage: voltage})
			if g.name == "" {
				g.name = firstNonBlank([]string{name})
			}
			if g.drawing == "" {
				g.drawing = firstNonBlank([]string{drawing})
			}
			continue
		}

		agg := aggregates[key]
		if agg == nil {
			agg = &aggregate{}
			aggregates[key] = agg
			keyOrder = append(keyOrder, key)
		}
		agg.matchCount++
		agg.ids = append(agg.ids, id)
		agg.names = append(agg.names, name)
		agg.voltages = append(agg.voltages, voltage)
		agg.capacities = append(agg.capacities, capacity)
		agg.drawings = append(agg.drawings, drawing)
		agg.traceRows = append(agg.traceRows, traceRow{drawing: drawing, name: name, capacity: capacity, voltage: voltage})
	}

	return aggregates, keyOrder, missing, missingOrder
}
