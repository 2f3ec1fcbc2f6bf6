// Package reconcile joins two reconstructed schedule documents on the
// equipment identifier and judges every record per comparison axis:
// existence, quantity, capacity and name. Ambiguity never raises; it
// resolves to a review judgment with a recorded reason, so every input
// record yields exactly one explainable output record.
package reconcile

// Judgment is the outcome of one comparison axis.
type Judgment string

const (
	JudgmentMatch    Judgment = "match"
	JudgmentMismatch Judgment = "mismatch"
	JudgmentReview   Judgment = "review"
)

// severity orders judgments for the overall verdict: review > mismatch
// > match.
func severity(j Judgment) int {
	switch j {
	case JudgmentReview:
		return 2
	case JudgmentMismatch:
		return 1
	}
	return 0
}

// FallbackPolicy selects what happens when a mode-tagged capacity
// cannot be disambiguated by a name hint.
type FallbackPolicy string

const (
	// PreferMax adopts the maximum mode value unless modes tie.
	PreferMax FallbackPolicy = "prefer-max"
	// Strict never guesses: an undetermined mode yields review.
	Strict FallbackPolicy = "strict"
)

// Config holds the reconciliation parameters. All values are explicit;
// the engine reads no ambient state.
type Config struct {
	// Aliases maps each canonical field name to the header spellings
	// accepted for it, matched case-, width- and space-insensitively.
	Aliases map[string][]string

	// Tolerance is the absolute kW tolerance for capacity comparison,
	// applied only when both sides reduce to one numeric value.
	Tolerance float64

	Policy FallbackPolicy
}

// DefaultConfig returns the standard tolerance and the documented
// prefer-max mode policy.
func DefaultConfig() Config {
	return Config{
		Aliases:   DefaultAliases(),
		Tolerance: 0.1,
		Policy:    PreferMax,
	}
}

// DefaultAliases returns the header-alias table for the standard
// schedule family. The primary document is the equipment schedule, the
// secondary document is the panel schedule.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"equipment_id": {"equipment no.", "equipment no", "equip. no.", "mark", "symbol"},

		"primary_name":           {"name", "equipment name"},
		"primary_capacity_kw":    {"capacity (kW)", "power consumption (kW)", "motor (50Hz) power consumption (kW)"},
		"primary_count":          {"count", "q'ty", "quantity"},
		"primary_drawing_number": {"drawing no.", "drawing number", "schedule drawing no."},

		"secondary_name":           {"name", "equipment name"},
		"secondary_voltage":        {"voltage (V)", "voltage"},
		"secondary_capacity_kw":    {"capacity (kW)", "power consumption (kW)"},
		"secondary_drawing_number": {"drawing no.", "drawing number", "panel drawing no."},
	}
}

// ColumnNames is the fixed 21-column output contract, in order. The
// order is a compatibility contract for downstream consumers and must
// not change silently.
func ColumnNames() []string {
	return []string{
		"verdict",
		"existence judgment",
		"quantity judgment",
		"capacity judgment",
		"name judgment",
		"reason",
		"equipment id",
		"primary name",
		"secondary names",
		"primary count",
		"secondary count",
		"count delta",
		"primary capacity raw (kW)",
		"mode capacities (kW)",
		"resolved mode",
		"resolved capacity (kW)",
		"secondary capacity (kW)",
		"capacity delta (kW)",
		"primary drawing no.",
		"secondary drawing no.",
		"audit trace",
	}
}

// ReconciledRecord is one joined, judged output record.
type ReconciledRecord struct {
	Verdict   Judgment
	Existence Judgment
	Quantity  Judgment
	Capacity  Judgment
	Name      Judgment

	Reason string

	EquipmentID    string
	PrimaryName    string
	SecondaryNames string

	PrimaryCount   string
	SecondaryCount string
	CountDelta     string

	PrimaryCapacityRaw string
	ModeCapacities     string
	ResolvedMode       string
	ResolvedCapacity   string
	SecondaryCapacity  string
	CapacityDelta      string

	PrimaryDrawing   string
	SecondaryDrawing string

	AuditTrace string

	// NameVariance marks multiple distinct secondary names for the
	// key. It is surfaced, not a verdict driver.
	NameVariance bool

	// CapacityNote explains how the compared capacity value was
	// adopted; CapacityCode is its machine-readable tag. Neither is
	// part of the 21-column contract.
	CapacityNote string
	CapacityCode string
}

// Columns renders the record in the 21-column contract order.
func (r ReconciledRecord) Columns() []string {
	return []string{
		string(r.Verdict),
		string(r.Existence),
		string(r.Quantity),
		string(r.Capacity),
		string(r.Name),
		r.Reason,
		r.EquipmentID,
		r.PrimaryName,
		r.SecondaryNames,
		r.PrimaryCount,
		r.SecondaryCount,
		r.CountDelta,
		r.PrimaryCapacityRaw,
		r.ModeCapacities,
		r.ResolvedMode,
		r.ResolvedCapacity,
		r.SecondaryCapacity,
		r.CapacityDelta,
		r.PrimaryDrawing,
		r.SecondaryDrawing,
		r.AuditTrace,
	}
}
