// Package records assembles equipment records from raw table rows.
// Both reconstruction paths converge here: a row whose leading cell
// matches the identifier pattern opens a record, following rows merge
// into it as continuation data, and a notes marker ends extraction.
package records

import (
	"regexp"
	"strings"

	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// splitSuffix matches an identifier suffix the cell cut pushed into
// the neighbouring cell ("PAC-1" | "-2" is really "PAC-1-2").
var splitSuffix = regexp.MustCompile(`^-\d+$`)

// Config maps the raw row layout to the assembler. Column indexes set
// to -1 mark columns the layout does not carry.
type Config struct {
	Rules *textutil.RuleSet

	CodeCol  int
	NameCol  int
	NoteCol  int
	PowerCol int
	CountCol int

	// JoinSep separates deduplicated continuation values in a merged
	// cell.
	JoinSep string
}

// DefaultConfig matches the 19-column real-grid row layout.
func DefaultConfig() Config {
	return Config{
		Rules:    textutil.DefaultRules(),
		CodeCol:  0,
		NameCol:  1,
		NoteCol:  3,
		PowerCol: 9,
		CountCol: 15,
		JoinSep:  " / ",
	}
}

// Assemble folds raw rows into records. The walk is a small state
// machine: seeking (no open record, identifier rows open one),
// accumulating (identifier rows open or extend, other rows merge as
// continuations) and terminated (a notes marker row stops the walk).
// Rows before the first identifier are dropped; they are header or
// legend text.
func Assemble(rows [][]string, cfg Config) []model.Record {
	if cfg.Rules == nil {
		cfg.Rules = textutil.DefaultRules()
	}
	if cfg.JoinSep == "" {
		cfg.JoinSep = " / "
	}

	var out []model.Record
	var cur *model.Record

	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for _, raw := range rows {
		cells := make([]string, len(raw))
		for i, c := range raw {
			cells[i] = textutil.CleanCell(c)
		}

		if isTerminatorRow(cells, cfg) {
			break
		}

		code := strings.ToUpper(cell(cells, cfg.CodeCol))

		// Re-join an identifier suffix that the grid cut pushed into
		// the name cell.
		if name := cell(cells, cfg.NameCol); code != "" && splitSuffix.MatchString(name) &&
			textutil.IsEquipmentID(code+name) {
			code += name
			setCell(cells, cfg.CodeCol, code)
			setCell(cells, cfg.NameCol, "")
		}

		switch {
		case textutil.IsEquipmentID(code):
			if cur != nil && textutil.NormalizeKey(code) == textutil.NormalizeKey(cur.ID) {
				mergeRow(cur, cells, cfg)
				continue
			}
			flush()
			rec := model.Record{ID: code, Cells: cells}
			cur = &rec
		case cur != nil:
			mergeRow(cur, cells, cfg)
		default:
			// Seeking: header or legend text before the first record.
		}
	}
	flush()

	return out
}

// mergeRow folds a continuation row into the open record. The
// identifier cell never absorbs continuation text (a truncated
// identifier like "PAC-1-" must not corrupt the key), and the count
// cell keeps its first value: repeated counts on wrapped rows restate
// the same quantity, they do not add to it.
func mergeRow(rec *model.Record, cells []string, cfg Config) {
	for i, v := range cells {
		if v == "" || i == cfg.CodeCol {
			continue
		}
		if i >= len(rec.Cells) {
			grown := make([]string, i+1)
			copy(grown, rec.Cells)
			rec.Cells = grown
		}
		if i == cfg.CountCol {
			if rec.Cells[i] == "" {
				rec.Cells[i] = v
			}
			continue
		}
		rec.Cells[i] = dedupeJoin(rec.Cells[i], v, cfg.JoinSep)
	}
}

// dedupeJoin appends v to joined unless an identical part is already
// present.
func dedupeJoin(joined, v, sep string) string {
	if joined == "" {
		return v
	}
	for _, part := range strings.Split(joined, sep) {
		if part == v {
			return joined
		}
	}
	return joined + sep + v
}

// isTerminatorRow reports whether the row is the notes/remarks marker
// that ends record extraction: a bullet in the notes column or a
// notes keyword leading the row.
func isTerminatorRow(cells []string, cfg Config) bool {
	if note := cell(cells, cfg.NoteCol); note != "" && isNoteMarker(note) {
		return true
	}
	for _, c := range cells {
		if c == "" {
			continue
		}
		return cfg.Rules.IsTerminator(c) || isNoteMarker(c)
	}
	return false
}

func isNoteMarker(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "■") || strings.HasPrefix(t, "※") || strings.HasPrefix(t, "◆")
}

// FourColumnRows reduces assembled records to the output subset the
// reconciliation stage consumes: identifier, name, per-unit capacity,
// count and the page's drawing number.
func FourColumnRows(recs []model.Record, drawingNumber string, cfg Config) [][]string {
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, []string{
			r.ID,
			cell(r.Cells, cfg.NameCol),
			cell(r.Cells, cfg.PowerCol),
			cell(r.Cells, cfg.CountCol),
			drawingNumber,
		})
	}
	return out
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func setCell(cells []string, i int, v string) {
	if i >= 0 && i < len(cells) {
		cells[i] = v
	}
}
