package reconcile

import (
	"fmt"
	"strings"

	"github.com/hayashi-antas/plan2table/textutil"
)

// traceRow is one secondary row's identifying fields, kept verbatim
// for the audit trace.
type traceRow struct {
	drawing  string
	name     string
	capacity string
	voltage  string
}

func traceValue(s string) string {
	t := textutil.Normalize(s)
	if t == "" {
		// An explicit placeholder: a blank field must stay visible,
		// not vanish into the joined string.
		return "?"
	}
	return t
}

// formatTrace enumerates the distinct (drawing, name, capacity)
// combinations across an aggregate's rows with occurrence counts.
// Returns "" when the rows agree on a single combination; there is
// nothing to review then.
func formatTrace(rows []traceRow) string {
	type key struct{ drawing, name, capacity string }
	var order []key
	counts := make(map[key]int)

	for _, r := range rows {
		k := key{traceValue(r.drawing), traceValue(r.name), traceValue(r.capacity)}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) <= 1 {
		return ""
	}

	parts := make([]string, 0, len(order))
	for _, k := range order {
		label := fmt.Sprintf("drawing:%s name:%s capacity:%s", k.drawing, k.name, k.capacity)
		if n := counts[k]; n > 1 {
			label += fmt.Sprintf(" x%d", n)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " || ")
}
