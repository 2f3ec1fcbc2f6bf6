package reconcile

import (
	"strings"

	"github.com/hayashi-antas/plan2table/textutil"
)

// Fixed reason templates. The wording is part of the output contract:
// downstream review tooling keys on these strings.
const (
	reasonNotInSecondary = "not listed in secondary document"
	reasonNotInPrimary   = "not listed in primary document"
	reasonKeyMissing     = "counterpart key missing"

	reasonCountUnknown = "count unknown"
	reasonCountMissing = "count delta=missing"

	reasonCapacityMissing    = "capacity missing"
	reasonCapacityMulti      = "capacity has multiple candidates"
	reasonCapacityNonNumeric = "capacity is not numeric"

	reasonNameUnknown = "name unknown"
	reasonNameDiffers = "name differs"

	reasonGenericReview   = "needs review"
	reasonGenericMismatch = "mismatch"
)

func normalizeNameForCompare(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(textutil.Normalize(s)), ""))
}

// aggregateJudgments folds per-axis judgments into the overall verdict
// under priority review > mismatch > match.
func aggregateJudgments(codes ...Judgment) Judgment {
	worst := JudgmentMatch
	for _, c := range codes {
		if severity(c) > severity(worst) {
			worst = c
		}
	}
	return worst
}

// evaluateQuantity compares the primary count to the number of matched
// secondary rows.
func evaluateQuantity(primaryCount float64, primaryHasCount bool, matchCount int, exists Judgment) (code Judgment, delta float64, hasDelta bool, reason string) {
	if primaryHasCount {
		delta = float64(matchCount) - primaryCount
		hasDelta = true
	}
	if exists == JudgmentMismatch {
		return JudgmentMismatch, delta, hasDelta, reasonNotInSecondary
	}
	if !primaryHasCount {
		return JudgmentReview, delta, hasDelta, reasonCountUnknown
	}
	if delta == 0 {
		return JudgmentMatch, delta, hasDelta, ""
	}
	return JudgmentMismatch, delta, hasDelta, "count delta=" + formatNumber(delta)
}

// evaluateCapacity compares the adopted primary value against the
// secondary candidates. The tolerance applies only when both sides are
// single numeric values; every other shape is review.
func evaluateCapacity(primary capacityVariant, secondary []capacityVariant, exists Judgment, tolerance float64) (code Judgment, delta float64, hasDelta bool, reason string) {
	if exists == JudgmentMismatch {
		return JudgmentMismatch, 0, false, reasonNotInSecondary
	}
	if primary.kind == kindBlank || len(secondary) == 0 {
		return JudgmentReview, 0, false, reasonCapacityMissing
	}
	if primary.kind == kindMulti {
		return JudgmentReview, 0, false, reasonCapacityMulti
	}
	if primary.kind == kindNonNumeric {
		return JudgmentReview, 0, false, reasonCapacityNonNumeric
	}
	for _, v := range secondary {
		if v.kind == kindMulti {
			return JudgmentReview, 0, false, reasonCapacityMulti
		}
	}
	if len(secondary) > 1 {
		return JudgmentReview, 0, false, reasonCapacityMulti
	}
	s := secondary[0]
	if s.kind == kindNonNumeric {
		return JudgmentReview, 0, false, reasonCapacityNonNumeric
	}
	if s.kind != kindNumeric || !primary.hasValue || !s.hasValue {
		return JudgmentReview, 0, false, reasonCapacityMissing
	}

	delta = s.value - primary.value
	if abs(delta) <= tolerance {
		return JudgmentMatch, delta, true, ""
	}
	return JudgmentMismatch, delta, true, "capacity delta=" + formatNumber(delta)
}

// evaluateName compares the primary name against the unique secondary
// candidates. Multiple distinct candidates are flagged as variance;
// the flag is surfaced through the record (and the audit trace), never
// as a verdict-driving judgment on its own.
func evaluateName(primaryName string, candidates []string, exists Judgment) (code Judgment, reason string, variance bool) {
	if exists == JudgmentMismatch {
		return JudgmentMismatch, reasonNotInSecondary, false
	}
	if primaryName == "" || len(candidates) == 0 {
		return JudgmentReview, reasonNameUnknown, false
	}
	if len(candidates) >= 2 {
		return JudgmentMatch, "", true
	}
	if normalizeNameForCompare(primaryName) == normalizeNameForCompare(candidates[0]) {
		return JudgmentMatch, "", false
	}
	return JudgmentMismatch, reasonNameDiffers, false
}

// buildReason picks the single output reason by fixed priority: for
// review, whichever axis produced the review (quantity > capacity >
// name); for mismatch, existence > quantity > capacity > name.
func buildReason(overall, exists, qty Judgment, qtyReason string, capCode Judgment, capReason string, nameCode Judgment, nameReason string) string {
	if overall == JudgmentMatch {
		return ""
	}

	var review, mismatch []string

	if exists == JudgmentMismatch {
		mismatch = append(mismatch, reasonNotInSecondary)
	}

	switch qty {
	case JudgmentReview:
		review = append(review, reasonCountMissing)
	case JudgmentMismatch:
		if qtyReason == "" {
			qtyReason = reasonCountMissing
		}
		mismatch = append(mismatch, qtyReason)
	}

	switch capCode {
	case JudgmentReview:
		if capReason != reasonCapacityMulti && capReason != reasonCapacityNonNumeric {
			capReason = reasonCapacityMissing
		}
		review = append(review, capReason)
	case JudgmentMismatch:
		if capReason == "" {
			capReason = "capacity differs"
		}
		mismatch = append(mismatch, capReason)
	}

	switch nameCode {
	case JudgmentReview:
		if nameReason == "" {
			nameReason = reasonNameUnknown
		}
		review = append(review, nameReason)
	case JudgmentMismatch:
		if nameReason == "" {
			nameReason = reasonNameDiffers
		}
		mismatch = append(mismatch, nameReason)
	}

	if overall == JudgmentReview {
		if len(review) > 0 {
			return review[0]
		}
		if len(mismatch) > 0 {
			return mismatch[0]
		}
		return reasonGenericReview
	}
	if len(mismatch) > 0 {
		return mismatch[0]
	}
	if len(review) > 0 {
		return review[0]
	}
	return reasonGenericMismatch
}
