package realgrid

import "fmt"

// RegionCountError reports a page whose qualifying table-region count
// makes the layout ambiguous. Zero regions never produces this error;
// zero-region pages are skipped.
type RegionCountError struct {
	Page  int
	Found int
	Want  int
}

func (e *RegionCountError) Error() string {
	return fmt.Sprintf("page %d: found %d qualifying table regions, want %d", e.Page, e.Found, e.Want)
}

// GridLineError reports a region whose clustered rulings do not form
// the expected grid. It is returned only when the keyword fallback
// also failed; a recoverable malformed grid degrades silently.
type GridLineError struct {
	Page       int
	Vertical   int
	Horizontal int
	Reason     string
}

func (e *GridLineError) Error() string {
	return fmt.Sprintf("page %d: malformed grid (%d vertical, %d horizontal lines): %s",
		e.Page, e.Vertical, e.Horizontal, e.Reason)
}
