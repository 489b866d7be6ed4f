// Package parser extracts player and match records from raw Tennis Explorer
// markup. Individual malformed rows are skipped and counted; only a page
// whose overall structure is unrecognizable produces an error.
package parser

import (
	"errors"
	"regexp"
)

// ErrUnrecognizedFormat indicates the expected table structure is absent from
// the fetched page, i.e. the failure is structural rather than per-record.
var ErrUnrecognizedFormat = errors.New("source markup not recognized")

// Report accumulates per-record skip counts for one parsed page.
type Report struct {
	Parsed  int
	Skipped int
}

// Merge folds another page's counts into the report.
func (r *Report) Merge(other Report) {
	r.Parsed += other.Parsed
	r.Skipped += other.Skipped
}

var (
	playerSlugRe = regexp.MustCompile(`/player/([^/?]+)`)
	yearRe       = regexp.MustCompile(`20\d{2}`)
	dayMonthRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.$`)
	setDigitRe   = regexp.MustCompile(`\d+`)
)
