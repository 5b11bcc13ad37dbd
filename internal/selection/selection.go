// Package selection turns dashboard input into zero-based page index sets.
//
// Users think in 1-based page numbers; everything returned here is
// zero-based and ready for document.Extract.
package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode is how the user picked pages.
type Mode string

const (
	// ModeRange selects a contiguous 1-based inclusive range (slider).
	ModeRange Mode = "range"
	// ModePages selects an explicit list such as "1,3,5-7" (checkboxes).
	ModePages Mode = "pages"
)

// DefaultRangeSpan is how many leading pages the range slider covers
// before the user moves it.
const DefaultRangeSpan = 5

// maxExpand bounds how many indices one selection may produce.
const maxExpand = 100000

// ErrInvalidSelection is returned for selection input that cannot be parsed.
var ErrInvalidSelection = errors.New("invalid page selection")

// Request is the raw selection state submitted by the dashboard.
type Request struct {
	Mode  Mode
	From  int // 1-based, 0 = default
	To    int // 1-based, 0 = default
	Pages string
	// Checked holds checkbox values, used when Pages is empty.
	Checked []string
}

// Resolve converts req into zero-based indices for a document with
// pageCount pages. Range bounds are clamped; explicit page lists keep
// order and duplicates and are filtered later by document.Extract.
func Resolve(req Request, pageCount int) ([]int, error) {
	switch req.Mode {
	case ModePages:
		if strings.TrimSpace(req.Pages) == "" && len(req.Checked) > 0 {
			return FromChecked(req.Checked, pageCount)
		}
		return ParsePages(req.Pages, pageCount)
	case ModeRange, "":
		from, to := req.From, req.To
		if from == 0 && to == 0 {
			from, to = DefaultRange(pageCount)
		}
		return Range(from, to, pageCount), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSelection, req.Mode)
	}
}

// DefaultRange is the slider's initial position: 1..min(5, pageCount).
func DefaultRange(pageCount int) (from, to int) {
	if pageCount < 1 {
		return 1, 1
	}
	return 1, min(DefaultRangeSpan, pageCount)
}

// Range returns the zero-based indices for the 1-based inclusive range
// [from, to], clamped to the document. Reversed bounds are swapped.
func Range(from, to, pageCount int) []int {
	if pageCount <= 0 {
		return []int{}
	}
	if from > to {
		from, to = to, from
	}
	from = max(from, 1)
	to = min(to, pageCount)
	if from > to {
		return []int{}
	}
	out := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, p-1)
	}
	return out
}

// ParsePages parses a comma separated list of 1-based pages and ranges,
// e.g. "1, 3, 5-7" or "9-7", for a document with pageCount pages. Order and
// duplicates are preserved. Ranges are cut to the document, so "2-999" on a
// 4-page document yields pages 2..4; single pages past the end are kept and
// dropped later by document.Extract. More than maxExpand indices in total is
// ErrInvalidSelection.
func ParsePages(spec string, pageCount int) ([]int, error) {
	out := []int{}
	add := func(idx int) error {
		if len(out) >= maxExpand {
			return fmt.Errorf("%w: more than %d pages selected", ErrInvalidSelection, maxExpand)
		}
		out = append(out, idx)
		return nil
	}
	for _, tok := range strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		lo, hi, isRange := strings.Cut(tok, "-")
		if !isRange {
			n, err := pageNumber(tok)
			if err != nil {
				return nil, err
			}
			if err := add(n - 1); err != nil {
				return nil, err
			}
			continue
		}
		a, err := pageNumber(lo)
		if err != nil {
			return nil, err
		}
		b, err := pageNumber(hi)
		if err != nil {
			return nil, err
		}
		from, to := min(a, b), min(max(a, b), pageCount)
		if from > to {
			continue
		}
		first, last, step := from, to, 1
		if b < a {
			first, last, step = to, from, -1
		}
		for p := first; ; p += step {
			if err := add(p - 1); err != nil {
				return nil, err
			}
			if p == last {
				break
			}
		}
	}
	return out, nil
}

// FromChecked converts checkbox values (1-based page numbers) to indices.
func FromChecked(values []string, pageCount int) ([]int, error) {
	return ParsePages(strings.Join(values, ","), pageCount)
}

func pageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a page number", ErrInvalidSelection, s)
	}
	return n, nil
}
