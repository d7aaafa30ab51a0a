package chapters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSelection = errors.New("invalid chapter selection")

// Selection picks chapters by number. A non-empty List wins over the
// Start..End range. End == 0 means "until the last chapter".
type Selection struct {
	Start int
	End   int
	List  []int
}

func (s Selection) Validate() error {
	if len(s.List) > 0 {
		for _, n := range s.List {
			if n < 1 {
				return fmt.Errorf("%w: chapter %d must be greater than 0", ErrInvalidSelection, n)
			}
		}
		return nil
	}
	if s.Start < 1 {
		return fmt.Errorf("%w: start chapter must be greater than 0", ErrInvalidSelection)
	}
	if s.End != 0 && s.End < s.Start {
		return fmt.Errorf("%w: end chapter must be greater or equal to start chapter", ErrInvalidSelection)
	}
	return nil
}

// Bounds returns the lowest and highest requested chapter. high is 0 for
// an open range.
func (s Selection) Bounds() (low, high int) {
	if len(s.List) == 0 {
		return s.Start, s.End
	}

	low, high = s.List[0], s.List[0]
	for _, n := range s.List[1:] {
		low = min(low, n)
		high = max(high, n)
	}
	return low, high
}

func (s Selection) Contains(n int) bool {
	if len(s.List) > 0 {
		for _, v := range s.List {
			if v == n {
				return true
			}
		}
		return false
	}
	return n >= s.Start && (s.End == 0 || n <= s.End)
}

// Filter keeps the refs whose number is selected. Refs without a number
// are always kept, they are usually prologues or side stories.
func Filter(all []Ref, sel Selection) []Ref {
	out := []Ref{}
	for _, r := range all {
		if r.Number < 0 || sel.Contains(r.Number) {
			out = append(out, r)
		}
	}
	return out
}

// TOCPages lists the 1-based pages of a paginated table of contents that
// hold chapters start..end when every page lists perPage chapters.
func TOCPages(start, end, perPage int) []int {
	if perPage < 1 || start < 1 || end < start {
		return nil
	}

	first := (start-1)/perPage + 1
	last := (end-1)/perPage + 1

	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// ParseList reads "1,3,5" style chapter lists.
func ParseList(list string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q is not a chapter number", ErrInvalidSelection, p)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseRange reads "5-12" style ranges; "5-" leaves the end open.
func ParseRange(rng string) (start, end int, err error) {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: range %q must look like 5-12", ErrInvalidSelection, rng)
	}

	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad range start %q", ErrInvalidSelection, parts[0])
	}

	if start < 1 {
		return 0, 0, fmt.Errorf("%w: range start must be greater than 0", ErrInvalidSelection)
	}

	if strings.TrimSpace(parts[1]) == "" {
		return start, 0, nil
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad range end %q", ErrInvalidSelection, parts[1])
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: range end %d is before start %d", ErrInvalidSelection, end, start)
	}

	return start, end, nil
}
