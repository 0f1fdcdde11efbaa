// Package region locates and replaces marker-delimited spans of text.
package region

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/layoutsync/internal/apperr"
)

// Region is a named span bounded by literal start and end markers.
type Region struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`

	re *regexp.Regexp
}

// New builds a region and compiles its non-greedy matcher.
func New(name, start, end string) Region {
	return Region{
		Name:  name,
		Start: start,
		End:   end,
		re:    regexp.MustCompile(`(?s)` + regexp.QuoteMeta(start) + `.*?` + regexp.QuoteMeta(end)),
	}
}

// Defaults returns the shared layout regions: NAV and SIDEBAR.
func Defaults() []Region {
	return []Region{
		New("NAV", "<!-- SHARED NAV START -->", "<!-- SHARED NAV END -->"),
		New("SIDEBAR", "<!-- SHARED SIDEBAR START -->", "<!-- SHARED SIDEBAR END -->"),
	}
}

// Validate rejects empty names or markers and duplicate names.
func Validate(regions []Region) error {
	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		if r.Name == "" {
			return fmt.Errorf("region: empty name")
		}
		if r.Start == "" || r.End == "" {
			return fmt.Errorf("region %s: empty marker", r.Name)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("region %s: defined more than once", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// MissingRegionError reports that a document lacks a region's start marker
// followed by its end marker.
type MissingRegionError struct {
	Document string
	Region   string
}

func (e *MissingRegionError) Error() string {
	return fmt.Sprintf("%s markers are missing in %s", e.Region, e.Document)
}

func (e *MissingRegionError) Unwrap() error { return apperr.ErrMissingRegion }

// DuplicateRegionError reports a start marker occurring more than once.
// It is only returned in strict mode.
type DuplicateRegionError struct {
	Document string
	Region   string
	Count    int
}

func (e *DuplicateRegionError) Error() string {
	return fmt.Sprintf("%s start marker appears %d times in %s", e.Region, e.Count, e.Document)
}

func (e *DuplicateRegionError) Unwrap() error { return apperr.ErrDuplicateRegion }

func (r Region) matcher() *regexp.Regexp {
	if r.re == nil {
		return New(r.Name, r.Start, r.End).re
	}
	return r.re
}

// span returns the byte offsets of the first start..end match in text.
func (r Region) span(doc, text string) (int, int, error) {
	loc := r.matcher().FindStringIndex(text)
	if loc == nil {
		return 0, 0, &MissingRegionError{Document: doc, Region: r.Name}
	}
	return loc[0], loc[1], nil
}

// Extract returns the first span from the start marker through the end
// marker, both included. doc names the document in errors.
func (r Region) Extract(doc, text string) (string, error) {
	start, end, err := r.span(doc, text)
	if err != nil {
		return "", err
	}
	return text[start:end], nil
}

// Replace substitutes block for the first span, leaving the rest of text
// untouched. block is inserted verbatim.
func (r Region) Replace(doc, text, block string) (string, error) {
	start, end, err := r.span(doc, text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(text) - (end - start) + len(block))
	b.WriteString(text[:start])
	b.WriteString(block)
	b.WriteString(text[end:])
	return b.String(), nil
}

// CheckUnique fails with DuplicateRegionError when the start marker occurs
// more than once in text.
func (r Region) CheckUnique(doc, text string) error {
	if n := strings.Count(text, r.Start); n > 1 {
		return &DuplicateRegionError{Document: doc, Region: r.Name, Count: n}
	}
	return nil
}
