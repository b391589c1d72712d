package answer

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/minirag/core"
)

// CitationPolicy decides what happens to citations that point past the sources.
type CitationPolicy string

const (
	// CitationStrip removes out-of-range numbers from the answer.
	CitationStrip CitationPolicy = "strip"

	// CitationFlag keeps the answer unchanged and only reports the numbers.
	CitationFlag CitationPolicy = "flag"

	// CitationReject fails the query with ErrInvalidCitation.
	CitationReject CitationPolicy = "reject"
)

// ParseCitationPolicy converts a configuration value to a CitationPolicy.
// The empty string selects CitationStrip.
func ParseCitationPolicy(s string) (CitationPolicy, error) {
	switch p := CitationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CitationStrip, nil
	case CitationStrip, CitationFlag, CitationReject:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCitationPolicy, s)
}

// citationPattern matches [1] and grouped markers such as [1, 2].
var citationPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// citation is one number inside a marker. ok is false when digits overflow int.
type citation struct {
	n      int
	digits string
	ok     bool
}

func markerNumbers(marker string) []citation {
	inner := marker[1 : len(marker)-1]
	parts := strings.Split(inner, ",")
	nums := make([]citation, 0, len(parts))
	for _, part := range parts {
		digits := strings.TrimSpace(part)
		n, err := strconv.Atoi(digits)
		nums = append(nums, citation{n: n, digits: digits, ok: err == nil})
	}
	return nums
}

func inRange(n, sources int) bool {
	return n >= 1 && n <= sources
}

// CheckCitations lists the citation numbers in text. Numbers outside
// 1..sources are reported as out of range, numbers too large for an int
// as oversized with their digits unchanged. All lists are distinct and in
// order of first appearance.
func CheckCitations(text string, sources int) core.CitationReport {
	report := core.CitationReport{Cited: []int{}, OutOfRange: []int{}}
	for _, marker := range citationPattern.FindAllString(text, -1) {
		for _, c := range markerNumbers(marker) {
			n := c.n
			switch {
			case !c.ok:
				if !slices.Contains(report.Oversized, c.digits) {
					report.Oversized = append(report.Oversized, c.digits)
				}
			case inRange(n, sources):
				if !slices.Contains(report.Cited, n) {
					report.Cited = append(report.Cited, n)
				}
			case !slices.Contains(report.OutOfRange, n):
				report.OutOfRange = append(report.OutOfRange, n)
			}
		}
	}
	return report
}

// stripCitations removes out-of-range numbers from every marker and drops
// markers left empty together with the space before them.
func stripCitations(text string, sources int) string {
	locs := citationPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		var kept []string
		for _, c := range markerNumbers(text[start:end]) {
			if c.ok && inRange(c.n, sources) {
				kept = append(kept, strconv.Itoa(c.n))
			}
		}

		prefix := text[last:start]
		if len(kept) == 0 {
			sb.WriteString(strings.TrimRight(prefix, " "))
		} else {
			sb.WriteString(prefix)
			sb.WriteString("[" + strings.Join(kept, ", ") + "]")
		}
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// ApplyCitationPolicy checks the citations of text against sources and
// applies policy. It returns the possibly rewritten text and the report of
// the original text. CitationReject returns ErrInvalidCitation when any
// number is out of range or oversized.
func ApplyCitationPolicy(text string, sources int, policy CitationPolicy) (string, core.CitationReport, error) {
	report := CheckCitations(text, sources)
	if !report.Invalid() {
		return text, report, nil
	}

	switch policy {
	case CitationFlag:
		return text, report, nil
	case CitationReject:
		return text, report, fmt.Errorf("%w: %v with %d sources", ErrInvalidCitation, report.Unmatched(), sources)
	case CitationStrip, "":
		return stripCitations(text, sources), report, nil
	}
	return text, report, fmt.Errorf("%w: %q", ErrUnknownCitationPolicy, string(policy))
}
