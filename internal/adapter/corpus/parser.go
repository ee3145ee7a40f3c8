package corpus

import (
	"regexp"
	"strings"

	"lexrag/internal/domain"
)

var (
	reCaseNumberLine = regexp.MustCompile(`^\(.*\)$`)
	reSectionTag     = regexp.MustCompile(`^<[^>]+>\s*$`)
)

// ParseChunk turns one chunk into a CaseRecord. The expected layout is
//
//	title (one or more lines)
//	(case number)
//	<issue tag>
//	...
//	<holding tag>
//	...
//	<rationale tag>
//	...
//
// Tag text is only a delimiter; sections are positional. ParseChunk never fails
// and leaves missing fields empty. A chunk without a parenthesized line keeps
// every line in the title and reads the body from the second line on.
func ParseChunk(chunk string) domain.CaseRecord {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(chunk), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return domain.CaseRecord{}
	}

	var rec domain.CaseRecord

	idx := 0
	titleLines := make([]string, 0, 2)
	for i, line := range lines {
		if reCaseNumberLine.MatchString(line) {
			idx = i
			rec.CaseNumber = line
			break
		}
		titleLines = append(titleLines, line)
	}
	rec.Title = strings.TrimSpace(strings.Join(titleLines, " "))

	parts := splitSections(lines[idx+1:])
	switch {
	case len(parts) >= 2:
		rec.Issue = parts[0]
		rec.Holding = parts[1]
		rec.Content = parts[0] + "\n" + parts[1]
	case len(parts) == 1:
		rec.Issue = parts[0]
		rec.Content = parts[0]
	}
	if len(parts) >= 3 {
		rec.Rationale = parts[2]
	}
	return rec
}

// splitSections splits body lines on tag lines and keeps non-empty parts.
func splitSections(body []string) []string {
	var parts []string
	var cur []string
	flush := func() {
		if p := strings.TrimSpace(strings.Join(cur, "\n")); p != "" {
			parts = append(parts, p)
		}
		cur = cur[:0]
	}
	for _, line := range body {
		if reSectionTag.MatchString(line) {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return parts
}
