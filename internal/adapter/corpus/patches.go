package corpus

import "strings"

// Patch appends a suffix to one 1-based line of a law type's raw text when the
// line does not already end with it. Patches repair case-ordinal markers that
// lost their trailing period in the source typesetting.
type Patch struct {
	LawType string
	Line    int
	Append  string
}

// ApplyPatches returns text with patches applied. Out of range lines are ignored.
func ApplyPatches(text string, patches []Patch) string {
	if len(patches) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for _, p := range patches {
		if p.Line < 1 || p.Line > len(lines) || p.Append == "" {
			continue
		}
		line := lines[p.Line-1]
		cr := strings.HasSuffix(line, "\r")
		line = strings.TrimSuffix(line, "\r")
		if strings.HasSuffix(line, p.Append) {
			continue
		}
		line += p.Append
		if cr {
			line += "\r"
		}
		lines[p.Line-1] = line
	}
	return strings.Join(lines, "\n")
}
