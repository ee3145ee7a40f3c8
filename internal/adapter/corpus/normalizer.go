package corpus

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Segment is one case-sized span of cleaned raw text.
type Segment struct {
	Number int // 1-based
	Text   string
}

var (
	reBlankLine  = regexp.MustCompile(`(?m)^\s*$`)
	rePageNumber = regexp.MustCompile(`(?m)^\s*\p{Nd}{1,4}\s*$`)
	reRomanLine  = regexp.MustCompile(`(?m)^\s*[ⅠⅡⅢⅣⅤⅥⅦⅧⅨⅩ]+.*$`)
	reMultiLF    = regexp.MustCompile(`\n{2,}`)
	reSpaces     = regexp.MustCompile(`[ \t]+`)
	reCaseMarker = regexp.MustCompile(`\n\p{Nd}+\.\s*\n`)
)

// defaultNoise are removed in order after blank lines and before whitespace cleanup.
var defaultNoise = []*regexp.Regexp{
	regexp.MustCompile(`변호사시험의 자격시험을 위한.*`),
	rePageNumber,
	regexp.MustCompile(`제\s*\p{Nd}+\s*편.*`),
	regexp.MustCompile(`제\s*\p{Nd}+\s*장.*`),
	regexp.MustCompile(`제\s*\p{Nd}+\s*절.*`),
	regexp.MustCompile(`형법 총론.*`),
	reRomanLine,
}

// Normalizer strips boilerplate from a raw judgment corpus and splits it into
// per-case segments. It is stateless apart from its configuration.
type Normalizer struct {
	noise     []*regexp.Regexp
	patches   map[string][]Patch
	unicodeNF bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithPatches registers line patches applied before cleaning.
func WithPatches(patches []Patch) NormalizerOption {
	return func(n *Normalizer) {
		for _, p := range patches {
			n.patches[p.LawType] = append(n.patches[p.LawType], p)
		}
	}
}

// WithExtraNoise adds removal patterns after the built-in ones.
func WithExtraNoise(patterns []string) NormalizerOption {
	return func(n *Normalizer) {
		for _, p := range patterns {
			n.noise = append(n.noise, regexp.MustCompile(p))
		}
	}
}

// WithUnicodeNFC composes decomposed Hangul before matching.
func WithUnicodeNFC(enabled bool) NormalizerOption {
	return func(n *Normalizer) { n.unicodeNF = enabled }
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		noise:   append([]*regexp.Regexp(nil), defaultNoise...),
		patches: make(map[string][]Patch),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ValidatePatterns compiles extra noise patterns and reports the first bad one.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid noise pattern %q: %w", p, err)
		}
	}
	return nil
}

// Clean applies patches, removes noise and collapses whitespace.
func (n *Normalizer) Clean(lawType, raw string) string {
	text := raw
	if n.unicodeNF {
		text = norm.NFC.String(text)
	}
	text = ApplyPatches(text, n.patches[lawType])
	text = strings.Map(asciiSpace, text)

	text = reBlankLine.ReplaceAllString(text, "")
	for _, re := range n.noise {
		text = re.ReplaceAllString(text, "")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reMultiLF.ReplaceAllString(text, "\n")
	text = reSpaces.ReplaceAllString(text, " ")
	return text
}

// asciiSpace folds Unicode spaces (NBSP, ideographic space, ...) into ' ' so
// the ASCII-only \s classes of the patterns see them. Line breaks are kept.
func asciiSpace(r rune) rune {
	if r == '\n' || r == '\r' || r == ' ' {
		return r
	}
	if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) {
		return ' '
	}
	return r
}

// Split cuts cleaned text at case-ordinal marker lines ("12." on its own line)
// and drops the preamble before the first marker.
func Split(cleaned string) []Segment {
	parts := reCaseMarker.Split(cleaned, -1)
	if len(parts) <= 1 {
		return []Segment{}
	}
	segments := make([]Segment, 0, len(parts)-1)
	for i, p := range parts[1:] {
		segments = append(segments, Segment{Number: i + 1, Text: strings.TrimSpace(p)})
	}
	return segments
}

// Normalize cleans and splits one law type's raw text.
func (n *Normalizer) Normalize(lawType, raw string) []Segment {
	return Split(n.Clean(lawType, raw))
}
