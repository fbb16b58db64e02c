package normalize

import (
	"strings"
	"unicode"
)

// Projections bundles alternate views of a folded string so matchers can
// tolerate recognizer noise without loosening their patterns
type Projections struct {
	Base       string // output of Normalizer.Normalize (what matchers see first)
	Bare       string // letters/digits/spaces only, stray punctuation dropped
	Confusable string // Bare with common digit/letter misreads folded to letters
}

// BuildProjections constructs Projections from a folded string.
// Single pass each, safe to call per probe
func BuildProjections(base string) Projections {
	bare := stripPunct(base)
	return Projections{
		Base:       base,
		Bare:       bare,
		Confusable: confusableFold(bare),
	}
}

// confusableFold maps the digit/symbol misreads OCR makes on pixel fonts to
// the letters they stand in for
func confusableFold(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '0':
			b.WriteRune('o')
		case '1', '|':
			b.WriteRune('l')
		case '5':
			b.WriteRune('s')
		case '8':
			b.WriteRune('b')
		case '2':
			b.WriteRune('z')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripPunct keeps letters, digits and single spaces; quotes and other
// recognizer artifacts around names disappear
func stripPunct(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r == ' ':
			pendingSpace = true
		}
	}
	return b.String()
}
