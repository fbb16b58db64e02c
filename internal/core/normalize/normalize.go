// Package normalize provides a deterministic folder for recognized frame text
// Pipeline order
// 1 Control/artifact sanitize drop recognizer garbage bytes
// 2 UTF-8 repair drop invalid bytes and replacement runes
// 3 Unicode NFKC normalization
// 4 Case folding
// 5 Remove zero-width and combining marks
// 6 Width fold fullwidth to ASCII
// 7 Collapse all whitespace to single spaces and trim
// Digit/letter confusions the recognizer produces (0/o, 1/l, 5/s) are NOT
// folded here; matching uses the Confusable projection for that
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct{}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the folded form of recognized text following the
// pipeline described above
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)

	// repair UTF-8; drop both invalid bytes and replacement runes the
	// recognizer emits on unreadable glyphs
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "�", "")

	// transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// collapse whitespace and trim
	ns = collapseSpaces(ns)

	return ns
}

// collapseSpaces converts any whitespace run, newlines included, to a single
// ASCII space and trims the edges. Recognized text is matched as one line
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
