package mdexport

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a heading produces no usable characters.
const fallbackSlug = "section"

// Slugifier generates unique, URL-safe anchor ids from heading text.
// Duplicate base slugs within one reset epoch get a numeric suffix
// starting at -2. A single Slugifier instance is shared between the
// heading-anchor generator and the TOC generator so both observe one
// slug sequence per document pass.
//
// Slugifier implements goldmark's parser.IDs, which is how it is
// plugged into the parse context.
//
// Not safe for concurrent use; each conversion builds its own parser
// and therefore its own Slugifier.
type Slugifier struct {
	seen map[string]int
}

// NewSlugifier creates a Slugifier with an empty collision history.
func NewSlugifier() *Slugifier {
	return &Slugifier{seen: map[string]int{}}
}

// CreateSlug returns a lowercase, hyphen-separated, ASCII identifier
// for text. The Nth occurrence of the same base text yields
// "<base>-N" for N >= 2.
func (s *Slugifier) CreateSlug(text string) string {
	base := slugify(text)
	n := s.seen[base] + 1
	s.seen[base] = n
	if n == 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// Reset clears the collision history so the next parse pass produces
// slugs deterministic for that document alone.
func (s *Slugifier) Reset() {
	s.seen = map[string]int{}
}

// Generate implements parser.IDs for goldmark heading id assignment.
func (s *Slugifier) Generate(value []byte, kind ast.NodeKind) []byte {
	return []byte(s.CreateSlug(string(value)))
}

// Put implements parser.IDs. Explicit ids are not recycled.
func (s *Slugifier) Put(value []byte) {}

// asciiFold strips combining marks after NFD decomposition, which
// transliterates most accented Latin text ("é" -> "e").
var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// slugify lowercases text, transliterates it to ASCII, and collapses
// every run of non-alphanumeric characters into a single hyphen.
func slugify(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}
