package mdexport

import (
	"bytes"
	"regexp"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultTocIndicator matches the conventional [[toc]] marker on a
// line of its own.
const DefaultTocIndicator = `^\[\[toc\]\]$`

// TocSettings configures table-of-contents expansion.
type TocSettings struct {
	Class     string // CSS class of the generated container
	Levels    []int  // heading depths to include (1-6)
	Indicator string // regex marking the insertion point
	Ordered   bool   // ordered vs unordered list
}

// DefaultTocSettings includes levels 1-3 under an unordered list.
func DefaultTocSettings() *TocSettings {
	return &TocSettings{
		Class:     "table-of-contents",
		Levels:    []int{1, 2, 3},
		Indicator: DefaultTocIndicator,
	}
}

// tocExtension wires the TOC transformer into a goldmark instance.
type tocExtension struct {
	settings *TocSettings
}

func newTocExtension(settings *TocSettings) goldmark.Extender {
	return &tocExtension{settings: settings}
}

func (e *tocExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		// Low priority: runs after heading ids are assigned.
		util.Prioritized(&tocTransformer{settings: e.settings}, 900),
	))
}

// headingRef is one collected heading with its anchor id.
type headingRef struct {
	level int
	id    string
	text  string
}

// tocTransformer replaces the indicator paragraph with a nested list
// of links to the document's headings. Link targets reuse the ids the
// Slugifier already assigned during parsing, so TOC entries and
// heading anchors always agree, duplicates included.
type tocTransformer struct {
	settings *TocSettings
}

// Transform implements parser.ASTTransformer. Missing or malformed
// optional configuration skips the stage, never fails the render.
func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	if t.settings == nil || len(t.settings.Levels) == 0 {
		return
	}

	pattern := t.settings.Indicator
	if pattern == "" {
		pattern = DefaultTocIndicator
	}
	indicator, err := regexp.Compile(pattern)
	if err != nil {
		return
	}

	source := reader.Source()

	marker := findIndicator(doc, source, indicator)
	if marker == nil {
		return
	}

	headings := collectHeadings(doc, source, t.settings.Levels)
	if len(headings) == 0 {
		marker.Parent().RemoveChild(marker.Parent(), marker)
		return
	}

	list := buildTocList(headings, t.settings)
	marker.Parent().ReplaceChild(marker.Parent(), marker, list)
}

// findIndicator returns the first top-level paragraph whose raw text
// matches the indicator pattern.
func findIndicator(doc *ast.Document, source []byte, indicator *regexp.Regexp) ast.Node {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		p, ok := n.(*ast.Paragraph)
		if !ok {
			continue
		}
		if indicator.Match(bytes.TrimSpace(paragraphText(p, source))) {
			return p
		}
	}
	return nil
}

// paragraphText concatenates the raw source lines of a paragraph.
func paragraphText(p *ast.Paragraph, source []byte) []byte {
	var out []byte
	lines := p.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}

// collectHeadings walks the document for headings whose level is in
// the configured set and which carry an anchor id.
func collectHeadings(doc *ast.Document, source []byte, levels []int) []headingRef {
	included := make(map[int]bool, len(levels))
	for _, l := range levels {
		included[l] = true
	}

	var refs []headingRef
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || !included[h.Level] {
			return ast.WalkContinue, nil
		}
		id, ok := h.AttributeString("id")
		if !ok {
			return ast.WalkContinue, nil
		}
		idBytes, ok := id.([]byte)
		if !ok {
			return ast.WalkContinue, nil
		}
		refs = append(refs, headingRef{
			level: h.Level,
			id:    string(idBytes),
			text:  string(headingText(h, source)),
		})
		return ast.WalkContinue, nil
	})
	return refs
}

// headingText extracts the plain text of a heading, ignoring inline
// markup.
func headingText(h *ast.Heading, source []byte) []byte {
	var out []byte
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			out = append(out, t.Segment.Value(source)...)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// buildTocList nests list items by the rank of each heading level
// within the configured set, so levels {2,4} still produce a two-deep
// list without empty intermediate layers.
func buildTocList(headings []headingRef, settings *TocSettings) *ast.List {
	ranks := levelRanks(settings.Levels)

	root := newTocLevelList(settings.Ordered)
	if settings.Class != "" {
		root.SetAttributeString("class", []byte(settings.Class))
	}

	stack := []*ast.List{root}

	for _, h := range headings {
		depth := ranks[h.level] // 0-based nesting depth

		for len(stack)-1 > depth {
			stack = stack[:len(stack)-1]
		}
		for len(stack)-1 < depth {
			top := stack[len(stack)-1]
			parentItem, ok := top.LastChild().(*ast.ListItem)
			if !ok {
				// Leading heading deeper than the shallowest level:
				// anchor the sublist in a bare item.
				parentItem = ast.NewListItem(0)
				top.AppendChild(top, parentItem)
			}
			sub := newTocLevelList(settings.Ordered)
			parentItem.AppendChild(parentItem, sub)
			stack = append(stack, sub)
		}

		item := ast.NewListItem(0)
		block := ast.NewTextBlock()
		link := ast.NewLink()
		link.Destination = []byte("#" + h.id)
		link.AppendChild(link, ast.NewString([]byte(h.text)))
		block.AppendChild(block, link)
		item.AppendChild(item, block)
		stack[len(stack)-1].AppendChild(stack[len(stack)-1], item)
	}

	return root
}

// levelRanks maps each configured heading level to its 0-based rank.
func levelRanks(levels []int) map[int]int {
	sorted := append([]int(nil), levels...)
	sort.Ints(sorted)
	ranks := make(map[int]int, len(sorted))
	for i, l := range sorted {
		ranks[l] = i
	}
	return ranks
}

// newTocLevelList creates one list layer with the configured type.
func newTocLevelList(ordered bool) *ast.List {
	marker := byte('-')
	if ordered {
		marker = '.'
	}
	l := ast.NewList(marker)
	if ordered {
		l.Start = 1
	}
	l.IsTight = true
	return l
}
