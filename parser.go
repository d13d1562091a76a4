package mdexport

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	east "github.com/yuin/goldmark-emoji/ast"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// EmojiMode selects how :shortcode: emoji are rendered.
type EmojiMode string

const (
	// EmojiNone leaves the literal markup untouched.
	EmojiNone EmojiMode = "none"
	// EmojiUnicode substitutes the native Unicode character.
	EmojiUnicode EmojiMode = "unicode"
	// EmojiTwemoji renders an <img> with a codepoint-derived URL from
	// the Twemoji CDN.
	EmojiTwemoji EmojiMode = "twemoji"
	// EmojiImage renders an <img> from a user-supplied URL template
	// containing a {code} placeholder.
	EmojiImage EmojiMode = "image"
)

// DefaultHighlightStyle is the chroma style used when none is set.
const DefaultHighlightStyle = "github"

// ParserOptions configures one transform chain instance.
type ParserOptions struct {
	Toc            *TocSettings
	Emoji          EmojiMode
	EmojiImageURL  string // {code} placeholder, EmojiImage mode only
	Highlight      bool
	HighlightStyle string
}

// Parser is the Markdown transform chain: CommonMark + GFM parsing
// with raw HTML passthrough, heading anchors fed by a single shared
// Slugifier, optional TOC expansion, task-list checkboxes, emoji
// substitution, and fenced-code highlighting.
//
// A Parser is stateful (slug counters), so Convert serializes
// concurrent calls internally. Output types of one conversion fan out
// in parallel over the same document; each pass still sees a freshly
// reset slug sequence and produces identical anchor ids.
type Parser struct {
	opts  ParserOptions
	mu    sync.Mutex
	md    goldmark.Markdown
	slugs *Slugifier
}

// NewParser builds a fresh, fully independent transform chain.
func NewParser(opts ParserOptions) *Parser {
	slugs := NewSlugifier()

	extensions := []goldmark.Extender{
		extension.GFM, // tables, strikethrough, autolinks, task lists
		extension.Footnote,
	}

	if opts.Toc != nil {
		extensions = append(extensions, newTocExtension(opts.Toc))
	}

	if ext := emojiExtender(opts); ext != nil {
		extensions = append(extensions, ext)
	}

	if opts.Highlight {
		style := opts.HighlightStyle
		if style == "" {
			style = DefaultHighlightStyle
		}
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithGuessLanguage(true),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(false),
			),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // ids come from the Slugifier via the parse context
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Raw HTML and arbitrary link schemes survive unchanged;
			// documents are trusted local editor content.
			html.WithUnsafe(),
		),
	)

	return &Parser{opts: opts, md: md, slugs: slugs}
}

// Clone returns an independent chain with the same options but fresh
// state. Used for the "system parser" mode so shared instances are
// never mutated by a conversion.
func (p *Parser) Clone() *Parser {
	return NewParser(p.opts)
}

// Convert renders Markdown body text to an HTML fragment. The slug
// counter resets at the start of every call, so anchor ids are
// deterministic per document pass. Concurrent calls are serialized:
// the reset and the parse must observe the slug state atomically.
// Context cancellation is supported via the goroutine + select
// pattern since goldmark has no native context support.
func (p *Parser) Convert(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.slugs.Reset()
		pctx := parser.NewContext(parser.WithIDs(p.slugs))

		var buf bytes.Buffer
		if err := p.md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// emojiExtender maps an EmojiMode onto a goldmark-emoji extender.
// EmojiNone returns nil: the stage is skipped and :codes: stay
// literal.
func emojiExtender(opts ParserOptions) goldmark.Extender {
	switch opts.Emoji {
	case EmojiUnicode:
		return emoji.New(emoji.WithRenderingMethod(emoji.Unicode))
	case EmojiTwemoji:
		return emoji.New(emoji.WithRenderingMethod(emoji.Twemoji))
	case EmojiImage:
		urlTemplate := opts.EmojiImageURL
		if urlTemplate == "" {
			return emoji.New(emoji.WithRenderingMethod(emoji.Unicode))
		}
		return emoji.New(
			emoji.WithRenderingMethod(emoji.Func),
			emoji.WithRendererFunc(func(w util.BufWriter, source []byte, n *east.Emoji, config *emoji.RendererConfig) {
				renderEmojiImage(w, urlTemplate, n)
			}),
		)
	default:
		return nil
	}
}

// renderEmojiImage writes an <img> tag whose URL is derived from the
// emoji's codepoints ("1f44d", "1f1eb-1f1f7", ...).
func renderEmojiImage(w util.BufWriter, urlTemplate string, n *east.Emoji) {
	codes := make([]string, 0, len(n.Value.Unicode))
	for _, r := range n.Value.Unicode {
		codes = append(codes, fmt.Sprintf("%x", r))
	}
	src := strings.ReplaceAll(urlTemplate, "{code}", strings.Join(codes, "-"))
	fmt.Fprintf(w, `<img class="emoji" draggable="false" alt="%s" src="%s"/>`,
		util.EscapeHTML([]byte(string(n.Value.Unicode))), util.EscapeHTML([]byte(src)))
}
