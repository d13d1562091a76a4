package mdexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/goccy/go-yaml"

	"github.com/mdexport/go-mdexport/internal/dateutil"
	"github.com/mdexport/go-mdexport/internal/fileutil"
	"github.com/mdexport/go-mdexport/internal/yamlutil"
)

// frontMatterFence delimits the YAML block at the top of a document.
const frontMatterFence = "---"

// DefaultQuality is the JPEG compression quality when unset.
const DefaultQuality = 90

// DefaultTemplate is the minimal HTML shell used when no custom
// template is configured. The three triple-stash placeholders are the
// template contract: resolved styles, rendered body, resolved scripts.
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{{styles}}}
</head>
<body>
{{{content}}}
{{{scripts}}}
</body>
</html>`

// Document owns one Markdown source, its front-matter attributes, and
// the layout settings for a single conversion run. A Document is
// constructed once per request, mutated by the Runner to apply
// configuration, then read by the Converter during rendering. It is
// not reused across requests because the attached parser is stateful.
type Document struct {
	content    string
	attributes yaml.MapSlice

	Quality             int    // JPEG compression, 0-100
	Locale              string // culture identifier for date formatting
	DateFormat          string // named preset or literal pattern
	Paper               Paper
	HeaderFooterEnabled bool
	Header              *Fragment
	Footer              *Fragment
	Template            string
	StyleSheets         []string // URLs or absolute file paths
	Scripts             []string
	FileName            string // empty for untitled in-memory documents

	parser *Parser
}

// NewDocument creates a Document bound to its own transform chain.
func NewDocument(parser *Parser) *Document {
	d := &Document{
		Quality:  DefaultQuality,
		Locale:   dateutil.DefaultLocale,
		Paper:    DefaultPaper(),
		Template: DefaultTemplate,
		parser:   parser,
	}
	d.Header = &Fragment{owner: d}
	d.Footer = &Fragment{owner: d}
	return d
}

// Content returns the Markdown body with front matter stripped.
func (d *Document) Content() string { return d.content }

// SetContent replaces the Markdown body, keeping attributes.
func (d *Document) SetContent(content string) { d.content = content }

// Attributes returns the ordered front-matter mapping.
func (d *Document) Attributes() yaml.MapSlice { return d.attributes }

// SetRawContent splits source text into YAML front matter and body.
// A malformed YAML block is a hard error wrapping ErrFrontMatter;
// absence of front matter is not.
func (d *Document) SetRawContent(raw string) error {
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")

	block, body, ok := splitFrontMatter(raw)
	if !ok {
		d.attributes = nil
		d.content = raw
		return nil
	}

	attrs, err := yamlutil.UnmarshalOrdered([]byte(block))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	d.attributes = attrs
	d.content = body
	return nil
}

// RawContent re-serializes the attributes as YAML front matter
// followed by the body. SetRawContent then RawContent round-trips all
// attributes and content modulo YAML formatting.
func (d *Document) RawContent() (string, error) {
	if len(d.attributes) == 0 {
		return d.content, nil
	}
	out, err := yamlutil.Marshal(d.attributes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	return frontMatterFence + "\n" + string(out) + frontMatterFence + "\n" + d.content, nil
}

// ApplyDefaultAttributes appends configured defaults for keys the
// front matter does not set.
func (d *Document) ApplyDefaultAttributes(defaults yaml.MapSlice) {
	for _, item := range defaults {
		if !d.hasAttribute(item.Key) {
			d.attributes = append(d.attributes, item)
		}
	}
}

func (d *Document) hasAttribute(key any) bool {
	for _, item := range d.attributes {
		if item.Key == key {
			return true
		}
	}
	return false
}

// RenderText runs content through the transform chain, then
// substitutes front-matter attributes into the resulting HTML using
// moustache-style interpolation. Date-typed attributes are formatted
// with the document's locale and date format first.
func (d *Document) RenderText(ctx context.Context, content string) (string, error) {
	htmlOut, err := d.parser.Convert(ctx, content)
	if err != nil {
		return "", err
	}

	rendered, err := raymond.Render(htmlOut, d.attributeContext())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return rendered, nil
}

// Render produces the full HTML page: resolved stylesheets and
// scripts substituted with the rendered body into the template.
// Calling Render twice on an unmodified document yields identical
// output; header, footer, and body rendering all read the same
// attribute snapshot.
func (d *Document) Render(ctx context.Context) (string, error) {
	styles, err := resolveAssets(d.StyleSheets, styleRefTag, styleInlineTag)
	if err != nil {
		return "", err
	}
	scripts, err := resolveAssets(d.Scripts, scriptRefTag, scriptInlineTag)
	if err != nil {
		return "", err
	}

	body, err := d.RenderText(ctx, d.content)
	if err != nil {
		return "", err
	}

	tctx := d.attributeContext()
	tctx["styles"] = raymond.SafeString(styles)
	tctx["content"] = raymond.SafeString(body)
	tctx["scripts"] = raymond.SafeString(scripts)

	page, err := raymond.Render(d.templateOrDefault(), tctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return page, nil
}

func (d *Document) templateOrDefault() string {
	if d.Template == "" {
		return DefaultTemplate
	}
	return d.Template
}

// attributeContext flattens the ordered attributes into a string map
// for interpolation. Later duplicate keys win, matching YAML
// semantics.
func (d *Document) attributeContext() map[string]any {
	ctx := make(map[string]any, len(d.attributes))
	for _, item := range d.attributes {
		key := fmt.Sprintf("%v", item.Key)
		ctx[key] = d.formatAttribute(item.Value)
	}
	return ctx
}

// formatAttribute renders one attribute value for substitution.
// Dates honor the document locale and date format; everything else
// uses its natural string form.
func (d *Document) formatAttribute(v any) string {
	switch val := v.(type) {
	case time.Time:
		s, err := dateutil.Format(val, d.DateFormat, d.Locale)
		if err != nil {
			return val.Format("2006-01-02")
		}
		return s
	case string:
		// YAML leaves bare dates as strings; honor the document's
		// date format for them too.
		if ts, err := time.Parse("2006-01-02", val); err == nil {
			if s, err := dateutil.Format(ts, d.DateFormat, d.Locale); err == nil {
				return s
			}
		}
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Asset tag builders for stylesheet/script resolution.
func styleRefTag(ref string) string {
	return `<link rel="stylesheet" href="` + ref + `"/>`
}

func styleInlineTag(content string) string {
	return "<style>\n" + content + "\n</style>"
}

func scriptRefTag(ref string) string {
	return `<script src="` + ref + `"></script>`
}

func scriptInlineTag(content string) string {
	return "<script>\n" + content + "\n</script>"
}

// resolveAssets turns the ordered asset list into HTML tags. URLs and
// relative paths become references; filesystem-absolute paths are
// inlined. A missing local file is a hard error naming the path.
func resolveAssets(entries []string, refTag, inlineTag func(string) string) (string, error) {
	var b strings.Builder
	for i, entry := range entries {
		if entry == "" {
			continue
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		if fileutil.IsURL(entry) || !filepath.IsAbs(entry) {
			b.WriteString(refTag(entry))
			continue
		}
		content, err := os.ReadFile(entry) // #nosec G304 -- user-configured asset path
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrMissingAsset, entry)
		}
		b.WriteString(inlineTag(string(content)))
	}
	return b.String(), nil
}

// Fragment is a sub-renderable (header or footer) that delegates its
// Markdown and template rendering back through the owning Document's
// transform chain, so front-matter attributes substitute inside
// header and footer templates too.
type Fragment struct {
	Content  string // Markdown content of the fragment
	Template string // optional HTML shell with a {{{content}}} placeholder

	owner *Document
}

// NewFragment binds a fragment to its owning document.
func NewFragment(owner *Document, content, template string) *Fragment {
	return &Fragment{Content: content, Template: template, owner: owner}
}

// Render produces the fragment's HTML through the owner's chain.
func (f *Fragment) Render(ctx context.Context) (string, error) {
	body, err := f.owner.RenderText(ctx, f.Content)
	if err != nil {
		return "", err
	}
	if f.Template == "" {
		return body, nil
	}

	tctx := f.owner.attributeContext()
	tctx["content"] = raymond.SafeString(body)
	out, err := raymond.Render(f.Template, tctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return out, nil
}

// splitFrontMatter returns the YAML block and the remaining body when
// raw starts with a front-matter fence.
func splitFrontMatter(raw string) (block, body string, ok bool) {
	if !strings.HasPrefix(raw, frontMatterFence+"\n") && raw != frontMatterFence {
		return "", "", false
	}
	rest := strings.TrimPrefix(raw, frontMatterFence+"\n")
	if idx := strings.Index(rest, "\n"+frontMatterFence+"\n"); idx >= 0 {
		return rest[:idx+1], rest[idx+len(frontMatterFence)+2:], true
	}
	if strings.HasSuffix(rest, "\n"+frontMatterFence) {
		return rest[:len(rest)-len(frontMatterFence)-1], "", true
	}
	return "", "", false
}
