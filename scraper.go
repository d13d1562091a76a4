package mdexport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mdexport/go-mdexport/internal/fileutil"
)

// scrapeFetchTimeout bounds a single resource fetch.
const scrapeFetchTimeout = 30 * time.Second

// assetSelectors are the element/attribute pairs that form the
// captured resource graph.
var assetSelectors = []struct {
	selector string
	attr     string
}{
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"source[src]", "src"},
}

// contentTypeExtensions names resources whose URL path carries no
// usable extension.
var contentTypeExtensions = map[string]string{
	"text/css":               "css",
	"text/html":              "html",
	"text/javascript":        "js",
	"application/javascript": "js",
	"image/png":              "png",
	"image/jpeg":             "jpg",
	"image/gif":              "gif",
	"image/svg+xml":          "svg",
	"font/woff2":             "woff2",
	"font/woff":              "woff",
}

// siteScraper captures a served document and its local resource graph
// into a directory, producing the self-contained export. It plugs
// three behaviors into the capture: the document's own URL is always
// answered with the in-memory rendered HTML (keeping the snapshot
// self-consistent even if served content changes mid-scrape),
// HTML-typed resources are re-fetched through a dedicated browser to
// capture the post-JS DOM, and generated filenames are namespaced
// under the website name with de-duplication.
type siteScraper struct {
	docHTML  string // in-memory rendered document
	docURL   string // the document's own top-level URL
	siteName string // root file name without extension

	client  *http.Client
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *slog.Logger

	claimed map[string]bool // filenames already generated in this scrape
}

func newSiteScraper(docHTML, docURL, siteName string, logger *slog.Logger) *siteScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &siteScraper{
		docHTML:  docHTML,
		docURL:   docURL,
		siteName: siteName,
		client:   &http.Client{Timeout: scrapeFetchTimeout},
		logger:   logger,
		claimed:  map[string]bool{},
	}
}

// exportSelfContained scrapes the live served URL into a temporary
// directory, moves everything into the destination's parent, renames
// the root HTML file to the requested destination name, and removes
// the temporary directory.
func (c *Converter) exportSelfContained(ctx context.Context, destinationPath string) error {
	html, err := c.doc.Render(ctx)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "mdexport-scrape-")
	if err != nil {
		return wrapFileError(err)
	}
	defer os.RemoveAll(tmp)

	siteName := fileutil.StripExtension(filepath.Base(destinationPath))
	s := newSiteScraper(html, c.url, siteName, c.logger)
	if err := s.scrape(ctx, tmp); err != nil {
		return err
	}

	return moveScrapeOutput(tmp, filepath.Dir(destinationPath),
		siteName+".html", filepath.Base(destinationPath))
}

// scrape captures the document and its resources into outDir.
func (s *siteScraper) scrape(ctx context.Context, outDir string) error {
	// The scraper drives its own navigation, so it gets a browser
	// instance separate from the converter's, with the same sandbox
	// fallback.
	browser, lnch, err := launchBrowser()
	if err != nil {
		return err
	}
	s.browser = browser
	s.lnch = lnch
	defer func() {
		_ = s.browser.Close()
		s.lnch.Cleanup()
	}()

	base, err := url.Parse(s.docURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.docHTML))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	s.claimed[s.siteName+".html"] = true

	for _, sel := range assetSelectors {
		var selErr error
		doc.Find(sel.selector).Each(func(_ int, el *goquery.Selection) {
			if selErr != nil || ctx.Err() != nil {
				return
			}
			ref, _ := el.Attr(sel.attr)
			local, err := s.captureResource(ctx, base, ref, outDir)
			if err != nil {
				selErr = err
				return
			}
			if local != "" {
				el.SetAttr(sel.attr, local)
			}
		})
		if selErr != nil {
			return selErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	rewritten, err := doc.Html()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	rootPath := filepath.Join(outDir, s.siteName+".html")
	if err := os.WriteFile(rootPath, []byte(rewritten), 0o644); err != nil {
		return wrapFileError(err)
	}
	return nil
}

// captureResource fetches one referenced resource and writes it under
// outDir, returning the rewritten local reference. Resources outside
// the served host, and unreachable ones, are left untouched.
func (s *siteScraper) captureResource(ctx context.Context, base *url.URL, ref, outDir string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") {
		return "", nil
	}
	target, err := base.Parse(ref)
	if err != nil || target.Host != base.Host {
		return "", nil
	}

	body, contentType, err := s.fetch(ctx, target.String())
	if err != nil {
		s.logger.Debug("skipping unreachable resource", "url", target.String(), "error", err)
		return "", nil
	}

	name := s.generateFilename(target, contentType)
	full := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", wrapFileError(err)
	}
	if err := os.WriteFile(full, body, 0o644); err != nil {
		return "", wrapFileError(err)
	}
	return name, nil
}

// fetch retrieves a resource. The document's own URL is substituted
// with the in-memory HTML; other HTML responses are re-fetched
// through the dedicated browser so scripts have run; everything else
// passes through as raw bytes.
func (s *siteScraper) fetch(ctx context.Context, target string) ([]byte, string, error) {
	if target == s.docURL {
		return []byte(s.docHTML), "text/html", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/html") {
		rendered, err := s.fetchRendered(ctx, target)
		if err != nil {
			return nil, "", err
		}
		return []byte(rendered), contentType, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// fetchRendered loads an HTML resource in the dedicated browser and
// returns the post-JS DOM.
func (s *siteScraper) fetchRendered(ctx context.Context, target string) (string, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()
	page = page.Context(ctx)

	waitIdle := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(target); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitIdle()

	return page.HTML()
}

// generateFilename produces the local name for a captured resource.
// The root document gets the website name itself; every other
// resource is namespaced under a directory named after the website
// (without extension) so multiple exports can share a directory.
// Names already claimed in this scrape get a numeric suffix.
func (s *siteScraper) generateFilename(target *url.URL, contentType string) string {
	if target.String() == s.docURL {
		return s.siteName + ".html"
	}

	base := path.Base(target.Path)
	if base == "" || base == "." || base == "/" {
		base = "resource"
	}
	if path.Ext(base) == "" {
		if ext, ok := contentTypeExtensions[strings.TrimSpace(strings.Split(contentType, ";")[0])]; ok {
			base += "." + ext
		}
	}

	name := path.Join(s.siteName, base)
	if !s.claimed[name] {
		s.claimed[name] = true
		return name
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		candidate := path.Join(s.siteName, stem+"_"+strconv.Itoa(i)+ext)
		if !s.claimed[candidate] {
			s.claimed[candidate] = true
			return candidate
		}
	}
}

// moveScrapeOutput moves every produced file and subdirectory from
// the scrape directory into destDir, renaming the root HTML file to
// the requested destination name.
func moveScrapeOutput(scrapeDir, destDir, rootName, destName string) error {
	entries, err := os.ReadDir(scrapeDir)
	if err != nil {
		return wrapFileError(err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return wrapFileError(err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == rootName {
			name = destName
		}
		src := filepath.Join(scrapeDir, entry.Name())
		dst := filepath.Join(destDir, name)
		if err := moveEntry(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// moveEntry renames src to dst, falling back to copy+remove when the
// two paths live on different filesystems.
func moveEntry(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// copyTree recursively copies a file or directory.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return wrapFileError(err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(src) // #nosec G304 -- scrape-internal path
		if err != nil {
			return wrapFileError(err)
		}
		if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
			return wrapFileError(err)
		}
		return nil
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return wrapFileError(err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return wrapFileError(err)
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
