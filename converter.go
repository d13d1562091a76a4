package mdexport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mdexport/go-mdexport/internal/fileutil"
)

// converterState tracks the Converter lifecycle.
type converterState int

const (
	stateUninitialized converterState = iota
	stateInitialized
	stateDisposed
)

func (s converterState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateDisposed:
		return "disposed"
	}
	return "unknown"
}

// untitledDocumentName addresses in-memory documents on the server.
const untitledDocumentName = "index"

// basePrintCSS pins the base font size for printed output so PDF
// dimensions don't depend on browser defaults.
const basePrintCSS = "html { font-size: 14px; }"

// fragmentBaseStyle prefixes header and footer templates. Chrome
// renders print fragments with zero font size unless told otherwise.
const fragmentBaseStyle = `<style>#header, #footer { font-size: 9px; margin: 0; padding: 0 1cm; width: 100%; }</style>`

// Converter owns the conversion resource lifecycle: one static file
// server plus one headless browser, shared by every output type of a
// single document conversion. The state machine is strict:
//
//	Uninitialized --Initialize--> Initialized --Dispose--> Disposed
//
// Start is only valid while Initialized. Re-initializing an already
// initialized or disposed instance is a contract violation.
type Converter struct {
	mu    sync.Mutex
	state converterState

	doc           *Document
	workspaceRoot string // empty when no workspace folder is known

	resources *Resources
	progress  ProgressFunc
	logger    *slog.Logger

	web     *webServer
	browser *rod.Browser
	lnch    *launcher.Launcher
	port    int
	url     string
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithResources sets the localized string table.
func WithResources(r *Resources) ConverterOption {
	return func(c *Converter) { c.resources = r }
}

// WithProgress sets the optional progress side channel.
func WithProgress(p ProgressFunc) ConverterOption {
	return func(c *Converter) {
		if p != nil {
			c.progress = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ConverterOption {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConverter creates a Converter in the Uninitialized state. The
// document is owned by the converter for the duration of the run and
// read-only during rendering.
func NewConverter(doc *Document, workspaceRoot string, opts ...ConverterOption) *Converter {
	c := &Converter{
		doc:           doc,
		workspaceRoot: workspaceRoot,
		resources:     NewResources("en-US"),
		progress:      nopProgress,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the served document URL, empty unless Initialized.
func (c *Converter) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// PortNumber returns the bound port, zero unless Initialized.
func (c *Converter) PortNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// Initialize picks a free port, starts the file server, and launches
// the headless browser. Must be called exactly once.
func (c *Converter) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateUninitialized {
		return fmt.Errorf("%w: cannot initialize a %s converter", ErrConverterState, c.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	web, err := startWebServer(c.serveRoot())
	if err != nil {
		return err
	}

	browser, lnch, err := launchBrowser()
	if err != nil {
		_ = web.Close()
		return err
	}

	c.web = web
	c.browser = browser
	c.lnch = lnch
	c.port = web.port
	c.url = c.documentURL(web.port)
	c.state = stateInitialized

	c.logger.Debug("converter initialized", "port", c.port, "url", c.url)
	return nil
}

// Start converts the document to one output type at destinationPath.
// Safe to call concurrently for different types: each call opens its
// own browser page against the shared browser and server.
func (c *Converter) Start(ctx context.Context, typ ConversionType, destinationPath string) error {
	c.mu.Lock()
	if c.state != stateInitialized {
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot start a %s converter", ErrConverterState, c.state)
	}
	c.mu.Unlock()

	c.progress(c.resources.Get("Progress.ConversionStarting", string(typ)))

	var err error
	switch typ {
	case TypeHTML:
		err = c.writeRendered(ctx, destinationPath)
	case TypeSelfContainedHTML:
		err = c.exportSelfContained(ctx, destinationPath)
	case TypeJPEG, TypePNG, TypePDF:
		err = c.capture(ctx, typ, destinationPath)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if err != nil {
		return err
	}

	c.progress(c.resources.Get("Progress.ConversionDone", destinationPath))
	return nil
}

// Dispose closes the browser, then the server, and transitions to
// Disposed unconditionally. A second Dispose is a no-op that leaves
// the state Disposed.
func (c *Converter) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateDisposed {
		return nil
	}

	var errs []error
	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		c.browser = nil
	}
	if c.lnch != nil {
		c.lnch.Cleanup()
		c.lnch = nil
	}
	if c.web != nil {
		if err := c.web.Close(); err != nil {
			errs = append(errs, err)
		}
		c.web = nil
	}
	c.port = 0
	c.url = ""
	c.state = stateDisposed

	return errors.Join(errs...)
}

// serveRoot picks the directory the file server exposes: the
// workspace root, else the document's own directory, else the
// working directory.
func (c *Converter) serveRoot() string {
	if c.workspaceRoot != "" {
		return c.workspaceRoot
	}
	if c.doc != nil && c.doc.FileName != "" {
		return filepath.Dir(c.doc.FileName)
	}
	return "."
}

// documentURL computes the served URL of the document: its path
// relative to the serve root ("index" when untitled), with .html
// appended.
func (c *Converter) documentURL(port int) string {
	name := untitledDocumentName
	if c.doc != nil && c.doc.FileName != "" {
		if rel, ok := fileutil.RelativeTo(c.serveRoot(), c.doc.FileName); ok {
			name = rel
		} else {
			name = filepath.Base(c.doc.FileName)
		}
	}
	return fmt.Sprintf("http://localhost:%d/%s.html", port, name)
}

// writeRendered renders the full page and writes it to disk.
func (c *Converter) writeRendered(ctx context.Context, destinationPath string) error {
	page, err := c.doc.Render(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destinationPath, []byte(page), 0o644); err != nil {
		return wrapFileError(err)
	}
	return nil
}

// capture drives a browser page to rasterize the document. The
// hijack for the document's own URL is registered before navigation
// begins so the first request is always answered from memory; every
// later request falls through to the network.
func (c *Converter) capture(ctx context.Context, typ ConversionType, destinationPath string) error {
	html, err := c.doc.Render(ctx)
	if err != nil {
		return err
	}

	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()
	page = page.Context(ctx)

	router := page.HijackRequests()
	served := false
	err = router.Add(c.url, proto.NetworkResourceTypeDocument, func(h *rod.Hijack) {
		if !served {
			served = true
			h.Response.SetHeader("Content-Type", "text/html; charset=utf-8")
			h.Response.SetBody(html)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	waitIdle := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(c.url); err != nil {
		return wrapFileError(fmt.Errorf("%w: %v", ErrPageLoad, err))
	}
	waitIdle()

	var output []byte
	switch typ {
	case TypePDF:
		output, err = c.printPDF(ctx, page)
	case TypeJPEG:
		quality := c.doc.Quality
		output, err = page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: &quality,
		})
	case TypePNG:
		// PNG is lossless; the quality field only applies to JPEG.
		output, err = page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
	}
	if err != nil {
		return wrapFileError(fmt.Errorf("%w: %v", ErrCapture, err))
	}

	if err := os.WriteFile(destinationPath, output, 0o644); err != nil {
		return wrapFileError(err)
	}
	return nil
}

// printPDF applies page margins and format, pins the base font size,
// and renders header/footer fragments when enabled.
func (c *Converter) printPDF(ctx context.Context, page *rod.Page) ([]byte, error) {
	opts, err := c.doc.Paper.Resolve()
	if err != nil {
		return nil, err
	}

	if _, err := page.Eval(`(css) => {
		const s = document.createElement('style');
		s.textContent = css;
		document.head.appendChild(s);
	}`, basePrintCSS); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}

	pdfOpts := &proto.PagePrintToPDF{
		Landscape:       opts.Landscape,
		PaperWidth:      &opts.Width,
		PaperHeight:     &opts.Height,
		MarginTop:       &opts.MarginTop,
		MarginRight:     &opts.MarginRight,
		MarginBottom:    &opts.MarginBottom,
		MarginLeft:      &opts.MarginLeft,
		PrintBackground: true,
	}

	if c.doc.HeaderFooterEnabled {
		header, err := c.doc.Header.Render(ctx)
		if err != nil {
			return nil, err
		}
		footer, err := c.doc.Footer.Render(ctx)
		if err != nil {
			return nil, err
		}
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = fragmentBaseStyle + `<div id="header">` + header + `</div>`
		pdfOpts.FooterTemplate = fragmentBaseStyle + `<div id="footer">` + footer + `</div>`
	}

	reader, err := page.PDF(pdfOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return io.ReadAll(reader)
}

// launchBrowser starts a headless browser, retrying once without the
// sandbox: restricted containers often cannot create one but run fine
// unsandboxed. Failure of both attempts is fatal.
func launchBrowser() (*rod.Browser, *launcher.Launcher, error) {
	l := newLauncher(false)
	u, err := l.Launch()
	if err != nil {
		l = newLauncher(true)
		u, err = l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
		}
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return browser, l, nil
}

// newLauncher builds a headless launcher, honoring a pre-installed
// browser binary for containerized environments.
func newLauncher(noSandbox bool) *launcher.Launcher {
	l := launcher.New().Headless(true)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if noSandbox {
		l = l.NoSandbox(true)
	}
	return l
}

// wrapFileError re-wraps errors that carry a filesystem path as a
// file-access error naming that path; everything else passes through.
func wrapFileError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %s: %v", ErrFileAccess, pathErr.Path, err)
	}
	return err
}
