package mdexport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mdexport/go-mdexport/internal/fileutil"
)

// Selection picks the documents a Runner call operates on. The three
// strategies are a single buffer, every Markdown file in the open
// workspace folders, and the concatenation of several buffers into
// one document.
type Selection interface {
	sources(workspaceFolders []string) ([]Source, error)
}

type documentSelection struct {
	src Source
}

// SelectDocument converts exactly one source buffer.
func SelectDocument(src Source) Selection {
	return documentSelection{src: src}
}

func (s documentSelection) sources([]string) ([]Source, error) {
	return []Source{s.src}, nil
}

type workspaceSelection struct{}

// SelectWorkspace enumerates every Markdown file under the open
// workspace folders and converts each one.
func SelectWorkspace() Selection {
	return workspaceSelection{}
}

func (workspaceSelection) sources(workspaceFolders []string) ([]Source, error) {
	var found []Source
	for _, folder := range workspaceFolders {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isMarkdownFile(path) {
				return nil
			}
			data, err := os.ReadFile(path) // #nosec G304 -- enumerated workspace file
			if err != nil {
				return err
			}
			found = append(found, Source{Text: string(data), FileName: path})
			return nil
		})
		if err != nil {
			return nil, wrapFileError(err)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no Markdown files in workspace", ErrEmptySelection)
	}
	return found, nil
}

type concatSelection struct {
	srcs []Source
}

// SelectConcat joins several source buffers into one document. The
// result takes the file name of the first titled source.
func SelectConcat(srcs ...Source) Selection {
	return concatSelection{srcs: srcs}
}

func (s concatSelection) sources([]string) ([]Source, error) {
	if len(s.srcs) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrEmptySelection)
	}

	texts := make([]string, 0, len(s.srcs))
	fileName := ""
	for _, src := range s.srcs {
		texts = append(texts, src.Text)
		if fileName == "" {
			fileName = src.FileName
		}
	}
	return []Source{{Text: strings.Join(texts, "\n\n"), FileName: fileName}}, nil
}

func isMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Runner is the top-level conversion sequencer. One Runner lives for
// a host session; each Execute call builds a fresh Document and
// Converter per selected source, fans the configured output types out
// concurrently against that converter, and tears it down exactly
// once. The last interactively entered workspace folder is remembered
// for the session.
type Runner struct {
	settings         *Settings
	workspaceFolders []string
	systemParser     *Parser
	prompter         Prompter
	resources        *Resources
	progress         ProgressFunc
	logger           *slog.Logger

	mu         sync.Mutex
	lastFolder string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkspaceFolders sets the open workspace folders, in order.
func WithWorkspaceFolders(folders []string) RunnerOption {
	return func(r *Runner) { r.workspaceFolders = folders }
}

// WithPrompter sets the interactive fallback for destination paths
// referencing an unknown workspace folder.
func WithPrompter(p Prompter) RunnerOption {
	return func(r *Runner) { r.prompter = p }
}

// WithSystemParser sets the host's shared parser, cloned per
// conversion when the settings select system-parser mode.
func WithSystemParser(p *Parser) RunnerOption {
	return func(r *Runner) { r.systemParser = p }
}

// WithRunnerResources sets the localized string table.
func WithRunnerResources(res *Resources) RunnerOption {
	return func(r *Runner) {
		if res != nil {
			r.resources = res
		}
	}
}

// WithRunnerProgress sets the optional progress side channel.
func WithRunnerProgress(p ProgressFunc) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// WithRunnerLogger sets the structured logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner over a validated settings snapshot.
func NewRunner(settings *Settings, opts ...RunnerOption) (*Runner, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		settings:  settings,
		resources: NewResources(settings.Locale),
		progress:  nopProgress,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Execute converts every document the selection yields. Documents are
// processed in order; output types within one document run
// concurrently.
func (r *Runner) Execute(ctx context.Context, sel Selection) error {
	srcs, err := sel.sources(r.workspaceFolders)
	if err != nil {
		return err
	}
	for _, src := range srcs {
		if err := r.convert(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// convert runs the full pipeline for one source buffer.
func (r *Runner) convert(ctx context.Context, src Source) error {
	types, err := r.settings.Types()
	if err != nil {
		return err
	}
	if len(types) == 0 {
		return nil
	}

	workspaceRoot := r.workspaceFolder(src)

	conv, err := r.LoadConverter(src, workspaceRoot)
	if err != nil {
		return err
	}

	r.progress(r.resources.Get("Progress.Initializing"))
	if err := conv.Initialize(ctx); err != nil {
		return err
	}

	destinations := make([]string, len(types))
	for i, typ := range types {
		dest, err := r.destinationPath(typ, src, workspaceRoot)
		if err != nil {
			_ = conv.Dispose()
			return err
		}
		destinations[i] = dest
	}

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	for i, typ := range types {
		wg.Add(1)
		go func(typ ConversionType, dest string) {
			defer wg.Done()
			err := os.MkdirAll(filepath.Dir(dest), 0o755)
			if err == nil {
				err = conv.Start(ctx, typ, dest)
			}
			if err != nil {
				emu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", typ, err))
				emu.Unlock()
			}
		}(typ, destinations[i])
	}
	wg.Wait()

	if err := conv.Dispose(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConverter maps the settings snapshot onto a new Document plus
// transform chain and wraps them in an uninitialized Converter.
func (r *Runner) LoadConverter(src Source, workspaceRoot string) (*Converter, error) {
	doc, err := r.loadDocument(src)
	if err != nil {
		return nil, err
	}
	return NewConverter(doc, workspaceRoot,
		WithResources(r.resources),
		WithProgress(r.progress),
		WithLogger(r.logger),
	), nil
}

// loadDocument builds the Document for one conversion run: fresh
// parser, front matter split, configured defaults and layout applied.
func (r *Runner) loadDocument(src Source) (*Document, error) {
	doc := NewDocument(r.loadParser())
	doc.FileName = src.FileName

	if err := doc.SetRawContent(src.Text); err != nil {
		return nil, err
	}
	doc.ApplyDefaultAttributes(r.settings.DefaultAttributes)

	s := r.settings
	if s.Quality > 0 {
		doc.Quality = s.Quality
	}
	if s.Locale != "" {
		doc.Locale = s.Locale
	}
	doc.DateFormat = s.DateFormat
	doc.Paper = s.paper()
	doc.HeaderFooterEnabled = s.HeaderFooterEnabled
	doc.Header = NewFragment(doc, s.Header.Content, s.Header.Template)
	doc.Footer = NewFragment(doc, s.Footer.Content, s.Footer.Template)
	doc.StyleSheets = s.StyleSheets
	doc.Scripts = s.Scripts

	if s.TemplatePath != "" {
		tpl, err := os.ReadFile(s.TemplatePath) // #nosec G304 -- user-configured template path
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAsset, s.TemplatePath)
		}
		doc.Template = string(tpl)
	}

	return doc, nil
}

// loadParser builds the transform chain for one conversion: a clone
// of the host's shared parser in system-parser mode, otherwise a
// fresh chain from the settings.
func (r *Runner) loadParser() *Parser {
	if r.settings.UseSystemParser && r.systemParser != nil {
		return r.systemParser.Clone()
	}
	return NewParser(r.settings.parserOptions())
}

// workspaceFolder resolves the workspace context of one source: the
// folder containing a titled document, or the sole open folder for an
// untitled one. Empty when no folder applies.
func (r *Runner) workspaceFolder(src Source) string {
	if src.FileName == "" {
		if len(r.workspaceFolders) == 1 {
			return r.workspaceFolders[0]
		}
		return ""
	}
	for _, folder := range r.workspaceFolders {
		if _, ok := fileutil.RelativeTo(folder, src.FileName); ok {
			return folder
		}
	}
	return ""
}

// destinationPath substitutes the output path template for one output
// type. A substitution failure is treated as a reference to an
// unknown {workspaceFolder}: the folder is prompted for and the
// substitution retried once with it bound. The last entered folder is
// the default for later prompts in the session.
func (r *Runner) destinationPath(typ ConversionType, src Source, workspaceRoot string) (string, error) {
	template := r.settings.OutputPathTemplate
	if template == "" {
		template = DefaultOutputTemplate
	}

	vars := r.templateVars(typ, src, workspaceRoot)
	dest, err := substituteTemplate(template, vars)
	if err == nil {
		return filepath.Clean(dest), nil
	}
	if vars["workspaceFolder"] != "" {
		return "", fmt.Errorf("%w: %v", ErrDestinationTemplate, err)
	}

	folder, perr := r.promptWorkspaceFolder()
	if perr != nil {
		return "", perr
	}
	vars["workspaceFolder"] = folder

	dest, err = substituteTemplate(template, vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDestinationTemplate, err)
	}
	return filepath.Clean(dest), nil
}

// templateVars computes the substitution variables for one output.
func (r *Runner) templateVars(typ ConversionType, src Source, workspaceRoot string) map[string]string {
	dirname := workspaceRoot
	filename := untitledDocumentName + ".md"
	basename := untitledDocumentName
	if src.FileName != "" {
		dirname = filepath.Dir(src.FileName)
		filename = filepath.Base(src.FileName)
		basename = fileutil.StripExtension(filename)
	}
	if dirname == "" {
		dirname = "."
	}

	return map[string]string{
		"dirname":         dirname,
		"filename":        filename,
		"basename":        basename,
		"extension":       typ.Extension(),
		"workspaceFolder": workspaceRoot,
	}
}

// promptWorkspaceFolder asks the host for a folder path, remembering
// the answer as the default for the next prompt.
func (r *Runner) promptWorkspaceFolder() (string, error) {
	if r.prompter == nil {
		return "", fmt.Errorf("%w: no workspace folder known and no prompter configured", ErrDestinationTemplate)
	}

	r.mu.Lock()
	def := r.lastFolder
	r.mu.Unlock()

	folder, err := r.prompter.PromptFolder(r.resources.Get("Prompt.WorkspaceFolder"), def)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptAborted, err)
	}

	r.mu.Lock()
	r.lastFolder = folder
	r.mu.Unlock()
	return folder, nil
}

// substituteTemplate replaces {name} variables, failing on any
// unresolved or unknown variable left in the result.
func substituteTemplate(template string, vars map[string]string) (string, error) {
	out := template
	for name, value := range vars {
		if value == "" {
			continue
		}
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	if start := strings.Index(out, "{"); start >= 0 {
		if end := strings.Index(out[start:], "}"); end > 0 {
			return "", fmt.Errorf("unresolved template variable %s", out[start:start+end+1])
		}
	}
	return out, nil
}
