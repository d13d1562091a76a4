package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mdexport "github.com/mdexport/go-mdexport"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
)

// runConvert orchestrates a conversion run over the positional inputs.
func runConvert(ctx context.Context, args []string, flags *convertFlags) error {
	settings := mdexport.DefaultSettings()
	if flags.common.config != "" {
		loaded, err := mdexport.LoadSettings(flags.common.config)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		settings = loaded
	}

	// CLI flags win over the settings file.
	mergeFlags(flags, settings)

	opts := []mdexport.RunnerOption{
		mdexport.WithWorkspaceFolders(flags.workspace),
		mdexport.WithPrompter(stdinPrompter()),
	}
	if !flags.common.quiet {
		opts = append(opts, mdexport.WithRunnerProgress(func(message string) {
			fmt.Fprintln(os.Stderr, message)
		}))
	}

	runner, err := mdexport.NewRunner(settings, opts...)
	if err != nil {
		return err
	}

	selections, err := buildSelections(args, flags)
	if err != nil {
		return err
	}

	for _, sel := range selections {
		if err := runner.Execute(ctx, sel); err != nil {
			return err
		}
	}
	return nil
}

// mergeFlags overlays explicitly set CLI flags onto the settings.
func mergeFlags(flags *convertFlags, settings *mdexport.Settings) {
	if len(flags.output.types) > 0 {
		settings.ConversionTypes = flags.output.types
	}
	if flags.output.template != "" {
		settings.OutputPathTemplate = flags.output.template
	}

	if flags.layout.paperFormat != "" {
		settings.Paper.Format = flags.layout.paperFormat
	}
	if flags.layout.landscape {
		settings.Paper.Landscape = true
	}
	if flags.layout.margin != "" {
		settings.Paper.Margin = mdexport.MarginSettings{
			Top:    flags.layout.margin,
			Right:  flags.layout.margin,
			Bottom: flags.layout.margin,
			Left:   flags.layout.margin,
		}
	}
	if flags.layout.quality > 0 {
		settings.Quality = flags.layout.quality
	}

	if flags.render.locale != "" {
		settings.Locale = flags.render.locale
	}
	if flags.render.dateFormat != "" {
		settings.DateFormat = flags.render.dateFormat
	}
	if flags.render.toc {
		settings.Toc.Enabled = true
	}
	if flags.render.emoji != "" {
		settings.EmojiMode = flags.render.emoji
	}
	if flags.render.highlightStyle != "" {
		settings.HighlightStyle = flags.render.highlightStyle
	}
	if flags.render.noHighlight {
		settings.HighlightEnabled = false
	}
	settings.StyleSheets = append(settings.StyleSheets, flags.render.styleSheets...)
	settings.Scripts = append(settings.Scripts, flags.render.scripts...)
}

// buildSelections maps the positional inputs onto selection
// strategies: every Markdown file named or discovered under a named
// directory, joined into one document with --concat; the whole
// workspace when no inputs are given but workspace folders are.
func buildSelections(args []string, flags *convertFlags) ([]mdexport.Selection, error) {
	if len(args) == 0 {
		if len(flags.workspace) > 0 {
			return []mdexport.Selection{mdexport.SelectWorkspace()}, nil
		}
		return nil, ErrNoInput
	}

	paths, err := discoverInputs(args)
	if err != nil {
		return nil, err
	}

	sources := make([]mdexport.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- user-named input file
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, mdexport.Source{Text: string(data), FileName: path})
	}

	if flags.concat {
		return []mdexport.Selection{mdexport.SelectConcat(sources...)}, nil
	}

	selections := make([]mdexport.Selection, 0, len(sources))
	for _, src := range sources {
		selections = append(selections, mdexport.SelectDocument(src))
	}
	return selections, nil
}

// discoverInputs expands the positional args into Markdown file paths.
// Named files must carry a Markdown extension; named directories are
// walked recursively.
func discoverInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}

		if !info.IsDir() {
			if !isMarkdownPath(arg) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, arg)
			}
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isMarkdownPath(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no Markdown files found", ErrNoInput)
	}
	return paths, nil
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// stdinPrompter reads interactive answers line by line from stdin.
func stdinPrompter() mdexport.Prompter {
	reader := bufio.NewReader(os.Stdin)
	return mdexport.PrompterFunc(func(message, def string) (string, error) {
		if def != "" {
			fmt.Fprintf(os.Stderr, "%s [%s] ", message, def)
		} else {
			fmt.Fprintf(os.Stderr, "%s ", message)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			line = def
		}
		return line, nil
	})
}
