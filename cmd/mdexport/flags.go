package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across invocations.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// outputFlags holds destination and output-type flags.
type outputFlags struct {
	types    []string
	template string
}

// layoutFlags holds paper and fragment flags.
type layoutFlags struct {
	paperFormat string
	landscape   bool
	margin      string
	quality     int
}

// renderFlags holds transform-chain flags.
type renderFlags struct {
	locale         string
	dateFormat     string
	toc            bool
	emoji          string
	highlightStyle string
	noHighlight    bool
	styleSheets    []string
	scripts        []string
}

// convertFlags holds all flags for a conversion run.
type convertFlags struct {
	common    commonFlags
	output    outputFlags
	layout    layoutFlags
	render    renderFlags
	workspace []string
	concat    bool
	version   bool
	verbose   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "settings file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
}

// addOutputFlags adds destination flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringSliceVarP(&f.types, "type", "t", nil, "output types: html, selfcontainedhtml, jpg, png, pdf (repeatable)")
	fs.StringVarP(&f.template, "output", "o", "", "output path template ({dirname}, {basename}, {extension}, {workspaceFolder})")
}

// addLayoutFlags adds paper layout flags to a FlagSet.
func addLayoutFlags(fs *flag.FlagSet, f *layoutFlags) {
	fs.StringVarP(&f.paperFormat, "paper", "p", "", "paper format: A3, A4, A5, Letter, Legal, Tabloid")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.StringVar(&f.margin, "margin", "", "page margin with unit, applied to all four sides (e.g., 1cm, 0.5in)")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality (1-100)")
}

// addRenderFlags adds transform-chain flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.locale, "locale", "", "culture identifier for date formatting (e.g., en-US)")
	fs.StringVar(&f.dateFormat, "date-format", "", "date format preset or pattern")
	fs.BoolVar(&f.toc, "toc", false, "expand [[toc]] indicators into a table of contents")
	fs.StringVar(&f.emoji, "emoji", "", "emoji rendering: none, unicode, twemoji")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "syntax highlighting style name")
	fs.BoolVar(&f.noHighlight, "no-highlight", false, "disable syntax highlighting")
	fs.StringArrayVar(&f.styleSheets, "css", nil, "stylesheet URL or absolute path (repeatable)")
	fs.StringArrayVar(&f.scripts, "js", nil, "script URL or absolute path (repeatable)")
}

// parseFlags parses the command line and returns positional args.
func parseFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("mdexport", flag.ContinueOnError)
	f := &convertFlags{}

	addCommonFlags(fs, &f.common)
	addOutputFlags(fs, &f.output)
	addLayoutFlags(fs, &f.layout)
	addRenderFlags(fs, &f.render)

	fs.StringArrayVarP(&f.workspace, "workspace", "w", nil, "workspace folder (repeatable)")
	fs.BoolVar(&f.concat, "concat", false, "join all inputs into one document")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.verbose = f.common.verbose

	return f, fs.Args(), nil
}
