package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdexport [flags] <input>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown files to HTML, JPEG, PNG, PDF, or a self-contained")
	fmt.Fprintln(w, "HTML export with captured resources.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional with --workspace)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -t, --type <list>         Output types: html, selfcontainedhtml, jpg, png, pdf")
	fmt.Fprintln(w, "  -o, --output <template>   Output path template")
	fmt.Fprintln(w, "                            Variables: {dirname}, {filename}, {basename},")
	fmt.Fprintln(w, "                            {extension}, {workspaceFolder}")
	fmt.Fprintln(w, "  -c, --config <name>       Settings file name or path")
	fmt.Fprintln(w, "  -w, --workspace <dir>     Workspace folder (repeatable)")
	fmt.Fprintln(w, "      --concat              Join all inputs into one document")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --paper <s>           Paper format: A3, A4, A5, Letter, Legal, Tabloid")
	fmt.Fprintln(w, "      --landscape           Landscape orientation")
	fmt.Fprintln(w, "      --margin <s>          Margin with unit for all sides (e.g., 1cm)")
	fmt.Fprintln(w, "      --quality <n>         JPEG quality (1-100)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --toc                 Expand [[toc]] into a table of contents")
	fmt.Fprintln(w, "      --emoji <s>           Emoji rendering: none, unicode, twemoji")
	fmt.Fprintln(w, "      --highlight-style <s> Syntax highlighting style name")
	fmt.Fprintln(w, "      --no-highlight        Disable syntax highlighting")
	fmt.Fprintln(w, "      --css <path>          Stylesheet URL or absolute path (repeatable)")
	fmt.Fprintln(w, "      --js <path>           Script URL or absolute path (repeatable)")
	fmt.Fprintln(w, "      --locale <s>          Culture identifier (e.g., en-US, fr-FR)")
	fmt.Fprintln(w, "      --date-format <s>     Date preset (iso, short, long, ...) or pattern")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
	fmt.Fprintln(w, "      --version             Print version and exit")
}
