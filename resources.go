package mdexport

import (
	"fmt"
	"strconv"
	"strings"
)

// Resources resolves user-facing strings by key for one conversion
// run's locale. Templates use positional arguments: "{0}", "{1}".
// Unknown keys fall back to the key itself so a missing translation
// never breaks a conversion.
type Resources struct {
	locale  string
	strings map[string]string
}

// builtinStrings is the default (English) string table.
var builtinStrings = map[string]string{
	"Progress.ConversionStarting": "Converting to {0}...",
	"Progress.ConversionDone":     "Saved {0}",
	"Progress.Initializing":       "Starting conversion services...",
	"Prompt.WorkspaceFolder":      "The output path references {workspaceFolder}. Enter a folder path:",
	"Error.FileAccess":            "Cannot access {0}",
	"Error.BrowserLaunch":         "The headless browser could not be started",
}

// NewResources creates a Resources for the given locale, seeded with
// the built-in string table.
func NewResources(locale string) *Resources {
	table := make(map[string]string, len(builtinStrings))
	for k, v := range builtinStrings {
		table[k] = v
	}
	return &Resources{locale: locale, strings: table}
}

// Locale returns the culture identifier of this run.
func (r *Resources) Locale() string { return r.locale }

// Override replaces or adds localized strings, e.g. from a host
// resource bundle.
func (r *Resources) Override(strings map[string]string) {
	for k, v := range strings {
		r.strings[k] = v
	}
}

// Get looks up a string by key and substitutes positional arguments.
func (r *Resources) Get(key string, args ...any) string {
	template, ok := r.strings[key]
	if !ok {
		template = key
	}
	for i, arg := range args {
		placeholder := "{" + strconv.Itoa(i) + "}"
		template = strings.ReplaceAll(template, placeholder, fmt.Sprint(arg))
	}
	return template
}
