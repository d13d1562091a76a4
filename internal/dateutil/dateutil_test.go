package dateutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestResolvePattern - Preset lookup and literal passthrough
// ---------------------------------------------------------------------------

func TestResolvePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty uses default", input: "", want: DefaultPattern},
		{name: "iso preset", input: "iso", want: "yyyy-MM-dd"},
		{name: "preset case-insensitive", input: "European", want: "dd/MM/yyyy"},
		{name: "literal pattern passthrough", input: "yyyy/MM", want: "yyyy/MM"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolvePattern(tt.input); got != tt.want {
				t.Errorf("ResolvePattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFormat - Token expansion against locales
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	t.Parallel()

	// Wednesday, 4 March 2020, 14:05:09.012
	ref := time.Date(2020, time.March, 4, 14, 5, 9, 12_000_000, time.UTC)

	tests := []struct {
		name    string
		pattern string
		locale  string
		want    string
	}{
		{name: "iso preset", pattern: "iso", locale: "en-US", want: "2020-03-04"},
		{name: "full preset en-US", pattern: "full", locale: "en-US", want: "Wednesday, March 4, 2020"},
		{name: "full preset fr-FR", pattern: "full", locale: "fr-FR", want: "mercredi, mars 4, 2020"},
		{name: "month names de-DE", pattern: "MMMM yyyy", locale: "de-DE", want: "März 2020"},
		{name: "abbreviated day ja-JP", pattern: "ddd", locale: "ja-JP", want: "水"},
		{name: "two digit year", pattern: "yy", locale: "en-US", want: "20"},
		{name: "12 hour with designator", pattern: "h:mm tt", locale: "en-US", want: "2:05 PM"},
		{name: "single designator letter", pattern: "t", locale: "en-US", want: "P"},
		{name: "single designator multibyte", pattern: "t", locale: "ja-JP", want: "午"},
		{name: "24 hour", pattern: "HH:mm:ss", locale: "en-US", want: "14:05:09"},
		{name: "milliseconds", pattern: "ss.fff", locale: "en-US", want: "09.012"},
		{name: "era", pattern: "yyyy gg", locale: "en-US", want: "2020 AD"},
		{name: "bracketed literal", pattern: "[Date:] yyyy", locale: "en-US", want: "Date: 2020"},
		{name: "bracketed token text", pattern: "[yyyy] yyyy", locale: "en-US", want: "yyyy 2020"},
		{name: "unknown locale falls back", pattern: "MMMM", locale: "xx-XX", want: "March"},
		{name: "language prefix match", pattern: "MMMM", locale: "fr-CA", want: "mars"},
		{name: "unmatched characters pass through", pattern: "yyyy!", locale: "en-US", want: "2020!"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Format(ref, tt.pattern, tt.locale)
			if err != nil {
				t.Fatalf("Format(%q, %q) error: %v", tt.pattern, tt.locale, err)
			}
			if got != tt.want {
				t.Errorf("Format(%q, %q) = %q, want %q", tt.pattern, tt.locale, got, tt.want)
			}
		})
	}
}

func TestFormatErrors(t *testing.T) {
	t.Parallel()

	ref := time.Date(2020, time.March, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pattern string
	}{
		{name: "unclosed bracket", pattern: "[Date: yyyy"},
		{name: "pattern too long", pattern: strings.Repeat("y", MaxPatternLength+1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Format(ref, tt.pattern, "en-US")
			if !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("Format(%q) error = %v, want ErrInvalidDateFormat", tt.pattern, err)
			}
		})
	}
}

func TestHour12Midnight(t *testing.T) {
	t.Parallel()

	midnight := time.Date(2020, time.January, 1, 0, 30, 0, 0, time.UTC)
	got, err := Format(midnight, "h tt", "en-US")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if got != "12 AM" {
		t.Errorf("Format(midnight) = %q, want %q", got, "12 AM")
	}
}
