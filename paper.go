package mdexport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Paper format names accepted by Chrome's print backend.
const (
	FormatA3      = "A3"
	FormatA4      = "A4"
	FormatA5      = "A5"
	FormatLetter  = "Letter"
	FormatLegal   = "Legal"
	FormatTabloid = "Tabloid"
)

// DefaultMarginValue is applied to every side not overridden.
const DefaultMarginValue = "1cm"

// Paper size validation errors.
var (
	ErrInvalidPaperFormat = errors.New("invalid paper format")
	ErrInvalidLength      = errors.New("invalid length value")
)

// paperDimensions maps named formats to width/height in inches,
// portrait orientation.
var paperDimensions = map[string]struct{ width, height float64 }{
	FormatA3:      {11.69, 16.54},
	FormatA4:      {8.27, 11.69},
	FormatA5:      {5.83, 8.27},
	FormatLetter:  {8.5, 11},
	FormatLegal:   {8.5, 14},
	FormatTabloid: {11, 17},
}

// Margin holds the four page margins as CSS-style length strings
// (e.g. "1cm", "0.5in"). Each side defaults independently.
type Margin struct {
	Top    string
	Right  string
	Bottom string
	Left   string
}

// withDefaults fills empty sides with DefaultMarginValue.
func (m Margin) withDefaults() Margin {
	if m.Top == "" {
		m.Top = DefaultMarginValue
	}
	if m.Right == "" {
		m.Right = DefaultMarginValue
	}
	if m.Bottom == "" {
		m.Bottom = DefaultMarginValue
	}
	if m.Left == "" {
		m.Left = DefaultMarginValue
	}
	return m
}

// Paper describes the page layout for printed output. Exactly one of
// the standardized format (Format + Landscape) or the custom format
// (Width + Height) is active: the custom format wins only when both
// Width and Height are present.
type Paper struct {
	Format    string // named format, default A4
	Landscape bool
	Width     string // custom width, e.g. "28cm"
	Height    string // custom height
	Margin    Margin
}

// DefaultPaper returns A4 portrait with 1cm margins.
func DefaultPaper() Paper {
	return Paper{Format: FormatA4, Margin: Margin{}.withDefaults()}
}

// IsCustom reports whether the custom width/height pair is active.
func (p Paper) IsCustom() bool {
	return p.Width != "" && p.Height != ""
}

// PrintOptions is the resolved layout handed to the browser's print
// backend. Dimensions are in inches.
type PrintOptions struct {
	FormatName   string // named format in effect, empty for custom sizes
	Landscape    bool
	Width        float64
	Height       float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
}

// Resolve computes the effective print options. Unknown named formats
// and malformed length strings are rejected.
func (p Paper) Resolve() (*PrintOptions, error) {
	margin := p.Margin.withDefaults()

	opts := &PrintOptions{Landscape: p.Landscape}
	var err error
	if opts.MarginTop, err = parseLength(margin.Top); err != nil {
		return nil, err
	}
	if opts.MarginRight, err = parseLength(margin.Right); err != nil {
		return nil, err
	}
	if opts.MarginBottom, err = parseLength(margin.Bottom); err != nil {
		return nil, err
	}
	if opts.MarginLeft, err = parseLength(margin.Left); err != nil {
		return nil, err
	}

	if p.IsCustom() {
		if opts.Width, err = parseLength(p.Width); err != nil {
			return nil, err
		}
		if opts.Height, err = parseLength(p.Height); err != nil {
			return nil, err
		}
		opts.Landscape = false
		return opts, nil
	}

	name := normalizeFormat(p.Format)
	dim, ok := paperDimensions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaperFormat, p.Format)
	}
	opts.FormatName = name
	opts.Width, opts.Height = dim.width, dim.height
	if p.Landscape {
		opts.Width, opts.Height = opts.Height, opts.Width
	}
	return opts, nil
}

// normalizeFormat maps case-insensitive user input to the canonical
// format name. Empty input falls back to A4.
func normalizeFormat(format string) string {
	if format == "" {
		return FormatA4
	}
	for name := range paperDimensions {
		if strings.EqualFold(name, format) {
			return name
		}
	}
	return format
}

// lengthUnits converts supported CSS units to inches.
var lengthUnits = map[string]float64{
	"in": 1,
	"cm": 1 / 2.54,
	"mm": 1 / 25.4,
	"px": 1.0 / 96,
}

// parseLength converts a length string such as "28cm" or "0.5in" to
// inches. A bare number is treated as inches.
func parseLength(value string) (float64, error) {
	s := strings.TrimSpace(strings.ToLower(value))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidLength)
	}

	factor := 1.0
	for unit, f := range lengthUnits {
		if strings.HasSuffix(s, unit) {
			factor = f
			s = strings.TrimSpace(strings.TrimSuffix(s, unit))
			break
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
	}
	return n * factor, nil
}
