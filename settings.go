package mdexport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/mdexport/go-mdexport/internal/dateutil"
	"github.com/mdexport/go-mdexport/internal/fileutil"
	"github.com/mdexport/go-mdexport/internal/yamlutil"
)

// Settings loading errors.
var (
	ErrSettingsNotFound  = errors.New("settings file not found")
	ErrEmptySettingsName = errors.New("settings name cannot be empty")
	ErrSettingsParse     = errors.New("failed to parse settings")
	ErrInvalidQuality    = errors.New("invalid quality value")
	ErrInvalidTocLevel   = errors.New("invalid TOC level")
)

// DefaultOutputTemplate writes outputs next to the source document.
const DefaultOutputTemplate = "{dirname}/{basename}.{extension}"

// Settings is the typed configuration snapshot handed to the core by
// the host. The core never does string-keyed dynamic lookups; the
// host populates this schema once per conversion request.
type Settings struct {
	ConversionTypes    []string `yaml:"conversionTypes"`
	OutputPathTemplate string   `yaml:"outputPathTemplate"`

	Locale     string `yaml:"locale"`
	DateFormat string `yaml:"dateFormat"`
	Quality    int    `yaml:"quality"`

	Paper PaperSettings `yaml:"paper"`

	HeaderFooterEnabled bool           `yaml:"headerFooterEnabled"`
	Header              FragmentConfig `yaml:"header"`
	Footer              FragmentConfig `yaml:"footer"`

	TemplatePath string   `yaml:"templatePath"` // custom HTML shell, empty = built-in
	StyleSheets  []string `yaml:"styleSheets"`
	Scripts      []string `yaml:"scripts"`

	HighlightEnabled bool   `yaml:"highlightEnabled"`
	HighlightStyle   string `yaml:"highlightStyle"`

	EmojiMode     string `yaml:"emojiMode"` // none, unicode, twemoji, image
	EmojiImageURL string `yaml:"emojiImageURL"`

	Toc TocConfig `yaml:"toc"`

	// UseSystemParser clones the host's shared parser instead of
	// building one from these settings.
	UseSystemParser bool `yaml:"useSystemParser"`

	// DefaultAttributes overlay front-matter keys the document does
	// not set. Order is preserved for serialization.
	DefaultAttributes yaml.MapSlice `yaml:"defaultAttributes"`
}

// PaperSettings mirrors Paper with YAML tags.
type PaperSettings struct {
	Format    string         `yaml:"format"`
	Landscape bool           `yaml:"landscape"`
	Width     string         `yaml:"width"`
	Height    string         `yaml:"height"`
	Margin    MarginSettings `yaml:"margin"`
}

// MarginSettings holds the four independently overridable margins.
type MarginSettings struct {
	Top    string `yaml:"top"`
	Right  string `yaml:"right"`
	Bottom string `yaml:"bottom"`
	Left   string `yaml:"left"`
}

// FragmentConfig is the content + template pair of a header or footer.
type FragmentConfig struct {
	Content  string `yaml:"content"`
	Template string `yaml:"template"`
}

// TocConfig configures table-of-contents expansion.
type TocConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Class     string `yaml:"class"`
	Levels    []int  `yaml:"levels"`
	Indicator string `yaml:"indicator"`
	Ordered   bool   `yaml:"ordered"`
}

// DefaultSettings returns a snapshot producing a plain HTML export.
func DefaultSettings() *Settings {
	return &Settings{
		ConversionTypes:    []string{string(TypeHTML)},
		OutputPathTemplate: DefaultOutputTemplate,
		Locale:             dateutil.DefaultLocale,
		Quality:            DefaultQuality,
		Paper:              PaperSettings{Format: FormatA4},
		HighlightEnabled:   true,
		EmojiMode:          string(EmojiNone),
	}
}

// Validate checks value ranges and type names.
func (s *Settings) Validate() error {
	for _, t := range s.ConversionTypes {
		if _, err := ParseConversionType(t); err != nil {
			return err
		}
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("%w: %d (must be 0-100)", ErrInvalidQuality, s.Quality)
	}
	for _, l := range s.Toc.Levels {
		if l < 1 || l > 6 {
			return fmt.Errorf("%w: %d (must be 1-6)", ErrInvalidTocLevel, l)
		}
	}
	if s.EmojiMode != "" {
		switch EmojiMode(s.EmojiMode) {
		case EmojiNone, EmojiUnicode, EmojiTwemoji, EmojiImage:
		default:
			return fmt.Errorf("invalid emoji mode %q", s.EmojiMode)
		}
	}
	return nil
}

// Types returns the parsed conversion type list.
func (s *Settings) Types() ([]ConversionType, error) {
	types := make([]ConversionType, 0, len(s.ConversionTypes))
	for _, raw := range s.ConversionTypes {
		t, err := ParseConversionType(raw)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// parserOptions maps settings onto a transform chain configuration.
func (s *Settings) parserOptions() ParserOptions {
	opts := ParserOptions{
		Emoji:          EmojiMode(s.EmojiMode),
		EmojiImageURL:  s.EmojiImageURL,
		Highlight:      s.HighlightEnabled,
		HighlightStyle: s.HighlightStyle,
	}
	if s.Toc.Enabled {
		toc := DefaultTocSettings()
		if s.Toc.Class != "" {
			toc.Class = s.Toc.Class
		}
		if len(s.Toc.Levels) > 0 {
			toc.Levels = s.Toc.Levels
		}
		if s.Toc.Indicator != "" {
			toc.Indicator = s.Toc.Indicator
		}
		toc.Ordered = s.Toc.Ordered
		opts.Toc = toc
	}
	return opts
}

// paper maps the settings onto a Paper value.
func (s *Settings) paper() Paper {
	return Paper{
		Format:    s.Paper.Format,
		Landscape: s.Paper.Landscape,
		Width:     s.Paper.Width,
		Height:    s.Paper.Height,
		Margin: Margin{
			Top:    s.Paper.Margin.Top,
			Right:  s.Paper.Margin.Right,
			Bottom: s.Paper.Margin.Bottom,
			Left:   s.Paper.Margin.Left,
		}.withDefaults(),
	}
}

// LoadSettings loads settings from a file path or a bare name. A name
// is searched in the current directory and the user config directory,
// trying .yaml then .yml. Missing files are an error, never a silent
// fallback.
func LoadSettings(nameOrPath string) (*Settings, error) {
	if nameOrPath == "" {
		return nil, ErrEmptySettingsName
	}

	settingsPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		resolved, err := resolveSettingsPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		settingsPath = resolved
	}

	data, err := os.ReadFile(settingsPath) // #nosec G304 -- settings path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, settingsPath)
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	cfg := DefaultSettings()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveSettingsPath searches for a settings file by name.
func resolveSettingsPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileutil.FileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdexport", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrSettingsNotFound, strings.Join(tried, ", "))
}
