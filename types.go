package mdexport

import (
	"errors"
	"fmt"
	"strings"
)

// ConversionType enumerates the supported output kinds.
type ConversionType string

const (
	TypeSelfContainedHTML ConversionType = "selfcontainedhtml"
	TypeHTML              ConversionType = "html"
	TypeJPEG              ConversionType = "jpg"
	TypePDF               ConversionType = "pdf"
	TypePNG               ConversionType = "png"
)

// ErrInvalidConversionType indicates an unrecognized output kind.
var ErrInvalidConversionType = errors.New("invalid conversion type")

// conversionExtensions maps each type to exactly one file extension.
var conversionExtensions = map[ConversionType]string{
	TypeSelfContainedHTML: "html",
	TypeHTML:              "html",
	TypeJPEG:              "jpg",
	TypePDF:               "pdf",
	TypePNG:               "png",
}

// Extension returns the output file extension without a dot.
func (t ConversionType) Extension() string {
	return conversionExtensions[t]
}

// Valid reports whether t is a known conversion type.
func (t ConversionType) Valid() bool {
	_, ok := conversionExtensions[t]
	return ok
}

// ParseConversionType accepts common aliases ("jpeg", "selfcontained").
func ParseConversionType(s string) (ConversionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "selfcontainedhtml", "selfcontained", "self-contained-html":
		return TypeSelfContainedHTML, nil
	case "html":
		return TypeHTML, nil
	case "jpg", "jpeg":
		return TypeJPEG, nil
	case "pdf":
		return TypePDF, nil
	case "png":
		return TypePNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidConversionType, s)
}

// ProgressFunc receives human-readable progress messages. It is an
// optional side channel: correctness never depends on it, and the
// default is a no-op.
type ProgressFunc func(message string)

func nopProgress(string) {}

// Prompter supplies interactive input when the destination template
// needs a workspace folder and none is known. def carries the last
// value entered in this session.
type Prompter interface {
	PromptFolder(message, def string) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(message, def string) (string, error)

func (f PrompterFunc) PromptFolder(message, def string) (string, error) {
	return f(message, def)
}

// Source is one editor text buffer handed to the Runner: raw content
// plus an optional file name (empty for untitled documents).
type Source struct {
	Text     string
	FileName string
}
