package main

import (
	"errors"
	"os"

	mdexport "github.com/mdexport/go-mdexport"
)

// Exit codes for the mdexport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, settings, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdexport.ErrBrowserLaunch) ||
		errors.Is(err, mdexport.ErrBrowserConnect) ||
		errors.Is(err, mdexport.ErrPageCreate) ||
		errors.Is(err, mdexport.ErrPageLoad) ||
		errors.Is(err, mdexport.ErrCapture) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdexport.ErrFileAccess) ||
		errors.Is(err, mdexport.ErrMissingAsset) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/settings/validation errors (exit 2)
	if errors.Is(err, mdexport.ErrSettingsNotFound) ||
		errors.Is(err, mdexport.ErrSettingsParse) ||
		errors.Is(err, mdexport.ErrInvalidConversionType) ||
		errors.Is(err, mdexport.ErrInvalidQuality) ||
		errors.Is(err, mdexport.ErrInvalidTocLevel) ||
		errors.Is(err, mdexport.ErrInvalidPaperFormat) ||
		errors.Is(err, mdexport.ErrInvalidLength) ||
		errors.Is(err, mdexport.ErrDestinationTemplate) ||
		errors.Is(err, mdexport.ErrEmptySelection) ||
		errors.Is(err, ErrInvalidExtension) {
		return ExitUsage
	}

	return ExitGeneral
}
