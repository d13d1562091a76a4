package mdexport

import "errors"

// Sentinel errors for library operations.
var (
	// Document errors.
	ErrFrontMatter  = errors.New("malformed front matter")
	ErrMissingAsset = errors.New("referenced asset does not exist")
	ErrRenderFailed = errors.New("document rendering failed")

	// Converter lifecycle errors.
	ErrConverterState = errors.New("invalid converter state")
	ErrBrowserLaunch  = errors.New("failed to launch browser")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrCapture        = errors.New("page capture failed")
	ErrFileAccess     = errors.New("file access failed")
	ErrServerStart    = errors.New("failed to start file server")
	ErrUnknownType    = errors.New("unknown conversion type")
	ErrScrapeFailed   = errors.New("self-contained export failed")

	// Runner errors.
	ErrDestinationTemplate = errors.New("destination path template substitution failed")
	ErrPromptAborted       = errors.New("workspace folder prompt aborted")
	ErrEmptySelection      = errors.New("selection produced no documents")
)
