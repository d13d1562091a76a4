package mdexport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Lifecycle tests avoid Initialize so no browser is required; capture
// behavior against a live browser is covered by integration usage.

func TestConverterUninitialized(t *testing.T) {
	t.Parallel()

	c := NewConverter(newTestDocument(t), "")
	if got := c.URL(); got != "" {
		t.Errorf("URL() = %q, want empty before Initialize", got)
	}
	if got := c.PortNumber(); got != 0 {
		t.Errorf("PortNumber() = %d, want 0 before Initialize", got)
	}
}

func TestConverterStartBeforeInitialize(t *testing.T) {
	t.Parallel()

	c := NewConverter(newTestDocument(t), "")
	err := c.Start(context.Background(), TypeHTML, filepath.Join(t.TempDir(), "out.html"))
	if !errors.Is(err, ErrConverterState) {
		t.Errorf("Start before Initialize error = %v, want ErrConverterState", err)
	}
}

func TestConverterDisposeIdempotent(t *testing.T) {
	t.Parallel()

	c := NewConverter(newTestDocument(t), "")
	if err := c.Dispose(); err != nil {
		t.Fatalf("first Dispose error: %v", err)
	}
	if err := c.Dispose(); err != nil {
		t.Fatalf("second Dispose error: %v", err)
	}
	if got := c.URL(); got != "" {
		t.Errorf("URL() after Dispose = %q, want empty", got)
	}
}

func TestConverterInitializeAfterDispose(t *testing.T) {
	t.Parallel()

	c := NewConverter(newTestDocument(t), "")
	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose error: %v", err)
	}
	err := c.Initialize(context.Background())
	if !errors.Is(err, ErrConverterState) {
		t.Errorf("Initialize after Dispose error = %v, want ErrConverterState", err)
	}
}

func TestConverterStartAfterDispose(t *testing.T) {
	t.Parallel()

	c := NewConverter(newTestDocument(t), "")
	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose error: %v", err)
	}
	err := c.Start(context.Background(), TypePDF, "out.pdf")
	if !errors.Is(err, ErrConverterState) {
		t.Errorf("Start after Dispose error = %v, want ErrConverterState", err)
	}
}

func TestConverterServeRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		workspace string
		fileName  string
		want      string
	}{
		{
			name:      "workspace root wins",
			workspace: "/ws",
			fileName:  "/ws/docs/a.md",
			want:      "/ws",
		},
		{
			name:     "document directory without workspace",
			fileName: "/docs/a.md",
			want:     "/docs",
		},
		{
			name: "untitled without workspace",
			want: ".",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := newTestDocument(t)
			doc.FileName = filepath.FromSlash(tt.fileName)
			c := NewConverter(doc, filepath.FromSlash(tt.workspace))
			if got := c.serveRoot(); got != filepath.FromSlash(tt.want) {
				t.Errorf("serveRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConverterDocumentURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		workspace string
		fileName  string
		want      string
	}{
		{
			name:      "relative path inside workspace",
			workspace: "/ws",
			fileName:  "/ws/docs/readme.md",
			want:      "http://localhost:4321/docs/readme.md.html",
		},
		{
			name: "untitled document",
			want: "http://localhost:4321/index.html",
		},
		{
			name:      "outside workspace falls back to base name",
			workspace: "/ws",
			fileName:  "/other/readme.md",
			want:      "http://localhost:4321/readme.md.html",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := newTestDocument(t)
			if tt.fileName != "" {
				doc.FileName = filepath.FromSlash(tt.fileName)
			}
			c := NewConverter(doc, filepath.FromSlash(tt.workspace))
			if got := c.documentURL(4321); got != tt.want {
				t.Errorf("documentURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapFileError(t *testing.T) {
	t.Parallel()

	_, osErr := os.ReadFile(filepath.Join(t.TempDir(), "missing"))
	wrapped := wrapFileError(osErr)
	if !errors.Is(wrapped, ErrFileAccess) {
		t.Errorf("wrapFileError = %v, want ErrFileAccess", wrapped)
	}
	if !strings.Contains(wrapped.Error(), "missing") {
		t.Errorf("wrapped error should name the path: %v", wrapped)
	}

	plain := errors.New("no path here")
	if got := wrapFileError(plain); got != plain {
		t.Errorf("non-path error should pass through, got %v", got)
	}
}

func TestConverterStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state converterState
		want  string
	}{
		{state: stateUninitialized, want: "uninitialized"},
		{state: stateInitialized, want: "initialized"},
		{state: stateDisposed, want: "disposed"},
		{state: converterState(99), want: "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("state %d String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
