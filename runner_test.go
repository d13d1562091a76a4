package mdexport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestRunner(t *testing.T, settings *Settings, opts ...RunnerOption) *Runner {
	t.Helper()
	r, err := NewRunner(settings, opts...)
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}
	return r
}

func TestNewRunnerValidatesSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Quality = 999
	if _, err := NewRunner(s); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("NewRunner error = %v, want ErrInvalidQuality", err)
	}
}

func TestRunnerWorkspaceFolder(t *testing.T) {
	t.Parallel()

	folders := []string{filepath.FromSlash("/ws1"), filepath.FromSlash("/ws2")}

	tests := []struct {
		name    string
		folders []string
		src     Source
		want    string
	}{
		{
			name:    "titled inside folder",
			folders: folders,
			src:     Source{FileName: filepath.FromSlash("/ws2/docs/a.md")},
			want:    filepath.FromSlash("/ws2"),
		},
		{
			name:    "titled outside all folders",
			folders: folders,
			src:     Source{FileName: filepath.FromSlash("/elsewhere/a.md")},
			want:    "",
		},
		{
			name:    "untitled with single folder",
			folders: folders[:1],
			src:     Source{},
			want:    filepath.FromSlash("/ws1"),
		},
		{
			name:    "untitled with multiple folders",
			folders: folders,
			src:     Source{},
			want:    "",
		},
		{
			name: "untitled without folders",
			src:  Source{},
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRunner(t, nil, WithWorkspaceFolders(tt.folders))
			if got := r.workspaceFolder(tt.src); got != tt.want {
				t.Errorf("workspaceFolder = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunnerDestinationPath(t *testing.T) {
	t.Parallel()

	src := Source{FileName: filepath.FromSlash("/ws/docs/guide.md")}
	ws := filepath.FromSlash("/ws")

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "default template",
			template: "",
			want:     "/ws/docs/guide.pdf",
		},
		{
			name:     "workspace folder variable",
			template: "{workspaceFolder}/out/{basename}.{extension}",
			want:     "/ws/out/guide.pdf",
		},
		{
			name:     "filename variable keeps extension",
			template: "{dirname}/{filename}.{extension}",
			want:     "/ws/docs/guide.md.pdf",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := DefaultSettings()
			s.OutputPathTemplate = tt.template
			r := newTestRunner(t, s)
			got, err := r.destinationPath(TypePDF, src, ws)
			if err != nil {
				t.Fatalf("destinationPath error: %v", err)
			}
			if got != filepath.Clean(filepath.FromSlash(tt.want)) {
				t.Errorf("destinationPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunnerDestinationPathUntitled(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, nil)
	got, err := r.destinationPath(TypeHTML, Source{}, filepath.FromSlash("/ws"))
	if err != nil {
		t.Fatalf("destinationPath error: %v", err)
	}
	want := filepath.Clean(filepath.FromSlash("/ws/index.html"))
	if got != want {
		t.Errorf("destinationPath = %q, want %q", got, want)
	}
}

func TestRunnerDestinationPathPrompts(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.OutputPathTemplate = "{workspaceFolder}/out/{basename}.{extension}"

	prompts := 0
	var gotDefaults []string
	prompter := PrompterFunc(func(message, def string) (string, error) {
		prompts++
		gotDefaults = append(gotDefaults, def)
		return filepath.FromSlash("/chosen"), nil
	})

	r := newTestRunner(t, s, WithPrompter(prompter))
	src := Source{FileName: filepath.FromSlash("/docs/a.md")}

	// No workspace folder known: the variable must be prompted for.
	got, err := r.destinationPath(TypePDF, src, "")
	if err != nil {
		t.Fatalf("destinationPath error: %v", err)
	}
	want := filepath.Clean(filepath.FromSlash("/chosen/out/a.pdf"))
	if got != want {
		t.Errorf("destinationPath = %q, want %q", got, want)
	}
	if prompts != 1 {
		t.Fatalf("prompts = %d, want 1", prompts)
	}

	// The answered folder becomes the default of the next prompt.
	if _, err := r.destinationPath(TypeHTML, src, ""); err != nil {
		t.Fatalf("second destinationPath error: %v", err)
	}
	if len(gotDefaults) != 2 || gotDefaults[0] != "" || gotDefaults[1] != filepath.FromSlash("/chosen") {
		t.Errorf("prompt defaults = %v, want [\"\" /chosen]", gotDefaults)
	}
}

func TestRunnerDestinationPathPromptErrors(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.OutputPathTemplate = "{workspaceFolder}/{basename}.{extension}"
	src := Source{FileName: filepath.FromSlash("/docs/a.md")}

	t.Run("no prompter configured", func(t *testing.T) {
		t.Parallel()
		r := newTestRunner(t, s)
		if _, err := r.destinationPath(TypePDF, src, ""); !errors.Is(err, ErrDestinationTemplate) {
			t.Errorf("error = %v, want ErrDestinationTemplate", err)
		}
	})

	t.Run("prompt aborted", func(t *testing.T) {
		t.Parallel()
		aborting := PrompterFunc(func(message, def string) (string, error) {
			return "", errors.New("user canceled")
		})
		r := newTestRunner(t, s, WithPrompter(aborting))
		if _, err := r.destinationPath(TypePDF, src, ""); !errors.Is(err, ErrPromptAborted) {
			t.Errorf("error = %v, want ErrPromptAborted", err)
		}
	})

	t.Run("unknown variable fatal with folder bound", func(t *testing.T) {
		t.Parallel()
		bad := DefaultSettings()
		bad.OutputPathTemplate = "{nonsense}/{basename}.{extension}"
		r := newTestRunner(t, bad)
		_, err := r.destinationPath(TypePDF, src, filepath.FromSlash("/ws"))
		if !errors.Is(err, ErrDestinationTemplate) {
			t.Errorf("error = %v, want ErrDestinationTemplate", err)
		}
	})
}

func TestSubstituteTemplate(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"a": "1", "b": "2", "empty": ""}

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  bool
	}{
		{name: "all bound", template: "{a}/{b}", want: "1/2"},
		{name: "no variables", template: "plain", want: "plain"},
		{name: "empty value unresolved", template: "{empty}/x", wantErr: true},
		{name: "unknown variable", template: "{c}/x", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := substituteTemplate(tt.template, vars)
			if tt.wantErr {
				if err == nil {
					t.Errorf("substituteTemplate(%q) = %q, want error", tt.template, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("substituteTemplate error: %v", err)
			}
			if got != tt.want {
				t.Errorf("substituteTemplate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunnerLoadDocument(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Quality = 60
	s.Locale = "fr-FR"
	s.DateFormat = "long"
	s.Paper.Format = "Legal"
	s.HeaderFooterEnabled = true
	s.Header.Content = "header text"
	s.Footer.Content = "footer text"
	s.StyleSheets = []string{"https://example.com/s.css"}

	r := newTestRunner(t, s)
	doc, err := r.loadDocument(Source{Text: "---\ntitle: T\n---\nbody\n", FileName: "/docs/a.md"})
	if err != nil {
		t.Fatalf("loadDocument error: %v", err)
	}

	if doc.Quality != 60 || doc.Locale != "fr-FR" || doc.DateFormat != "long" {
		t.Errorf("document settings = %d/%s/%s", doc.Quality, doc.Locale, doc.DateFormat)
	}
	if doc.Paper.Format != "Legal" {
		t.Errorf("paper format = %q", doc.Paper.Format)
	}
	if !doc.HeaderFooterEnabled || doc.Header.Content != "header text" || doc.Footer.Content != "footer text" {
		t.Errorf("fragments not applied: %+v / %+v", doc.Header, doc.Footer)
	}
	if doc.Content() != "body\n" {
		t.Errorf("content = %q", doc.Content())
	}
	if doc.FileName != "/docs/a.md" {
		t.Errorf("fileName = %q", doc.FileName)
	}
}

func TestRunnerLoadDocumentTemplatePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tplPath := filepath.Join(dir, "shell.html")
	if err := os.WriteFile(tplPath, []byte("<main>{{{content}}}</main>"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := DefaultSettings()
	s.TemplatePath = tplPath
	r := newTestRunner(t, s)

	doc, err := r.loadDocument(Source{Text: "x\n"})
	if err != nil {
		t.Fatalf("loadDocument error: %v", err)
	}
	if doc.Template != "<main>{{{content}}}</main>" {
		t.Errorf("template = %q", doc.Template)
	}

	s2 := DefaultSettings()
	s2.TemplatePath = filepath.Join(dir, "missing.html")
	r2 := newTestRunner(t, s2)
	if _, err := r2.loadDocument(Source{Text: "x\n"}); !errors.Is(err, ErrMissingAsset) {
		t.Errorf("missing template error = %v, want ErrMissingAsset", err)
	}
}

func TestRunnerLoadParserSystemMode(t *testing.T) {
	t.Parallel()

	shared := NewParser(ParserOptions{Highlight: true})

	s := DefaultSettings()
	s.UseSystemParser = true
	r := newTestRunner(t, s, WithSystemParser(shared))

	p := r.loadParser()
	if p == shared {
		t.Error("system parser must be cloned, not shared")
	}
	if !p.opts.Highlight {
		t.Error("clone should keep the shared parser's options")
	}
}

// ---------------------------------------------------------------------------
// Selection strategies
// ---------------------------------------------------------------------------

func TestSelectDocument(t *testing.T) {
	t.Parallel()

	src := Source{Text: "x", FileName: "/a.md"}
	got, err := SelectDocument(src).sources(nil)
	if err != nil {
		t.Fatalf("sources error: %v", err)
	}
	if len(got) != 1 || got[0] != src {
		t.Errorf("sources = %v, want [%v]", got, src)
	}
}

func TestSelectConcat(t *testing.T) {
	t.Parallel()

	got, err := SelectConcat(
		Source{Text: "# One"},
		Source{Text: "# Two", FileName: "/docs/two.md"},
		Source{Text: "# Three", FileName: "/docs/three.md"},
	).sources(nil)
	if err != nil {
		t.Fatalf("sources error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}
	if got[0].Text != "# One\n\n# Two\n\n# Three" {
		t.Errorf("concatenated text = %q", got[0].Text)
	}
	if got[0].FileName != "/docs/two.md" {
		t.Errorf("fileName = %q, want first titled source", got[0].FileName)
	}
}

func TestSelectConcatEmpty(t *testing.T) {
	t.Parallel()

	if _, err := SelectConcat().sources(nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("error = %v, want ErrEmptySelection", err)
	}
}

func TestSelectWorkspace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "a.md"):        "# A",
		filepath.Join(sub, "b.markdown"):  "# B",
		filepath.Join(dir, "ignored.txt"): "not markdown",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := SelectWorkspace().sources([]string{dir})
	if err != nil {
		t.Fatalf("sources error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2: %+v", len(got), got)
	}
	for _, src := range got {
		if src.Text == "not markdown" {
			t.Errorf("non-markdown file selected: %q", src.FileName)
		}
	}
}

func TestSelectWorkspaceEmpty(t *testing.T) {
	t.Parallel()

	if _, err := SelectWorkspace().sources([]string{t.TempDir()}); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("error = %v, want ErrEmptySelection", err)
	}
}
