package mdexport

import "testing"

func TestResourcesGet(t *testing.T) {
	t.Parallel()

	r := NewResources("en-US")

	tests := []struct {
		name string
		key  string
		args []any
		want string
	}{
		{
			name: "known key with argument",
			key:  "Progress.ConversionStarting",
			args: []any{"pdf"},
			want: "Converting to pdf...",
		},
		{
			name: "multiple arguments positional",
			key:  "Progress.ConversionDone",
			args: []any{"/out/doc.pdf"},
			want: "Saved /out/doc.pdf",
		},
		{
			name: "unknown key falls back to key",
			key:  "Nope.Missing",
			want: "Nope.Missing",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Get(tt.key, tt.args...); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestResourcesOverride(t *testing.T) {
	t.Parallel()

	r := NewResources("fr-FR")
	r.Override(map[string]string{
		"Progress.ConversionStarting": "Conversion vers {0}...",
		"Custom.Key":                  "valeur",
	})

	if got := r.Get("Progress.ConversionStarting", "pdf"); got != "Conversion vers pdf..." {
		t.Errorf("overridden string = %q", got)
	}
	if got := r.Get("Custom.Key"); got != "valeur" {
		t.Errorf("added string = %q", got)
	}
	if got := r.Get("Progress.ConversionDone", "x"); got != "Saved x" {
		t.Errorf("untouched string = %q", got)
	}
	if r.Locale() != "fr-FR" {
		t.Errorf("Locale = %q, want fr-FR", r.Locale())
	}
}
