package htmlsafe

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		keep    []string
		dropped []string
	}{
		{
			name:    "script removed",
			in:      `<p>Welcome<script>alert(1)</script></p>`,
			keep:    []string{"<p>Welcome</p>"},
			dropped: []string{"script", "alert"},
		},
		{
			name:    "event handler removed",
			in:      `<p onclick="steal()">Hi</p>`,
			keep:    []string{"<p>Hi</p>"},
			dropped: []string{"onclick"},
		},
		{
			name: "formatting kept",
			in:   `<p><strong>Bold</strong> <em>it</em> <u>under</u></p><ul><li>one</li></ul>`,
			keep: []string{"<strong>Bold</strong>", "<em>it</em>", "<u>under</u>", "<li>one</li>"},
		},
		{
			name:    "unknown iframe source dropped",
			in:      `<p>Video</p><iframe src="https://evil.example/x"></iframe>`,
			keep:    []string{"<p>Video</p>"},
			dropped: []string{"evil.example"},
		},
	}
	for _, tc := range tests {
		got := Sanitize(tc.in)
		for _, want := range tc.keep {
			if !strings.Contains(got, want) {
				t.Fatalf("%s: Sanitize = %q, want it to contain %q", tc.name, got, want)
			}
		}
		for _, bad := range tc.dropped {
			if strings.Contains(got, bad) {
				t.Fatalf("%s: Sanitize = %q, want %q removed", tc.name, got, bad)
			}
		}
	}
	if Sanitize("") != "" {
		t.Fatal("Sanitize(\"\") not empty")
	}
}
