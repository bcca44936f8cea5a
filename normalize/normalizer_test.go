package normalize

import (
	"testing"

	"github.com/poiesic/chatvault/core"
)

func TestNormalizeStripsMarkup(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		wantHint core.MessageType
	}{
		{
			name:     "plain text passes through",
			in:       "hello world",
			want:     "hello world",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "empty input",
			in:       "",
			want:     "",
			wantHint: core.MessageTypeUnknown,
		},
		{
			name:     "simple tags stripped",
			in:       "<b>bold</b> and <i>italic</i>",
			want:     "bold and italic",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "br becomes newline",
			in:       "line one<br>line two",
			want:     "line one\nline two",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "block tags terminate lines",
			in:       "<p>first</p><p>second</p>",
			want:     "first\nsecond",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "unclosed tag never fails",
			in:       "<b>never closed",
			want:     "never closed",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "unmatched closing tag dropped",
			in:       "text</blockquote> more",
			want:     "text more",
			wantHint: core.MessageTypeText,
		},
		{
			name:     "media tag sets media hint",
			in:       `before <img src="cat.jpg"> after`,
			want:     "before  after",
			wantHint: core.MessageTypeMedia,
		},
		{
			name:     "markup only yields unknown",
			in:       "<div></div>",
			want:     "",
			wantHint: core.MessageTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hint := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if hint != tt.wantHint {
				t.Errorf("Normalize(%q) hint = %q, want %q", tt.in, hint, tt.wantHint)
			}
		})
	}
}

func TestNormalizeQuoteBanners(t *testing.T) {
	got, _ := Normalize(`<blockquote data-sender="alice">the original   words</blockquote>sure thing`)
	want := "> alice: the original words\nsure thing"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// No sender attribute falls back to "unknown".
	got, _ = Normalize(`reply to <q>something said</q>`)
	want = "reply to\n> unknown: something said"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Unclosed quote wrapper still flushes the captured text.
	got, _ = Normalize(`<blockquote data-sender="bob">dangling`)
	want = "> bob: dangling"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeCurlsQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paired double quotes",
			in:   `she said "hello" twice`,
			want: "she said “hello” twice",
		},
		{
			name: "apostrophe between letters",
			in:   "it's fine",
			want: "it’s fine",
		},
		{
			name: "leading apostrophe untouched",
			in:   "'quoted'",
			want: "'quoted'",
		},
		{
			name: "pairing resets per line",
			in:   "start \"unbalanced\nnext \"pair\" here",
			want: "start “unbalanced\nnext “pair” here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got, _ := Normalize("first  \n\n\n\nsecond   \n")
	want := "first\n\nsecond"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := `<p>it's "quoted"</p><blockquote data-sender="alice">original</blockquote><br>done`
	first, firstHint := Normalize(in)
	for i := 0; i < 10; i++ {
		got, hint := Normalize(in)
		if got != first || hint != firstHint {
			t.Fatalf("iteration %d produced %q/%q, first run produced %q/%q", i, got, hint, first, firstHint)
		}
	}
}
