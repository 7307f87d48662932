package transform

import (
	"strings"
	"testing"
)

func TestStripFooterRemovesKeywordBlock(t *testing.T) {
	body := "Hello team\n\nSee you\n--\nUnsubscribe here"
	got := StripFooter(body, []string{"Unsubscribe"})
	want := "Hello team\n\nSee you"
	if got != want {
		t.Errorf("StripFooter = %q, want %q", got, want)
	}
}

func TestStripFooter(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		keywords []string
		want     string
	}{
		{
			name:     "empty keywords is a no-op",
			body:     "Hello\n--\nUnsubscribe here",
			keywords: nil,
			want:     "Hello\n--\nUnsubscribe here",
		},
		{
			name:     "no keyword match leaves body unchanged",
			body:     "Hello\n--\nBest regards",
			keywords: []string{"Unsubscribe"},
			want:     "Hello\n--\nBest regards",
		},
		{
			name:     "empty body unchanged",
			body:     "",
			keywords: []string{"Unsubscribe"},
			want:     "",
		},
		{
			name:     "blank line separator removed with block",
			body:     "Hello team\n\nSent from my phone, unsubscribe at example.com",
			keywords: []string{"unsubscribe"},
			want:     "Hello team",
		},
		{
			name:     "case insensitive keyword",
			body:     "Body text\n--\nUNSUBSCRIBE now",
			keywords: []string{"unsubscribe"},
			want:     "Body text",
		},
		{
			name:     "underscore separator",
			body:     "Body text\n____\nThis list: unsubscribe",
			keywords: []string{"unsubscribe"},
			want:     "Body text",
		},
		{
			name:     "keyword outside trailing block untouched",
			body:     "unsubscribe mentioned early\n--\ncheers",
			keywords: []string{"unsubscribe"},
			want:     "unsubscribe mentioned early\n--\ncheers",
		},
		{
			name:     "whole body is the trailing block",
			body:     "click to unsubscribe",
			keywords: []string{"unsubscribe"},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripFooter(tt.body, tt.keywords)
			if got != tt.want {
				t.Errorf("StripFooter(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestStripFooterRemovalShrinksBody(t *testing.T) {
	bodies := []string{
		"Hello\n\nBye\n--\nUnsubscribe here",
		"A\nB\n\nUnsubscribe link",
		"Report attached\n--\nfooter\nwith Unsubscribe\nlines",
	}

	for _, body := range bodies {
		got := StripFooter(body, []string{"Unsubscribe"})
		if len(strings.Split(got, "\n")) >= len(strings.Split(body, "\n")) {
			t.Errorf("StripFooter(%q) = %q, expected fewer lines", body, got)
		}
		if strings.Contains(strings.ToLower(got), "unsubscribe") {
			t.Errorf("StripFooter(%q) = %q, keyword survived", body, got)
		}
	}
}
