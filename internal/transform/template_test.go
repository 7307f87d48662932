package transform

import (
	"strings"
	"testing"
)

func TestParseTemplateValid(t *testing.T) {
	tmpl, err := ParseTemplate("**{sender}** wrote:\n{body}")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}

	got := tmpl.Render("Alice <alice@example.com>", "> Hello")
	want := "**Alice <alice@example.com>** wrote:\n> Hello"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestParseTemplateUnknownPlaceholder(t *testing.T) {
	_, err := ParseTemplate("{sender}: {subjectline}")
	if err == nil {
		t.Fatal("expected error for unknown placeholder")
	}
	if !strings.Contains(err.Error(), "subjectline") {
		t.Errorf("expected placeholder name in error, got: %v", err)
	}
}

func TestParseTemplateNoPlaceholders(t *testing.T) {
	tmpl, err := ParseTemplate("static text")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	if got := tmpl.Render("a", "b"); got != "static text" {
		t.Errorf("Render = %q, want %q", got, "static text")
	}
}

func TestQuoteLines(t *testing.T) {
	got := QuoteLines("first\nsecond")
	want := "> first\n> second"
	if got != want {
		t.Errorf("QuoteLines = %q, want %q", got, want)
	}
}
