package model

import (
	"errors"
	"strings"
	"testing"
)

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.khanacademy.org/math", "khanacademy.org"},
		{"https://ocw.mit.edu/courses", "ocw.mit.edu"},
		{"not a url", FallbackResourceTitle},
		{"", FallbackResourceTitle},
		{"://broken", FallbackResourceTitle},
	}
	for _, tt := range tests {
		if got := TitleFromURL(tt.url); got != tt.want {
			t.Errorf("TitleFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	r, err := NewResource(" https://www.youtube.com/watch?v=1 ", "", ResourceVideo)
	if err != nil {
		t.Fatalf("NewResource failed: %v", err)
	}
	if r.Title != "youtube.com" {
		t.Errorf("Expected derived title youtube.com, got %q", r.Title)
	}
	if r.URL != "https://www.youtube.com/watch?v=1" {
		t.Errorf("Expected trimmed URL, got %q", r.URL)
	}
	if !strings.HasPrefix(r.ID, "res-") {
		t.Errorf("Expected res- token, got %q", r.ID)
	}

	if _, err := NewResource("  ", "Title", ResourceLink); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestParseResourceType(t *testing.T) {
	tests := map[string]ResourceType{
		"":        ResourceLink,
		"Video":   ResourceVideo,
		"article": ResourceArticle,
		"podcast": ResourceOther,
	}
	for in, want := range tests {
		if got := ParseResourceType(in); got != want {
			t.Errorf("ParseResourceType(%q) = %q, want %q", in, got, want)
		}
	}
}
