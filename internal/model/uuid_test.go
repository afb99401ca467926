package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateShortID(t *testing.T) {
	id := GenerateShortID()
	if len(id) != 26 {
		t.Errorf("Expected 26 characters, got %d (%s)", len(id), id)
	}
	if !ValidateTreeID(id) {
		t.Errorf("Expected generated ID %s to validate", id)
	}
	if id != strings.ToLower(id) {
		t.Errorf("Expected lowercase ID, got %s", id)
	}
}

func TestValidateTreeID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc123", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"42", true},
		{"under_score", true},
		{"", false},
		{"../etc/passwd", false},
		{"has space", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		if got := ValidateTreeID(tt.id); got != tt.want {
			t.Errorf("ValidateTreeID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNewToken(t *testing.T) {
	a, b := NewToken("course"), NewToken("course")
	if !strings.HasPrefix(a, "course-") {
		t.Errorf("Expected course- prefix, got %s", a)
	}
	if a == b {
		t.Errorf("Expected distinct tokens, got %s twice", a)
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"  abc ", "abc"},
		{"5", "5"},
		{5, "5"},
		{int64(5), "5"},
		{float64(5), "5"},
		{1.5, "1.5"},
		{json.Number("5"), "5"},
		{json.Number("5.0"), "5"},
		{uint(7), "7"},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIDMatchesAcrossTypes(t *testing.T) {
	if NormalizeID("5") != NormalizeID(5) {
		t.Error("Expected \"5\" and 5 to normalize to the same identifier")
	}
}
