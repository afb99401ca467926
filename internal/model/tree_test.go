package model

import (
	"strings"
	"testing"
)

func TestNewTree(t *testing.T) {
	tree := NewTree()
	if tree.Title != DefaultTitle {
		t.Errorf("Expected title %q, got %q", DefaultTitle, tree.Title)
	}
	if tree.Courses == nil || len(tree.Courses) != 0 {
		t.Errorf("Expected empty non-nil courses, got %#v", tree.Courses)
	}
	if tree.Author() != AnonymousAuthor {
		t.Errorf("Expected anonymous author, got %q", tree.Author())
	}
}

func TestCanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusLocked, StatusCompleted, true},
		{StatusCompleted, StatusLocked, false},
		{StatusLocked, StatusReviewed, false},
		{StatusCompleted, StatusReviewed, false},
		{StatusReviewed, StatusCompleted, false},
		{StatusCompleted, StatusCompleted, false},
		{Status("bogus"), StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.want {
			t.Errorf("%s.CanAdvanceTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCoursesByYearAndFind(t *testing.T) {
	tree := TreeData{Courses: []Course{
		{ID: "a", Year: 1},
		{ID: "b", Year: 2},
		{ID: "c", Year: 1},
	}}

	year1 := tree.CoursesByYear(1)
	if len(year1) != 2 || year1[0].ID != "a" || year1[1].ID != "c" {
		t.Errorf("Expected [a c] in insertion order, got %+v", year1)
	}
	if got := tree.CoursesByYear(4); len(got) != 0 {
		t.Errorf("Expected no courses in year 4, got %+v", got)
	}
	if tree.FindCourse("b") != 1 {
		t.Errorf("Expected b at index 1, got %d", tree.FindCourse("b"))
	}
	if tree.FindCourse("z") != -1 {
		t.Error("Expected -1 for unknown course")
	}
}

func TestCloneIsDeep(t *testing.T) {
	rating := 3
	tree := TreeData{
		Title:       "Plan",
		ContactInfo: StringPtr("me"),
		Courses: []Course{{
			ID:        "a",
			Rating:    &rating,
			Review:    StringPtr("good"),
			Resources: []Resource{{ID: "r", URL: "https://x.org"}},
		}},
	}

	clone := tree.Clone()
	*clone.ContactInfo = "changed"
	*clone.Courses[0].Rating = 5
	*clone.Courses[0].Review = "bad"
	clone.Courses[0].Resources[0].URL = "https://y.org"

	if *tree.ContactInfo != "me" || *tree.Courses[0].Rating != 3 || *tree.Courses[0].Review != "good" {
		t.Error("Expected clone edits not to leak into the source")
	}
	if tree.Courses[0].Resources[0].URL != "https://x.org" {
		t.Error("Expected resources to be copied")
	}
}

func TestTruncateReview(t *testing.T) {
	short := "fine"
	if TruncateReview(short) != short {
		t.Errorf("Expected short review unchanged")
	}
	long := strings.Repeat("é", MaxReviewLength+10)
	got := TruncateReview(long)
	if n := len([]rune(got)); n != MaxReviewLength {
		t.Errorf("Expected %d characters, got %d", MaxReviewLength, n)
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("Expected nil for empty string")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Errorf("Expected pointer to x, got %v", p)
	}
}
