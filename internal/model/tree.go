package model

import "unicode/utf8"

const (
	// DefaultTitle is the placeholder title of a new or legacy tree.
	DefaultTitle = "My Course Tree"

	// AnonymousAuthor is shown when a tree has no author name.
	AnonymousAuthor = "Anonymous"

	// MaxReviewLength is the number of characters kept from a one-line review.
	MaxReviewLength = 140

	// MinYear and MaxYear bound the year column a course is placed in.
	MinYear = 1
	MaxYear = 4
)

// Status is the completion state of a course.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
	StatusReviewed  Status = "reviewed"
)

func (s Status) rank() int {
	switch s {
	case StatusLocked:
		return 0
	case StatusCompleted:
		return 1
	case StatusReviewed:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

// CanAdvanceTo reports whether a course may move from s to next.
// Status only moves forward, and never skips into reviewed: that state is
// reserved for the save-review action.
func (s Status) CanAdvanceTo(next Status) bool {
	if next == StatusReviewed {
		return false
	}
	return next.rank() > s.rank() && s.Valid()
}

// Course is one unit in the plan, placed in a year column.
type Course struct {
	ID         string     `json:"id" validate:"required"`
	Name       string     `json:"name"`
	Year       int        `json:"year" validate:"min=1,max=4"`
	Status     Status     `json:"status" validate:"oneof=locked completed reviewed"`
	Rating     *int       `json:"rating" validate:"omitempty,min=1,max=5"`
	Review     *string    `json:"review"`
	ProfReview string     `json:"prof_review"`
	Resources  []Resource `json:"resources" validate:"dive"`
}

// TreeData is the full persisted document behind one shareable tree.
type TreeData struct {
	Courses     []Course `json:"courses" validate:"dive"`
	Title       string   `json:"title"`
	Likes       int      `json:"likes" validate:"min=0"`
	ContactInfo *string  `json:"contact_info"`
	AuthorName  *string  `json:"author_name,omitempty"`
}

// NewTree returns an empty tree with default title and no likes.
func NewTree() TreeData {
	return TreeData{
		Courses: []Course{},
		Title:   DefaultTitle,
	}
}

// Author returns the display name of the tree's author.
func (t TreeData) Author() string {
	if t.AuthorName == nil || *t.AuthorName == "" {
		return AnonymousAuthor
	}
	return *t.AuthorName
}

// CoursesByYear returns the courses placed in the given year column, in insertion order.
func (t TreeData) CoursesByYear(year int) []Course {
	var out []Course
	for _, c := range t.Courses {
		if c.Year == year {
			out = append(out, c)
		}
	}
	return out
}

// FindCourse returns the index of the course with the given ID, or -1.
func (t TreeData) FindCourse(id string) int {
	for i := range t.Courses {
		if t.Courses[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the tree so callers can mutate it freely.
func (t TreeData) Clone() TreeData {
	out := t
	out.ContactInfo = cloneString(t.ContactInfo)
	out.AuthorName = cloneString(t.AuthorName)
	out.Courses = make([]Course, len(t.Courses))
	for i, c := range t.Courses {
		out.Courses[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	out := c
	if c.Rating != nil {
		r := *c.Rating
		out.Rating = &r
	}
	out.Review = cloneString(c.Review)
	out.Resources = make([]Resource, len(c.Resources))
	copy(out.Resources, c.Resources)
	return out
}

// TruncateReview cuts a review to MaxReviewLength characters.
func TruncateReview(review string) string {
	if utf8.RuneCountInString(review) <= MaxReviewLength {
		return review
	}
	runes := []rune(review)
	return string(runes[:MaxReviewLength])
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
