package tree

import (
	"strings"

	"github.com/bunchhieng/coursetree/internal/model"
)

// NewCourseName is the name given to a freshly added course.
const NewCourseName = "New Course"

// Mutation is a pure edit of a tree. It must not modify its argument.
type Mutation func(model.TreeData) model.TreeData

// Chain applies mutations in order.
func Chain(ms ...Mutation) Mutation {
	return func(t model.TreeData) model.TreeData {
		for _, m := range ms {
			t = m(t)
		}
		return t
	}
}

// NewCourse returns an empty, completed course for the given year.
func NewCourse(year int) model.Course {
	return model.Course{
		ID:        model.NewToken("course"),
		Name:      NewCourseName,
		Year:      year,
		Status:    model.StatusCompleted,
		Resources: []model.Resource{},
	}
}

// AddCourse appends c.
func AddCourse(c model.Course) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		out.Courses = append(out.Courses, c.Clone())
		return out
	}
}

// SaveCourse records a review. The course moves to reviewed; a zero rating
// and an empty review are stored as absent.
func SaveCourse(id, name string, rating int, review, profReview string) Mutation {
	return updateCourse(id, func(c *model.Course) {
		c.Name = name
		c.Status = model.StatusReviewed
		c.Rating = nil
		if rating > 0 {
			r := rating
			c.Rating = &r
		}
		c.Review = model.StringPtr(model.TruncateReview(review))
		c.ProfReview = profReview
	})
}

// DeleteCourse removes the course with the given id.
func DeleteCourse(id string) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		kept := out.Courses[:0]
		for _, c := range out.Courses {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		out.Courses = kept
		return out
	}
}

// SetCourseStatus moves a course forward to status. Backward moves and
// moves into reviewed are ignored.
func SetCourseStatus(id string, status model.Status) Mutation {
	return updateCourse(id, func(c *model.Course) {
		if c.Status.CanAdvanceTo(status) {
			c.Status = status
		}
	})
}

// AddResource appends r to a course's resources.
func AddResource(courseID string, r model.Resource) Mutation {
	return updateCourse(courseID, func(c *model.Course) {
		c.Resources = append(c.Resources, r)
	})
}

// DeleteResource removes a resource by id.
func DeleteResource(courseID, resourceID string) Mutation {
	return updateCourse(courseID, func(c *model.Course) {
		kept := c.Resources[:0]
		for _, r := range c.Resources {
			if r.ID != resourceID {
				kept = append(kept, r)
			}
		}
		c.Resources = kept
	})
}

// SetTitle renames the tree. A blank title restores the default.
func SetTitle(title string) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		out.Title = strings.TrimSpace(title)
		if out.Title == "" {
			out.Title = model.DefaultTitle
		}
		return out
	}
}

// SetContactInfo sets or, when blank, clears the owner's contact info.
func SetContactInfo(info string) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		out.ContactInfo = model.StringPtr(strings.TrimSpace(info))
		return out
	}
}

// SetAuthorName sets or, when blank, clears the author name.
func SetAuthorName(name string) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		out.AuthorName = model.StringPtr(strings.TrimSpace(name))
		return out
	}
}

// IncrementLikes adds one like.
func IncrementLikes() Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		out.Likes++
		return out
	}
}

// updateCourse applies fn to the course with the given id. A missing course
// leaves the tree unchanged.
func updateCourse(id string, fn func(*model.Course)) Mutation {
	return func(t model.TreeData) model.TreeData {
		out := t.Clone()
		if i := out.FindCourse(id); i >= 0 {
			fn(&out.Courses[i])
		}
		return out
	}
}
