package model

import "errors"

var (
	// ErrInvalidID indicates a tree, course or resource identifier is malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidURL indicates an empty resource URL was provided.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrCourseNotFound indicates a mutation referenced a course that is not in the tree.
	ErrCourseNotFound = errors.New("course not found")

	// ErrInvalidTree indicates a document failed validation.
	ErrInvalidTree = errors.New("invalid tree")

	// ErrNotFound indicates a tree ID does not resolve in the document store.
	ErrNotFound = errors.New("tree not found")
)
