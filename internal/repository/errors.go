// Package repository holds the SQL data access for the seating service.
// Sentinel errors let handlers pick a status code without inspecting
// driver errors: not-found values map to 404, ErrNotEnrolled to 403 and
// ErrLayoutExists to 409.
package repository

import "github.com/pkg/errors"

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrPositionNotFound = errors.New("seat position not found")
	ErrLayoutNotFound   = errors.New("layout not found")

	// ErrLayoutExists is returned when saving under an existing name
	// without asking to overwrite.
	ErrLayoutExists = errors.New("layout name already exists")

	// ErrNotEnrolled is returned when a student is not part of the course.
	ErrNotEnrolled = errors.New("user not enrolled in course")
)
