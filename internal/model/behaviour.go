package model

// Behaviour is a single points adjustment for a student in a course.  A
// student's score on the seating chart is the sum of their deltas.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – student receiving the points.
//  CourseID    – course the adjustment was made in.
//  Delta       – non-zero point change.
//  Note        – optional free text.
//  CreatedByID – staff member who made the adjustment.
//  CreatedAt   – RFC3339 timestamp.
type Behaviour struct {
	ID          uint64  `db:"id"`            // behaviours.id
	UserID      uint64  `db:"user_id"`       // behaviours.user_id
	CourseID    uint64  `db:"course_id"`     // behaviours.course_id
	Delta       int     `db:"delta"`         // behaviours.delta
	Note        *string `db:"note"`          // behaviours.note (nullable)
	CreatedByID uint64  `db:"created_by_id"` // behaviours.created_by_id
	CreatedAt   string  `db:"created_at"`    // behaviours.created_at
}
