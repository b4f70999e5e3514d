package model

// SeatPosition stores where a student sits on a course's seating chart.
// There is at most one row per (course, student) pair.  Coordinates are
// top-left offsets in chart pixels; Locked seats cannot be dragged.
//
// Fields:
//  ID        – primary key identifier.
//  CourseID  – course whose chart this position belongs to.
//  UserID    – the student occupying the seat.
//  X, Y      – top-left coordinates of the seat.
//  Locked    – whether drag updates are ignored for this seat.
//  UpdatedAt – RFC3339 timestamp of the last write.
type SeatPosition struct {
	ID        uint64  `db:"id"`         // seating_positions.id
	CourseID  uint64  `db:"course_id"`  // seating_positions.course_id
	UserID    uint64  `db:"user_id"`    // seating_positions.user_id
	X         float64 `db:"x"`          // seating_positions.x
	Y         float64 `db:"y"`          // seating_positions.y
	Locked    bool    `db:"locked"`     // seating_positions.locked
	UpdatedAt string  `db:"updated_at"` // seating_positions.updated_at
}

// DefaultSeatX and DefaultSeatY place a student who has never been
// positioned.
const (
	DefaultSeatX = 50
	DefaultSeatY = 50
)
