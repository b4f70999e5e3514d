package model

// SeatingLayout is a named snapshot of every seat position in a course.
// Names are unique per course.  Data holds the JSON encoded list of
// LayoutPosition values captured at save time.
//
// Fields:
//  ID        – primary key identifier.
//  CourseID  – course the snapshot belongs to.
//  Name      – user chosen name, unique within the course.
//  Data      – JSON array of LayoutPosition.
//  UpdatedAt – RFC3339 timestamp of the last save.
type SeatingLayout struct {
	ID        uint64 `db:"id"`         // seating_layouts.id
	CourseID  uint64 `db:"course_id"`  // seating_layouts.course_id
	Name      string `db:"name"`       // seating_layouts.name
	Data      string `db:"data"`       // seating_layouts.data
	UpdatedAt string `db:"updated_at"` // seating_layouts.updated_at
}

// LayoutPosition is one entry of a layout snapshot and also the wire shape
// of a seat position in API responses.
type LayoutPosition struct {
	UserID uint64  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Locked bool    `json:"locked"`
}
