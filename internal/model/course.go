package model

// Course is a class whose enrolled students appear on one seating chart.
//
// Fields:
//  ID   – primary key identifier.
//  Name – human readable course name.
type Course struct {
	ID   uint64 `db:"id"`   // courses.id
	Name string `db:"name"` // courses.name
}
