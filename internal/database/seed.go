package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/repository"
)

var demoStudents = []model.User{
	{FirstName: "Ava", LastName: "Nguyen"},
	{FirstName: "Liam", LastName: "Brown"},
	{FirstName: "Mia", LastName: "Wilson"},
	{FirstName: "Noah", LastName: "Taylor"},
	{FirstName: "Zoe", LastName: "Martin"},
	{FirstName: "Jack", LastName: "Lee"},
}

// SeedDemo creates a demo course with a handful of students and one staff
// user when the database has no courses.  It returns the course id and the
// staff user id, or zeros when data already existed.
func SeedDemo(ctx context.Context, db *sqlx.DB) (courseID, staffID uint64, err error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, 0, errors.Wrap(err, "count courses")
	}
	if n > 0 {
		return 0, 0, nil
	}

	courses := repository.NewCourseRepo(db)
	courseID, err = courses.Create(ctx, "Demo Class")
	if err != nil {
		return 0, 0, err
	}
	staff := model.User{FirstName: "Demo", LastName: "Teacher", Role: model.RoleIssuer}
	if err := courses.CreateUser(ctx, &staff); err != nil {
		return 0, 0, err
	}
	for _, s := range demoStudents {
		s.Role = model.RoleStudent
		if err := courses.CreateUser(ctx, &s); err != nil {
			return 0, 0, err
		}
		if err := courses.Enroll(ctx, courseID, s.ID); err != nil {
			return 0, 0, err
		}
	}
	return courseID, staff.ID, nil
}
