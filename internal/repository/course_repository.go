package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// CourseRepo reads courses, users and enrollments.  Seating never edits
// rosters in normal operation; the write methods exist for seeding and
// tests.
type CourseRepo struct {
	db *sqlx.DB
}

func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

// Create inserts a course and returns its id.
func (r *CourseRepo) Create(ctx context.Context, name string) (uint64, error) {
	id, err := insertID(ctx, r.db, `INSERT INTO courses (name) VALUES (?)`, name)
	return id, errors.Wrap(err, "insert course")
}

// GetByID returns ErrCourseNotFound when the course does not exist.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
	var c model.Course
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT id, name FROM courses WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get course")
	}
	return &c, nil
}

// CreateUser inserts u and fills in its ID.
func (r *CourseRepo) CreateUser(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleStudent
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO users (first_name, last_name, role) VALUES (?, ?, ?)`,
		u.FirstName, u.LastName, u.Role)
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	u.ID = id
	return nil
}

// GetUser returns ErrUserNotFound when the user does not exist.
func (r *CourseRepo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		r.db.Rebind(`SELECT id, first_name, last_name, role FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

// Enroll adds a student to a course.
func (r *CourseRepo) Enroll(ctx context.Context, courseID, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO enrollments (course_id, user_id) VALUES (?, ?)`), courseID, userID)
	return errors.Wrap(err, "enroll")
}

// IsEnrolled reports whether userID is a student of courseID.
func (r *CourseRepo) IsEnrolled(ctx context.Context, courseID, userID uint64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		r.db.Rebind(`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND user_id = ?`), courseID, userID)
	if err != nil {
		return false, errors.Wrap(err, "check enrollment")
	}
	return n > 0, nil
}

// Students lists the students of a course ordered by last then first name,
// case-insensitively.
func (r *CourseRepo) Students(ctx context.Context, courseID uint64) ([]model.User, error) {
	const q = `SELECT u.id, u.first_name, u.last_name, u.role
	           FROM users u
	           JOIN enrollments e ON e.user_id = u.id
	           WHERE e.course_id = ?
	           ORDER BY LOWER(u.last_name), LOWER(u.first_name), u.id`
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(q), courseID); err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	return users, nil
}
