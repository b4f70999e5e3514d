package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// BehaviourRepo records points adjustments and sums them into totals.
type BehaviourRepo struct {
	db *sqlx.DB
}

func NewBehaviourRepo(db *sqlx.DB) *BehaviourRepo {
	return &BehaviourRepo{db: db}
}

// Add inserts b and fills in its ID and CreatedAt.
func (r *BehaviourRepo) Add(ctx context.Context, b *model.Behaviour) error {
	b.CreatedAt = now()
	id, err := insertID(ctx, r.db,
		`INSERT INTO behaviours (user_id, course_id, delta, note, created_by_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CourseID, b.Delta, b.Note, b.CreatedByID, b.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert behaviour")
	}
	b.ID = id
	return nil
}

// Total sums a student's deltas within a course.
func (r *BehaviourRepo) Total(ctx context.Context, courseID, userID uint64) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		r.db.Rebind(`SELECT COALESCE(SUM(delta), 0) FROM behaviours WHERE course_id = ? AND user_id = ?`),
		courseID, userID)
	return total, errors.Wrap(err, "sum behaviour")
}

// Totals sums deltas for every student of a course.  Students without
// adjustments are absent from the map.
func (r *BehaviourRepo) Totals(ctx context.Context, courseID uint64) (map[uint64]int, error) {
	var rows []struct {
		UserID uint64 `db:"user_id"`
		Total  int    `db:"total"`
	}
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind(`SELECT user_id, COALESCE(SUM(delta), 0) AS total FROM behaviours WHERE course_id = ? GROUP BY user_id`),
		courseID)
	if err != nil {
		return nil, errors.Wrap(err, "sum behaviours")
	}
	out := make(map[uint64]int, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Total
	}
	return out, nil
}
