package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// LayoutRepo persists named seating layouts.
type LayoutRepo struct {
	db *sqlx.DB
}

func NewLayoutRepo(db *sqlx.DB) *LayoutRepo {
	return &LayoutRepo{db: db}
}

// List returns the layouts of a course ordered by name.  Data is not
// loaded.
func (r *LayoutRepo) List(ctx context.Context, courseID uint64) ([]model.SeatingLayout, error) {
	var out []model.SeatingLayout
	err := r.db.SelectContext(ctx, &out,
		r.db.Rebind(`SELECT id, course_id, name, '' AS data, updated_at FROM seating_layouts WHERE course_id = ? ORDER BY name`),
		courseID)
	if err != nil {
		return nil, errors.Wrap(err, "list layouts")
	}
	return out, nil
}

// Get returns ErrLayoutNotFound when id does not belong to the course.
func (r *LayoutRepo) Get(ctx context.Context, courseID, id uint64) (*model.SeatingLayout, error) {
	var l model.SeatingLayout
	err := r.db.GetContext(ctx, &l,
		r.db.Rebind(`SELECT id, course_id, name, data, updated_at FROM seating_layouts WHERE course_id = ? AND id = ?`),
		courseID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLayoutNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get layout")
	}
	return &l, nil
}

// Save snapshots positions under name.  An existing layout with the same
// name is replaced only when overwrite is set; otherwise ErrLayoutExists is
// returned and nothing changes.
func (r *LayoutRepo) Save(ctx context.Context, courseID uint64, name string, positions []model.SeatPosition, overwrite bool) (*model.SeatingLayout, error) {
	entries := make([]model.LayoutPosition, 0, len(positions))
	for _, p := range positions {
		entries = append(entries, model.LayoutPosition{UserID: p.UserID, X: p.X, Y: p.Y, Locked: p.Locked})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, errors.Wrap(err, "encode layout")
	}

	var saved model.SeatingLayout
	err = retryOnConflict(func() error {
		saved = model.SeatingLayout{}
		return r.save(ctx, courseID, name, string(data), overwrite, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *LayoutRepo) save(ctx context.Context, courseID uint64, name, data string, overwrite bool, out *model.SeatingLayout) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var saved model.SeatingLayout
		err := tx.GetContext(ctx, &saved,
			tx.Rebind(`SELECT id, course_id, name, data, updated_at FROM seating_layouts WHERE course_id = ? AND name = ?`),
			courseID, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			saved = model.SeatingLayout{CourseID: courseID, Name: name, Data: data, UpdatedAt: now()}
			id, err := insertID(ctx, tx,
				`INSERT INTO seating_layouts (course_id, name, data, updated_at) VALUES (?, ?, ?, ?)`,
				saved.CourseID, saved.Name, saved.Data, saved.UpdatedAt)
			if err != nil {
				return errors.Wrap(err, "insert layout")
			}
			saved.ID = id
			*out = saved
			return nil
		case err != nil:
			return errors.Wrap(err, "find layout")
		case !overwrite:
			return ErrLayoutExists
		}
		saved.Data, saved.UpdatedAt = data, now()
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`UPDATE seating_layouts SET data = ?, updated_at = ? WHERE id = ?`),
			saved.Data, saved.UpdatedAt, saved.ID)
		if err != nil {
			return errors.Wrap(err, "update layout")
		}
		*out = saved
		return nil
	})
}

// Entries decodes the snapshot stored in a layout.
func Entries(l *model.SeatingLayout) ([]model.LayoutPosition, error) {
	var out []model.LayoutPosition
	if l.Data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(l.Data), &out); err != nil {
		return nil, errors.Wrap(err, "layout data is invalid")
	}
	return out, nil
}
