package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// PositionPatch is a partial seat update.  Nil fields keep their stored
// value.  Drag marks updates that come from dragging, which a locked seat
// ignores.
type PositionPatch struct {
	X      *float64
	Y      *float64
	Locked *bool
	Drag   bool
}

// PositionRepo persists seat positions.
type PositionRepo struct {
	db *sqlx.DB
}

func NewPositionRepo(db *sqlx.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

const positionColumns = `id, course_id, user_id, x, y, locked, updated_at`

// ListByCourse returns every stored position of a course ordered by user.
func (r *PositionRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.SeatPosition, error) {
	return listPositions(ctx, r.db, courseID)
}

func listPositions(ctx context.Context, q sqlx.ExtContext, courseID uint64) ([]model.SeatPosition, error) {
	var out []model.SeatPosition
	err := sqlx.SelectContext(ctx, q, &out,
		q.Rebind(`SELECT `+positionColumns+` FROM seating_positions WHERE course_id = ? ORDER BY user_id`), courseID)
	if err != nil {
		return nil, errors.Wrap(err, "list positions")
	}
	return out, nil
}

// Get returns ErrPositionNotFound when the student has no stored seat.
func (r *PositionRepo) Get(ctx context.Context, courseID, userID uint64) (*model.SeatPosition, error) {
	return getPosition(ctx, r.db, courseID, userID)
}

func getPosition(ctx context.Context, q sqlx.ExtContext, courseID, userID uint64) (*model.SeatPosition, error) {
	var p model.SeatPosition
	err := sqlx.GetContext(ctx, q, &p,
		q.Rebind(`SELECT `+positionColumns+` FROM seating_positions WHERE course_id = ? AND user_id = ?`),
		courseID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get position")
	}
	return &p, nil
}

func insertPosition(ctx context.Context, ext sqlx.ExtContext, p *model.SeatPosition) error {
	p.UpdatedAt = now()
	id, err := insertID(ctx, ext,
		`INSERT INTO seating_positions (course_id, user_id, x, y, locked, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.CourseID, p.UserID, p.X, p.Y, p.Locked, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert position")
	}
	p.ID = id
	return nil
}

func updatePosition(ctx context.Context, ext sqlx.ExtContext, p *model.SeatPosition) error {
	p.UpdatedAt = now()
	_, err := ext.ExecContext(ctx,
		ext.Rebind(`UPDATE seating_positions SET x = ?, y = ?, locked = ?, updated_at = ? WHERE id = ?`),
		p.X, p.Y, p.Locked, p.UpdatedAt, p.ID)
	return errors.Wrap(err, "update position")
}

// ApplyPatch merges patch into the stored position, creating it when the
// student has none yet.  New rows start at the default seat for any
// coordinate the patch leaves out.  A drag patch against a locked seat
// changes nothing and reports ignored=true.
func (r *PositionRepo) ApplyPatch(ctx context.Context, courseID, userID uint64, patch PositionPatch) (pos *model.SeatPosition, ignored bool, err error) {
	err = retryOnConflict(func() error {
		pos, ignored = nil, false
		return r.applyPatch(ctx, courseID, userID, patch, &pos, &ignored)
	})
	if err != nil {
		return nil, false, err
	}
	return pos, ignored, nil
}

func (r *PositionRepo) applyPatch(ctx context.Context, courseID, userID uint64, patch PositionPatch, pos **model.SeatPosition, ignored *bool) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		cur, err := getPosition(ctx, tx, courseID, userID)
		switch {
		case errors.Is(err, ErrPositionNotFound):
			cur = &model.SeatPosition{CourseID: courseID, UserID: userID, X: model.DefaultSeatX, Y: model.DefaultSeatY}
			mergePatch(cur, patch)
			*pos = cur
			return insertPosition(ctx, tx, cur)
		case err != nil:
			return err
		}
		if cur.Locked && patch.Drag {
			*pos, *ignored = cur, true
			return nil
		}
		mergePatch(cur, patch)
		*pos = cur
		return updatePosition(ctx, tx, cur)
	})
}

func mergePatch(p *model.SeatPosition, patch PositionPatch) {
	if patch.X != nil {
		p.X = *patch.X
	}
	if patch.Y != nil {
		p.Y = *patch.Y
	}
	if patch.Locked != nil {
		p.Locked = *patch.Locked
	}
}

// EnsureDefaults creates a default position for every listed student who
// has none and returns the course's positions keyed by user.
func (r *PositionRepo) EnsureDefaults(ctx context.Context, courseID uint64, userIDs []uint64) (map[uint64]model.SeatPosition, error) {
	var byUser map[uint64]model.SeatPosition
	err := retryOnConflict(func() error {
		byUser = make(map[uint64]model.SeatPosition, len(userIDs))
		return r.ensureDefaults(ctx, courseID, userIDs, byUser)
	})
	if err != nil {
		return nil, err
	}
	return byUser, nil
}

func (r *PositionRepo) ensureDefaults(ctx context.Context, courseID uint64, userIDs []uint64, byUser map[uint64]model.SeatPosition) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rows, err := listPositions(ctx, tx, courseID)
		if err != nil {
			return err
		}
		for _, p := range rows {
			byUser[p.UserID] = p
		}
		for _, uid := range userIDs {
			if _, ok := byUser[uid]; ok {
				continue
			}
			p := model.SeatPosition{CourseID: courseID, UserID: uid, X: model.DefaultSeatX, Y: model.DefaultSeatY}
			if err := insertPosition(ctx, tx, &p); err != nil {
				return err
			}
			byUser[uid] = p
		}
		return nil
	})
}

// SetAllLocked sets the lock flag on every seat of a course in one
// statement and returns the number of rows touched.
func (r *PositionRepo) SetAllLocked(ctx context.Context, courseID uint64, locked bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE seating_positions SET locked = ?, updated_at = ? WHERE course_id = ?`),
		locked, now(), courseID)
	if err != nil {
		return 0, errors.Wrap(err, "bulk lock")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ApplySnapshot writes layout entries for the given enrolled students,
// creating rows that do not exist yet, and returns every position of the
// course afterwards.  Entries for other users are skipped.
func (r *PositionRepo) ApplySnapshot(ctx context.Context, courseID uint64, entries []model.LayoutPosition, enrolled map[uint64]bool) ([]model.SeatPosition, error) {
	var out []model.SeatPosition
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rows, err := listPositions(ctx, tx, courseID)
		if err != nil {
			return err
		}
		byUser := make(map[uint64]*model.SeatPosition, len(rows))
		for i := range rows {
			byUser[rows[i].UserID] = &rows[i]
		}
		for _, e := range entries {
			if !enrolled[e.UserID] {
				continue
			}
			p, ok := byUser[e.UserID]
			if !ok {
				p = &model.SeatPosition{CourseID: courseID, UserID: e.UserID, X: e.X, Y: e.Y, Locked: e.Locked}
				if err := insertPosition(ctx, tx, p); err != nil {
					return err
				}
				byUser[e.UserID] = p
				continue
			}
			p.X, p.Y, p.Locked = e.X, e.Y, e.Locked
			if err := updatePosition(ctx, tx, p); err != nil {
				return err
			}
		}
		out, err = listPositions(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
