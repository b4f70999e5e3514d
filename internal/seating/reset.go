package seating

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

const (
	gridOrigin = 20
	gridGap    = 20
	// gridColumns is used when the surface width is unknown.
	gridColumns = 6
)

type move struct {
	userID uint64
	x, y   float64
}

// ResetGrid lines unlocked seats up in rows in board order, then saves
// each one.  Locked seats keep their place and take no cell.  Failed
// saves are only logged.
func (c *Chart) ResetGrid(ctx context.Context) int {
	c.mu.Lock()
	cellW, cellH := 0.0, 0.0
	for _, s := range c.board.seats {
		w, h := s.size()
		cellW, cellH = math.Max(cellW, w), math.Max(cellH, h)
	}
	cols := gridColumns
	if c.surface.Width > 0 {
		cols = int((c.surface.Width - gridOrigin + gridGap) / (cellW + gridGap))
	}
	if cols < 1 {
		cols = 1
	}

	var moves []move
	for _, s := range c.board.seats {
		if s.Locked {
			continue
		}
		i := len(moves)
		col, row := i%cols, i/cols
		c.place(s, gridOrigin+float64(col)*(cellW+gridGap), gridOrigin+float64(row)*(cellH+gridGap))
		moves = append(moves, move{userID: s.UserID, x: s.X, y: s.Y})
	}
	c.mu.Unlock()

	for _, m := range moves {
		c.savePosition(ctx, m.userID, m.x, m.y, false)
	}
	return len(moves)
}

// MoveSeat puts a seat at (x, y), clamped to the surface, and saves it as
// a plain update.  Locked seats do not move.
func (c *Chart) MoveSeat(ctx context.Context, userID uint64, x, y float64) (Seat, error) {
	c.mu.Lock()
	s, ok := c.board.seat(userID)
	if !ok {
		c.mu.Unlock()
		return Seat{}, ErrUnknownSeat
	}
	if s.Locked {
		c.mu.Unlock()
		return *s, ErrSeatLocked
	}
	c.place(s, x, y)
	moved := *s
	c.mu.Unlock()

	if err := c.syncer.UpdateSeat(ctx, userID, syncclient.MovePatch(moved.X, moved.Y, false)); err != nil {
		c.log.Warn("seat move not saved", zap.Uint64("user_id", userID), zap.Error(err))
		return moved, errors.Wrap(err, "save seat")
	}
	return moved, nil
}
