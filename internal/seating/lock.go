package seating

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

// ToggleLock flips a seat's lock, redraws it and persists the new flag.
// The flip stays in place when the save fails.
func (c *Chart) ToggleLock(ctx context.Context, userID uint64) (bool, error) {
	c.mu.Lock()
	s, ok := c.board.seat(userID)
	if !ok {
		c.mu.Unlock()
		return false, ErrUnknownSeat
	}
	s.Locked = !s.Locked
	locked := s.Locked
	c.draw(s)
	c.mu.Unlock()

	if err := c.syncer.UpdateSeat(ctx, userID, syncclient.LockPatch(locked)); err != nil {
		c.log.Warn("seat lock not saved", zap.Uint64("user_id", userID), zap.Error(err))
		return locked, err
	}
	return locked, nil
}

// BulkLock sets every seat's lock flag and persists it with a single
// course-wide call.
func (c *Chart) BulkLock(ctx context.Context, locked bool) error {
	c.mu.Lock()
	for _, s := range c.board.seats {
		s.Locked = locked
		c.draw(s)
	}
	c.mu.Unlock()

	if err := c.syncer.BulkLock(ctx, locked); err != nil {
		c.log.Warn("bulk lock not saved", zap.Bool("locked", locked), zap.Error(err))
		return err
	}
	return nil
}
