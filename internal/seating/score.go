package seating

import (
	"context"

	"go.uber.org/zap"
)

// AdjustScore adds delta to a seat's score at once, then asks the service.
// A total returned by the service replaces the local sum unless a later
// adjustment of the same seat has started since.  On failure the local
// sum stays.  The returned total is what the seat shows afterwards.
func (c *Chart) AdjustScore(ctx context.Context, userID uint64, delta int) (int, error) {
	c.mu.Lock()
	s, ok := c.board.seat(userID)
	if !ok {
		c.mu.Unlock()
		return 0, ErrUnknownSeat
	}
	if delta == 0 {
		total := s.Score
		c.mu.Unlock()
		return total, nil
	}
	s.Score += delta
	s.scoreSeq++
	seq := s.scoreSeq
	c.draw(s)
	c.mu.Unlock()

	adj, err := c.syncer.AdjustScore(ctx, userID, delta)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("score adjustment not saved",
			zap.Uint64("user_id", userID), zap.Int("delta", delta), zap.Error(err))
		return s.Score, err
	}
	if adj.Authoritative && s.scoreSeq == seq {
		s.Score = adj.Total
		c.draw(s)
	}
	return s.Score, nil
}
