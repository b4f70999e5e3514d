package seating

import "context"

// PointerEvent is one pointer input in surface coordinates.  Target is the
// seat under the pointer on a press (zero when none) and OnButton reports
// that the press landed on a control inside the seat.
type PointerEvent struct {
	PointerID int
	X         float64
	Y         float64
	Target    uint64
	OnButton  bool
}

// DragSession tracks the seat being dragged.  The grab offset is the
// pointer's distance from the seat's top-left corner at press time.
type DragSession struct {
	PointerID int
	UserID    uint64
	GrabX     float64
	GrabY     float64
}

// Dragging returns the active session, if any.
func (c *Chart) Dragging() (DragSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil {
		return DragSession{}, false
	}
	return *c.drag, true
}

// PointerDown starts a drag of the target seat.  Presses on locked seats,
// on controls, off any seat, or while another pointer is dragging are
// ignored.  It reports whether a session started.
func (c *Chart) PointerDown(ev PointerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag != nil || ev.OnButton {
		return false
	}
	s, ok := c.board.seat(ev.Target)
	if !ok || s.Locked {
		return false
	}
	c.drag = &DragSession{
		PointerID: ev.PointerID,
		UserID:    s.UserID,
		GrabX:     ev.X - s.X,
		GrabY:     ev.Y - s.Y,
	}
	return true
}

// PointerMove moves the dragged seat so the grab point follows the
// pointer, clamped to the surface.  Nothing is saved.
func (c *Chart) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.drag
	if d == nil || d.PointerID != ev.PointerID {
		return
	}
	s, ok := c.board.seat(d.UserID)
	if !ok {
		return
	}
	c.place(s, ev.X-d.GrabX, ev.Y-d.GrabY)
}

// PointerUp ends the session and saves the final position as a drag
// update, even when the seat never moved.  A failed save is logged and
// the position is kept.
func (c *Chart) PointerUp(ctx context.Context, ev PointerEvent) {
	c.mu.Lock()
	d := c.drag
	if d == nil || d.PointerID != ev.PointerID {
		c.mu.Unlock()
		return
	}
	c.drag = nil
	s, ok := c.board.seat(d.UserID)
	if !ok {
		c.mu.Unlock()
		return
	}
	userID, x, y := s.UserID, s.X, s.Y
	c.mu.Unlock()

	c.savePosition(ctx, userID, x, y, true)
}

// VisibilityHidden saves the dragged seat's current position when the
// view is hidden mid-drag.  The session stays open.
func (c *Chart) VisibilityHidden(ctx context.Context) {
	c.mu.Lock()
	if c.drag == nil {
		c.mu.Unlock()
		return
	}
	s, ok := c.board.seat(c.drag.UserID)
	if !ok {
		c.mu.Unlock()
		return
	}
	userID, x, y := s.UserID, s.X, s.Y
	c.mu.Unlock()

	c.savePosition(ctx, userID, x, y, true)
}
