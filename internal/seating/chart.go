package seating

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

// Syncer persists chart changes.  *syncclient.Client implements it.
type Syncer interface {
	UpdateSeat(ctx context.Context, userID uint64, p syncclient.Patch) error
	BulkLock(ctx context.Context, locked bool) error
	AdjustScore(ctx context.Context, userID uint64, delta int) (syncclient.Adjustment, error)
	ListLayouts(ctx context.Context) ([]syncclient.LayoutSummary, error)
	SaveLayout(ctx context.Context, name string, overwrite bool) (syncclient.SavedLayout, error)
	LoadLayout(ctx context.Context, id uint64) ([]syncclient.Position, error)
}

// Prompter asks the user things.  Both calls block until answered.
type Prompter interface {
	Confirm(msg string) bool
	Alert(msg string)
}

type silentPrompter struct{}

func (silentPrompter) Confirm(string) bool { return false }
func (silentPrompter) Alert(string)        {}

// Surface is the drop area.  A zero extent leaves that axis unbounded
// above.
type Surface struct {
	Width  float64
	Height float64
}

// Chart owns a board and every handler that changes it.
type Chart struct {
	mu      sync.Mutex
	board   *Board
	syncer  Syncer
	prompt  Prompter
	render  Renderer
	log     *zap.Logger
	surface Surface
	drag    *DragSession
	catalog catalog
}

// Option customises a Chart.
type Option func(*Chart)

func WithLogger(l *zap.Logger) Option {
	return func(c *Chart) {
		if l != nil {
			c.log = l
		}
	}
}

func WithPrompter(p Prompter) Option {
	return func(c *Chart) { c.prompt = p }
}

func WithRenderer(r Renderer) Option {
	return func(c *Chart) { c.render = r }
}

func WithSurface(s Surface) Option {
	return func(c *Chart) { c.surface = s }
}

// NewChart wires a board to a syncer and draws every seat once.
func NewChart(board *Board, s Syncer, opts ...Option) *Chart {
	c := &Chart{
		board:  board,
		syncer: s,
		prompt: silentPrompter{},
		render: nopRenderer{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, seat := range board.seats {
		c.draw(seat)
	}
	return c
}

// SetSurface records a new surface size, e.g. after a resize.  Seats are
// not moved; the new bounds apply from the next move.
func (c *Chart) SetSurface(s Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

// Seat returns a copy of one seat.
func (c *Chart) Seat(userID uint64) (Seat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.board.seat(userID)
	if !ok {
		return Seat{}, false
	}
	return *s, true
}

// Seats returns copies of all seats in board order.
func (c *Chart) Seats() []Seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Seat, 0, len(c.board.seats))
	for _, s := range c.board.seats {
		out = append(out, *s)
	}
	return out
}

// draw must be called with c.mu held.
func (c *Chart) draw(s *Seat) {
	c.render.Render(Project(*s))
}

// bounds returns the largest top-left corner s may take.
func (c *Chart) bounds(s *Seat) (float64, float64) {
	w, h := s.size()
	maxX, maxY := math.Inf(1), math.Inf(1)
	if c.surface.Width > 0 {
		maxX = c.surface.Width - w
	}
	if c.surface.Height > 0 {
		maxY = c.surface.Height - h
	}
	return maxX, maxY
}

// clamp keeps v within [0, max].  The lower bound wins when the seat is
// larger than the surface.
func clamp(v, max float64) float64 {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// place clamps (x, y) for s and moves it.
func (c *Chart) place(s *Seat, x, y float64) {
	maxX, maxY := c.bounds(s)
	s.X = clamp(x, maxX)
	s.Y = clamp(y, maxY)
	c.draw(s)
}

// savePosition persists a position in the background and only logs a
// failure.
func (c *Chart) savePosition(ctx context.Context, userID uint64, x, y float64, drag bool) {
	if err := c.syncer.UpdateSeat(ctx, userID, syncclient.MovePatch(x, y, drag)); err != nil {
		c.log.Warn("seat position not saved",
			zap.Uint64("user_id", userID), zap.Bool("drag", drag), zap.Error(err))
	}
}
