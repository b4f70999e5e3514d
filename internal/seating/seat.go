// Package seating holds the interactive side of a seating chart: the seat
// model, pointer dragging, lock controls, score adjustments, the named
// layout catalog, and the presentational state derived from all of them.
//
// A Chart is the single owner of this state.  Its methods play the role of
// input-event handlers: each one runs to completion under the chart's lock
// and only gives the lock up while a call to the seating service is in
// flight.  Handlers therefore never interleave with one another, only with
// the continuations of earlier calls.
package seating

import (
	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

// Rendered size of a seat tile when none is measured.
const (
	DefaultSeatWidth  = 110
	DefaultSeatHeight = 70
)

var (
	ErrUnknownSeat   = errors.New("seating: no such seat")
	ErrDuplicateSeat = errors.New("seating: duplicate seat owner")
	ErrSeatLocked    = errors.New("seating: seat is locked")
)

// Seat is one student's tile.  X and Y are the top-left corner in surface
// coordinates.
type Seat struct {
	UserID uint64
	Name   string
	X      float64
	Y      float64
	Locked bool
	Score  int

	// Width and Height are the rendered size used for clamping.
	Width  float64
	Height float64

	scoreSeq uint64
}

func (s *Seat) size() (float64, float64) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultSeatWidth
	}
	if h <= 0 {
		h = DefaultSeatHeight
	}
	return w, h
}

// Board is the ordered set of seats on a chart, unique per owner.
type Board struct {
	seats []*Seat
	byID  map[uint64]*Seat
}

// NewBoard copies seats into a board, keeping their order.
func NewBoard(seats []Seat) (*Board, error) {
	b := &Board{byID: make(map[uint64]*Seat, len(seats))}
	for i := range seats {
		s := seats[i]
		if _, dup := b.byID[s.UserID]; dup {
			return nil, errors.Wrapf(ErrDuplicateSeat, "user %d", s.UserID)
		}
		b.seats = append(b.seats, &s)
		b.byID[s.UserID] = &s
	}
	return b, nil
}

// BoardFromBootstrap builds the board a chart page was rendered with.
func BoardFromBootstrap(states []syncclient.SeatState) (*Board, error) {
	seats := make([]Seat, 0, len(states))
	for _, st := range states {
		seats = append(seats, Seat{
			UserID: st.UserID,
			Name:   st.Name,
			X:      st.X,
			Y:      st.Y,
			Locked: st.Locked,
			Score:  seedState(st),
		})
	}
	return NewBoard(seats)
}

func seedState(st syncclient.SeatState) int {
	if st.ScoreAttr == "" && st.ScoreLabel == "" {
		return st.Total
	}
	return SeedScore(st.ScoreAttr, st.ScoreLabel)
}

func (b *Board) seat(userID uint64) (*Seat, bool) {
	s, ok := b.byID[userID]
	return s, ok
}

// Len returns the number of seats.
func (b *Board) Len() int { return len(b.seats) }
