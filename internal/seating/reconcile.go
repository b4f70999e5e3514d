package seating

import (
	"strconv"
	"strings"
	"sync"
)

// ScoreClass is the visual class matching the sign of a score total.
type ScoreClass string

const (
	ScorePositive ScoreClass = "score-positive"
	ScoreNegative ScoreClass = "score-negative"
	ScoreNeutral  ScoreClass = "score-neutral"
)

var scoreClasses = []ScoreClass{ScorePositive, ScoreNegative, ScoreNeutral}

const (
	iconLocked   = "🔒"
	iconUnlocked = "🔓"
)

// Classify maps a total to its class.
func Classify(total int) ScoreClass {
	switch {
	case total > 0:
		return ScorePositive
	case total < 0:
		return ScoreNegative
	}
	return ScoreNeutral
}

// ApplyScoreClass returns classes with every score class removed and the
// one for total appended.  Other classes keep their order.
func ApplyScoreClass(classes []string, total int) []string {
	out := make([]string, 0, len(classes)+1)
	for _, c := range classes {
		if !isScoreClass(c) {
			out = append(out, c)
		}
	}
	return append(out, string(Classify(total)))
}

// SeedScore recovers a seat's starting total from how it was rendered: the
// score attribute first, then the displayed text, else 0.
func SeedScore(attr, text string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(attr)); err == nil {
		return n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		return n
	}
	return 0
}

func isScoreClass(c string) bool {
	for _, sc := range scoreClasses {
		if c == string(sc) {
			return true
		}
	}
	return false
}

// SeatView is what a seat looks like on screen.  It is derived from a Seat
// and never read back.
type SeatView struct {
	UserID   uint64
	Name     string
	Left     float64
	Top      float64
	Locked   bool
	LockIcon string
	Score    int
	Class    ScoreClass
}

// Project derives the view of s.
func Project(s Seat) SeatView {
	icon := iconUnlocked
	if s.Locked {
		icon = iconLocked
	}
	return SeatView{
		UserID:   s.UserID,
		Name:     s.Name,
		Left:     s.X,
		Top:      s.Y,
		Locked:   s.Locked,
		LockIcon: icon,
		Score:    s.Score,
		Class:    Classify(s.Score),
	}
}

// Renderer draws seat views.  Render is called with the chart locked and
// must not call back into the chart.
type Renderer interface {
	Render(v SeatView)
}

type nopRenderer struct{}

func (nopRenderer) Render(SeatView) {}

// MemoryRenderer keeps the last view of every seat.  Each seat carries a
// class list in which ApplyScoreClass swaps the score class, so the list
// behaves like an element's class attribute.
type MemoryRenderer struct {
	mu      sync.Mutex
	views   map[uint64]SeatView
	classes map[uint64][]string
	renders int
}

func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{
		views:   map[uint64]SeatView{},
		classes: map[uint64][]string{},
	}
}

func (r *MemoryRenderer) Render(v SeatView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cls, ok := r.classes[v.UserID]
	if !ok {
		cls = []string{"seat"}
	}
	r.classes[v.UserID] = ApplyScoreClass(cls, v.Score)
	r.views[v.UserID] = v
	r.renders++
}

// View returns the last view drawn for a seat.
func (r *MemoryRenderer) View(userID uint64) (SeatView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[userID]
	return v, ok
}

// Classes returns the class list of a seat.
func (r *MemoryRenderer) Classes(userID uint64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.classes[userID]...)
}

// Renders counts Render calls.
func (r *MemoryRenderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}
