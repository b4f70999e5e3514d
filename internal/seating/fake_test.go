package seating

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

type call struct {
	Op     string
	UserID uint64
	Patch  syncclient.Patch
	Locked bool
	Delta  int
	Name   string
	Over   bool
	ID     uint64
}

// fakeSyncer records calls and answers from its fields.
type fakeSyncer struct {
	mu    sync.Mutex
	calls []call

	updateErr error
	bulkErr   error

	adjust    func(userID uint64, delta int) (syncclient.Adjustment, error)
	layouts   []syncclient.LayoutSummary
	listErr   error
	saveErr   error
	positions []syncclient.Position
	loadErr   error
}

func (f *fakeSyncer) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeSyncer) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeSyncer) count(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *fakeSyncer) UpdateSeat(_ context.Context, userID uint64, p syncclient.Patch) error {
	f.record(call{Op: "update", UserID: userID, Patch: p})
	return f.updateErr
}

func (f *fakeSyncer) BulkLock(_ context.Context, locked bool) error {
	f.record(call{Op: "bulk", Locked: locked})
	return f.bulkErr
}

func (f *fakeSyncer) AdjustScore(_ context.Context, userID uint64, delta int) (syncclient.Adjustment, error) {
	f.record(call{Op: "adjust", UserID: userID, Delta: delta})
	if f.adjust == nil {
		return syncclient.Adjustment{}, nil
	}
	return f.adjust(userID, delta)
}

func (f *fakeSyncer) ListLayouts(context.Context) ([]syncclient.LayoutSummary, error) {
	f.record(call{Op: "list"})
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncclient.LayoutSummary(nil), f.layouts...), f.listErr
}

func (f *fakeSyncer) SaveLayout(_ context.Context, name string, overwrite bool) (syncclient.SavedLayout, error) {
	f.record(call{Op: "save", Name: name, Over: overwrite})
	if f.saveErr != nil {
		return syncclient.SavedLayout{}, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.layouts {
		if l.Name == name {
			return syncclient.SavedLayout{ID: l.ID, Name: name}, nil
		}
	}
	id := uint64(len(f.layouts) + 100)
	f.layouts = append(f.layouts, syncclient.LayoutSummary{ID: id, Name: name})
	return syncclient.SavedLayout{ID: id, Name: name}, nil
}

func (f *fakeSyncer) LoadLayout(_ context.Context, id uint64) ([]syncclient.Position, error) {
	f.record(call{Op: "load", ID: id})
	return f.positions, f.loadErr
}

var errBoom = errors.New("boom")

// fakePrompter answers confirmations with answer and records messages.
type fakePrompter struct {
	answer   bool
	confirms []string
	alerts   []string
}

func (p *fakePrompter) Confirm(msg string) bool {
	p.confirms = append(p.confirms, msg)
	return p.answer
}

func (p *fakePrompter) Alert(msg string) { p.alerts = append(p.alerts, msg) }
