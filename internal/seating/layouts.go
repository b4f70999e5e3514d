package seating

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

var (
	ErrNoLayoutName     = errors.New("enter a layout name or select one to overwrite")
	ErrNoLayoutSelected = errors.New("select a layout to load")
	ErrUnknownLayout    = errors.New("no such layout in the catalog")
	ErrSaveCancelled    = errors.New("layout save cancelled")
)

// catalog is the client's copy of the saved layouts plus the selection
// and free-text name inputs.
type catalog struct {
	entries  []syncclient.LayoutSummary
	selected uint64
	name     string
}

func (cat *catalog) byID(id uint64) (syncclient.LayoutSummary, bool) {
	for _, e := range cat.entries {
		if e.ID == id {
			return e, true
		}
	}
	return syncclient.LayoutSummary{}, false
}

func (cat *catalog) byName(name string) (syncclient.LayoutSummary, bool) {
	for _, e := range cat.entries {
		if e.Name == name {
			return e, true
		}
	}
	return syncclient.LayoutSummary{}, false
}

// Layouts returns the catalog and the selected id (zero for none).
func (c *Chart) Layouts() ([]syncclient.LayoutSummary, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]syncclient.LayoutSummary(nil), c.catalog.entries...), c.catalog.selected
}

// SetLayoutName sets the free-text layout name.
func (c *Chart) SetLayoutName(name string) {
	c.mu.Lock()
	c.catalog.name = name
	c.mu.Unlock()
}

// LayoutName returns the free-text layout name.
func (c *Chart) LayoutName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.name
}

// SelectLayout selects a catalog entry; zero clears the selection.
func (c *Chart) SelectLayout(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != 0 {
		if _, ok := c.catalog.byID(id); !ok {
			return errors.Wrapf(ErrUnknownLayout, "layout %d", id)
		}
	}
	c.catalog.selected = id
	return nil
}

// ListLayouts refreshes the catalog.  The selection survives when its
// entry is still listed.
func (c *Chart) ListLayouts(ctx context.Context) error {
	entries, err := c.syncer.ListLayouts(ctx)
	if err != nil {
		return c.fail("layouts not listed", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog.entries = entries
	if _, ok := c.catalog.byID(c.catalog.selected); !ok {
		c.catalog.selected = 0
	}
	return nil
}

// SaveLayout saves the server's current arrangement as a named layout.
// The name is the free-text input or, when that is blank, the selected
// entry.  Reusing an existing name asks for confirmation first and a
// refusal makes no call.  On success the input is cleared, the catalog
// refreshed and the saved entry selected.
func (c *Chart) SaveLayout(ctx context.Context) (syncclient.SavedLayout, error) {
	c.mu.Lock()
	name := strings.TrimSpace(c.catalog.name)
	var confirm string
	switch {
	case name != "":
		if _, exists := c.catalog.byName(name); exists {
			confirm = fmt.Sprintf("A layout named %q already exists. Overwrite it?", name)
		}
	case c.catalog.selected != 0:
		sel, _ := c.catalog.byID(c.catalog.selected)
		name = sel.Name
		confirm = fmt.Sprintf("Overwrite layout %q with the current seating?", name)
	}
	c.mu.Unlock()

	if name == "" {
		c.prompt.Alert(ErrNoLayoutName.Error())
		return syncclient.SavedLayout{}, ErrNoLayoutName
	}
	overwrite := confirm != ""
	if overwrite && !c.prompt.Confirm(confirm) {
		return syncclient.SavedLayout{}, ErrSaveCancelled
	}

	saved, err := c.syncer.SaveLayout(ctx, name, overwrite)
	if err != nil {
		return syncclient.SavedLayout{}, c.fail("layout not saved", err)
	}

	c.mu.Lock()
	c.catalog.name = ""
	c.mu.Unlock()

	if err := c.ListLayouts(ctx); err != nil {
		return saved, err
	}
	c.mu.Lock()
	if e, ok := c.catalog.byName(name); ok {
		c.catalog.selected = e.ID
	}
	c.mu.Unlock()
	return saved, nil
}

// LoadLayout applies the selected layout.  Seats listed in the response
// take its position and lock; others are untouched and unknown users are
// skipped.  It returns how many seats changed.
func (c *Chart) LoadLayout(ctx context.Context) (int, error) {
	c.mu.Lock()
	id := c.catalog.selected
	c.mu.Unlock()
	if id == 0 {
		c.prompt.Alert(ErrNoLayoutSelected.Error())
		return 0, ErrNoLayoutSelected
	}

	positions, err := c.syncer.LoadLayout(ctx, id)
	if err != nil {
		return 0, c.fail("layout not loaded", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	applied := 0
	for _, p := range positions {
		s, ok := c.board.seat(p.UserID)
		if !ok {
			continue
		}
		s.X, s.Y, s.Locked = p.X, p.Y, p.Locked
		c.draw(s)
		applied++
	}
	return applied, nil
}

// fail logs a user-initiated failure and shows it.
func (c *Chart) fail(what string, err error) error {
	c.log.Warn(what, zap.Error(err))
	c.prompt.Alert(err.Error())
	return err
}
