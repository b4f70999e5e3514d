package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Patch is a partial seat update merged by the server.  Nil fields are
// left out of the body.  Drag tags updates produced by dragging.
type Patch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Locked *bool    `json:"locked,omitempty"`
	Drag   bool     `json:"drag,omitempty"`
}

// MovePatch builds the patch for a new position.
func MovePatch(x, y float64, drag bool) Patch {
	return Patch{X: &x, Y: &y, Drag: drag}
}

// LockPatch builds the patch for a lock change.
func LockPatch(locked bool) Patch {
	return Patch{Locked: &locked}
}

// Adjustment is the outcome of a score change.  Authoritative is false
// when the server did not echo a total; Total is then meaningless.
type Adjustment struct {
	Total         int
	Authoritative bool
}

// LayoutSummary is one entry of the layout catalog.
type LayoutSummary struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SavedLayout identifies a layout after saving.
type SavedLayout struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Position is one seat of a loaded layout.
type Position struct {
	UserID uint64  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Locked bool    `json:"locked"`
}

// UpdateSeat posts a partial position/lock update for one student.
func (c *Client) UpdateSeat(ctx context.Context, userID uint64, p Patch) error {
	return c.do(ctx, http.MethodPost, userPath(c.page.SeatingUpdateBase, userID), p, nil)
}

// BulkLock sets the lock flag of every seat in the course with one call.
func (c *Client) BulkLock(ctx context.Context, locked bool) error {
	path := fmt.Sprintf("/courses/%d/api/seating/bulk_lock", c.page.CourseID)
	return c.do(ctx, http.MethodPost, path, map[string]bool{"locked": locked}, nil)
}

// AdjustScore adds delta to a student's score.  A total in the response is
// returned as authoritative.
func (c *Client) AdjustScore(ctx context.Context, userID uint64, delta int) (Adjustment, error) {
	var resp struct {
		Total *int `json:"total"`
	}
	path := userPath(c.page.BehaviourAdjustBase, userID) + "/adjust"
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"delta": delta}, &resp); err != nil {
		return Adjustment{}, err
	}
	if resp.Total == nil {
		return Adjustment{}, nil
	}
	return Adjustment{Total: *resp.Total, Authoritative: true}, nil
}

// ListLayouts fetches the saved layouts of the course.
func (c *Client) ListLayouts(ctx context.Context) ([]LayoutSummary, error) {
	var out []LayoutSummary
	if err := c.do(ctx, http.MethodGet, c.page.LayoutsListURL, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveLayout snapshots the course's current positions under name.
// Without overwrite an existing name is rejected by the server.
func (c *Client) SaveLayout(ctx context.Context, name string, overwrite bool) (SavedLayout, error) {
	body := struct {
		Name      string `json:"name"`
		Overwrite bool   `json:"overwrite"`
	}{name, overwrite}
	var out SavedLayout
	if err := c.do(ctx, http.MethodPost, c.page.LayoutsSaveURL, body, &out); err != nil {
		return SavedLayout{}, err
	}
	return out, nil
}

// LoadLayout applies a saved layout on the server and returns the
// resulting positions.
func (c *Client) LoadLayout(ctx context.Context, id uint64) ([]Position, error) {
	var out struct {
		Positions []Position `json:"positions"`
	}
	path := c.page.LayoutsLoadBase + strconv.FormatUint(id, 10) + "/load"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}
