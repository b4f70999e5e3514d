package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-seating/internal/config"
	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/repository"
)

// seatJSON is one seat of the chart page.
type seatJSON struct {
	UserID     uint64  `json:"user_id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Locked     bool    `json:"locked"`
	Total      int     `json:"total"`
	ScoreAttr  string  `json:"score_attr"`
	ScoreLabel string  `json:"score_label"`
}

// scoreLabel is how a total is displayed on a seat.
func scoreLabel(total int) string {
	if total > 0 {
		return "+" + strconv.Itoa(total)
	}
	return strconv.Itoa(total)
}

// CSRFContextKey is where the anti-forgery middleware leaves its token.
const CSRFContextKey = "csrf"

// Page returns everything the chart is rendered with: the endpoint
// configuration, the anti-forgery token and one seat per enrolled student
// with their score total.  Students without a stored seat get the default
// one.
func (h *SeatingHandler) Page(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()

	students, err := h.Courses.Students(ctx, courseID)
	if err != nil {
		return h.fail(c, err)
	}
	ids := make([]uint64, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	positions, err := h.Positions.EnsureDefaults(ctx, courseID, ids)
	if err != nil {
		return h.fail(c, err)
	}
	totals, err := h.Behaviours.Totals(ctx, courseID)
	if err != nil {
		return h.fail(c, err)
	}

	seats := make([]seatJSON, 0, len(students)) // ordered like the student list
	for _, s := range students {
		p := positions[s.ID]
		seats = append(seats, seatJSON{
			UserID:     s.ID,
			Name:       s.DisplayName(),
			X:          p.X,
			Y:          p.Y,
			Locked:     p.Locked,
			Total:      totals[s.ID],
			ScoreAttr:  strconv.Itoa(totals[s.ID]),
			ScoreLabel: scoreLabel(totals[s.ID]),
		})
	}
	token, _ := c.Get(CSRFContextKey).(string) // empty when CSRF is disabled
	return c.JSON(http.StatusOK, echo.Map{
		"config":     config.NewPageConfig(courseID),
		"csrf_token": token,
		"seats":      seats,
	})
}

func wirePositions(rows []model.SeatPosition) []model.LayoutPosition {
	out := make([]model.LayoutPosition, 0, len(rows))
	for _, p := range rows {
		out = append(out, model.LayoutPosition{UserID: p.UserID, X: p.X, Y: p.Y, Locked: p.Locked})
	}
	return out
}

// ListPositions lists every stored seat of the course.
func (h *SeatingHandler) ListPositions(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	rows, err := h.Positions.ListByCourse(c.Request().Context(), courseID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "positions": wirePositions(rows)})
}

type seatPatchRequest struct {
	X      *float64 `json:"x" validate:"omitempty,gte=0"`
	Y      *float64 `json:"y" validate:"omitempty,gte=0"`
	Locked *bool    `json:"locked"`
	Drag   bool     `json:"drag"`
}

// UpdateSeat merges a partial position/lock patch into a student's seat.
// Drag updates against a locked seat are acknowledged but change nothing.
func (h *SeatingHandler) UpdateSeat(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	userID, err := h.student(c, courseID)
	if err != nil {
		return h.fail(c, err)
	}
	var req seatPatchRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	pos, ignored, err := h.Positions.ApplyPatch(c.Request().Context(), courseID, userID, repository.PositionPatch{
		X: req.X, Y: req.Y, Locked: req.Locked, Drag: req.Drag,
	})
	if err != nil {
		return h.fail(c, err)
	}
	resp := echo.Map{"ok": true, "position": wirePositions([]model.SeatPosition{*pos})[0]}
	if ignored {
		resp["ignored"] = "locked"
	}
	return c.JSON(http.StatusOK, resp)
}

type bulkLockRequest struct {
	Locked *bool `json:"locked"`
}

// BulkLock sets the lock flag on every seat of the course.  A missing
// locked field means lock.
func (h *SeatingHandler) BulkLock(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req bulkLockRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	locked := true
	if req.Locked != nil {
		locked = *req.Locked
	}
	n, err := h.Positions.SetAllLocked(c.Request().Context(), courseID, locked)
	if err != nil {
		return h.fail(c, err)
	}

	actor, _ := getUserID(c)
	ev := queue.NewSeatingEvent(queue.EventBulkLock, courseID, actor)
	ev.Locked, ev.Seats = &locked, int(n)
	h.publish(ev)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "locked": locked, "updated": n})
}

type layoutSummary struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// ListLayouts returns the course's saved layouts ordered by name.
func (h *SeatingHandler) ListLayouts(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	layouts, err := h.Layouts.List(c.Request().Context(), courseID)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]layoutSummary, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, layoutSummary{ID: l.ID, Name: l.Name, UpdatedAt: l.UpdatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

type saveLayoutRequest struct {
	Name      string `json:"name" validate:"max=100"`
	Overwrite bool   `json:"overwrite"`
}

// SaveLayout snapshots the course's current positions under a name.
func (h *SeatingHandler) SaveLayout(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req saveLayoutRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return reject(c, http.StatusBadRequest, "name is required")
	}
	ctx := c.Request().Context()

	positions, err := h.Positions.ListByCourse(ctx, courseID)
	if err != nil {
		return h.fail(c, err)
	}
	saved, err := h.Layouts.Save(ctx, courseID, name, positions, req.Overwrite)
	if err != nil {
		return h.fail(c, err)
	}

	actor, _ := getUserID(c)
	ev := queue.NewSeatingEvent(queue.EventLayoutSaved, courseID, actor)
	ev.Layout, ev.Seats = saved.Name, len(positions)
	h.publish(ev)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "id": saved.ID, "name": saved.Name})
}

// LoadLayout applies a saved layout to the students still enrolled and
// returns every position of the course afterwards.
func (h *SeatingHandler) LoadLayout(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	layoutID, ok := paramID(c, "layout_id")
	if !ok {
		return h.fail(c, repository.ErrLayoutNotFound)
	}
	ctx := c.Request().Context()

	layout, err := h.Layouts.Get(ctx, courseID, layoutID)
	if err != nil {
		return h.fail(c, err)
	}
	entries, err := repository.Entries(layout)
	if err != nil {
		return h.fail(c, err)
	}
	students, err := h.Courses.Students(ctx, courseID)
	if err != nil {
		return h.fail(c, err)
	}
	enrolled := make(map[uint64]bool, len(students))
	for _, s := range students {
		enrolled[s.ID] = true
	}
	rows, err := h.Positions.ApplySnapshot(ctx, courseID, entries, enrolled)
	if err != nil {
		return h.fail(c, err)
	}

	actor, _ := getUserID(c)
	ev := queue.NewSeatingEvent(queue.EventLayoutLoaded, courseID, actor)
	ev.Layout, ev.Seats = layout.Name, len(rows)
	h.publish(ev)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "positions": wirePositions(rows)})
}

type adjustRequest struct {
	Delta int     `json:"delta" validate:"ne=0"`
	Note  *string `json:"note" validate:"omitempty,max=500"`
}

// AdjustBehaviour records a points change for a student and returns their
// new total.
func (h *SeatingHandler) AdjustBehaviour(c echo.Context) error {
	courseID, err := h.course(c)
	if err != nil {
		return h.fail(c, err)
	}
	userID, err := h.student(c, courseID)
	if err != nil {
		return h.fail(c, err)
	}
	var req adjustRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}
	actor, err := getUserID(c)
	if err != nil {
		return reject(c, http.StatusUnauthorized, "unknown user")
	}
	if req.Note != nil {
		note := strings.TrimSpace(*req.Note)
		if note == "" {
			req.Note = nil
		} else {
			req.Note = &note
		}
	}
	ctx := c.Request().Context()

	b := &model.Behaviour{UserID: userID, CourseID: courseID, Delta: req.Delta, Note: req.Note, CreatedByID: actor}
	if err := h.Behaviours.Add(ctx, b); err != nil {
		return h.fail(c, err)
	}
	total, err := h.Behaviours.Total(ctx, courseID, userID)
	if err != nil {
		return h.fail(c, err)
	}

	ev := queue.NewSeatingEvent(queue.EventBehaviourAdjusted, courseID, actor)
	ev.UserID, ev.Delta, ev.Total = &userID, req.Delta, &total
	h.publish(ev)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "total": total})
}
