package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/repository"
)

// EventPublisher sends seating events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SeatingEvent) error
}

// SeatingHandler bundles the repositories behind the seating chart endpoints.
type SeatingHandler struct {
	Courses    *repository.CourseRepo    // courses, students and enrolments
	Positions  *repository.PositionRepo  // seat positions
	Layouts    *repository.LayoutRepo    // named layouts
	Behaviours *repository.BehaviourRepo // points adjustments
	Events     EventPublisher            // domain events, never fails a request
	Log        *zap.Logger

	validate *validator.Validate
}

// NewSeatingHandler constructs a SeatingHandler and panics if a repository is nil.
func NewSeatingHandler(courses *repository.CourseRepo, positions *repository.PositionRepo, layouts *repository.LayoutRepo, behaviours *repository.BehaviourRepo, events EventPublisher, log *zap.Logger) *SeatingHandler {
	if courses == nil || positions == nil || layouts == nil || behaviours == nil { // check for nil dependencies
		panic("nil repository passed to NewSeatingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SeatingHandler{
		Courses:    courses,
		Positions:  positions,
		Layouts:    layouts,
		Behaviours: behaviours,
		Events:     events,
		Log:        log,
		validate:   validator.New(),
	}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64: // numeric JWT claims decode as float64
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// reject writes the rejection shape understood by the seating client.
func reject(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"ok": false, "error": msg})
}

// bindAndValidate decodes the JSON body into v and runs its validate tags.
// On failure the 400 response has already been written and ok is false.
func (h *SeatingHandler) bindAndValidate(c echo.Context, v interface{}) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, reject(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return false, reject(c, http.StatusBadRequest, fieldMessage(verrs[0]))
		}
		return false, reject(c, http.StatusBadRequest, "invalid request body")
	}
	return true, nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "ne":
		return field + " must not be " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " is too long"
	}
	return field + " is invalid"
}

// fail maps repository errors onto responses; anything unknown is logged
// and becomes a 500.
func (h *SeatingHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrCourseNotFound):
		return reject(c, http.StatusNotFound, "course not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return reject(c, http.StatusNotFound, "student not found")
	case errors.Is(err, repository.ErrLayoutNotFound):
		return reject(c, http.StatusNotFound, "layout not found")
	case errors.Is(err, repository.ErrNotEnrolled):
		return reject(c, http.StatusForbidden, "student is not enrolled in this course")
	case errors.Is(err, repository.ErrLayoutExists):
		return reject(c, http.StatusConflict, "a layout with that name already exists")
	}
	h.Log.Error("seating request failed",
		zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
	return reject(c, http.StatusInternalServerError, "internal error")
}

// course loads the course named by the :course_id parameter.
func (h *SeatingHandler) course(c echo.Context) (uint64, error) {
	id, ok := paramID(c, "course_id")
	if !ok {
		return 0, repository.ErrCourseNotFound
	}
	if _, err := h.Courses.GetByID(c.Request().Context(), id); err != nil {
		return 0, err
	}
	return id, nil
}

// student checks that :user_id names a student enrolled in the course.
func (h *SeatingHandler) student(c echo.Context, courseID uint64) (uint64, error) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	ctx := c.Request().Context()
	if _, err := h.Courses.GetUser(ctx, id); err != nil {
		return 0, err
	}
	enrolled, err := h.Courses.IsEnrolled(ctx, courseID, id)
	if err != nil {
		return 0, err
	}
	if !enrolled {
		return 0, repository.ErrNotEnrolled
	}
	return id, nil
}

// publish sends ev and only logs a failure.
func (h *SeatingHandler) publish(ev queue.SeatingEvent) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.Log.Warn("seating event not published", zap.String("type", ev.Type), zap.Error(err))
	}
}
