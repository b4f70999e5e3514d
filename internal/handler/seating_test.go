package handler_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-seating/internal/database"
	"github.com/iliyamo/classroom-seating/internal/handler"
	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/repository"
	"github.com/iliyamo/classroom-seating/internal/router"
	"github.com/iliyamo/classroom-seating/internal/syncclient"
	"github.com/iliyamo/classroom-seating/internal/utils"
)

const jwtSecret = "handler-test-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.SeatingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.SeatingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	e        *echo.Echo
	db       *sqlx.DB
	events   *recordingPublisher
	courseID uint64
	staffID  uint64
	students []model.User
	token    string
}

func newFixture(t *testing.T, csrf bool) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))
	courseID, staffID, err := database.SeedDemo(ctx, db)
	require.NoError(t, err)

	courses := repository.NewCourseRepo(db)
	students, err := courses.Students(ctx, courseID)
	require.NoError(t, err)

	events := &recordingPublisher{}
	h := handler.NewSeatingHandler(courses, repository.NewPositionRepo(db), repository.NewLayoutRepo(db),
		repository.NewBehaviourRepo(db), events, nil)
	e := echo.New()
	router.RegisterRoutes(e, db)
	router.RegisterSeating(e, h, router.SeatingOptions{JWTSecret: jwtSecret, CSRF: csrf})

	tok, err := utils.NewAccessToken(jwtSecret, staffID, model.RoleIssuer, 10)
	require.NoError(t, err)
	return &fixture{e: e, db: db, events: events, courseID: courseID, staffID: staffID, students: students, token: tok.Token}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

// client drives the fixture through the real sync client.
func (f *fixture) client(t *testing.T) (*syncclient.Client, *syncclient.Bootstrap) {
	t.Helper()
	srv := httptest.NewServer(f.e)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{Jar: jar}

	ctx := context.Background()
	bs, err := syncclient.FetchBootstrap(ctx, srv.URL, f.courseID,
		syncclient.WithHTTPClient(hc), syncclient.WithBearerToken(f.token))
	require.NoError(t, err)
	c, err := syncclient.New(srv.URL, bs.Config,
		syncclient.WithHTTPClient(hc), syncclient.WithBearerToken(f.token), syncclient.WithCSRFToken(bs.CSRFToken))
	require.NoError(t, err)
	return c, bs
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPageCreatesDefaultSeats(t *testing.T) {
	f := newFixture(t, false)
	_, bs := f.client(t)

	assert.Equal(t, f.courseID, bs.Config.CourseID)
	require.Len(t, bs.Seats, len(f.students))
	assert.Equal(t, "Liam Brown", bs.Seats[0].Name)
	for _, s := range bs.Seats {
		assert.Equal(t, float64(model.DefaultSeatX), s.X)
		assert.Equal(t, float64(model.DefaultSeatY), s.Y)
		assert.False(t, s.Locked)
		assert.Zero(t, s.Total)
		assert.Equal(t, "0", s.ScoreAttr)
		assert.Equal(t, "0", s.ScoreLabel)
	}

	rows, err := repository.NewPositionRepo(f.db).ListByCourse(context.Background(), f.courseID)
	require.NoError(t, err)
	assert.Len(t, rows, len(f.students))
}

func TestUnknownCourseAndWrongRole(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/courses/999/seating", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"ok": false, "error": "course not found"}`, rec.Body.String())

	student, err := utils.NewAccessToken(jwtSecret, f.students[0].ID, model.RoleStudent, 10)
	require.NoError(t, err)
	f.token = student.Token
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/courses/1/seating", "").Code)
}

func TestUpdateSeatThroughClient(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.client(t)
	ctx := context.Background()
	uid := f.students[0].ID

	require.NoError(t, c.UpdateSeat(ctx, uid, syncclient.MovePatch(120, 80, true)))
	require.NoError(t, c.UpdateSeat(ctx, uid, syncclient.LockPatch(true)))
	// Dragging a locked seat is acknowledged and ignored.
	require.NoError(t, c.UpdateSeat(ctx, uid, syncclient.MovePatch(300, 300, true)))

	pos, err := repository.NewPositionRepo(f.db).Get(ctx, f.courseID, uid)
	require.NoError(t, err)
	assert.Equal(t, 120.0, pos.X)
	assert.Equal(t, 80.0, pos.Y)
	assert.True(t, pos.Locked)

	// A plain move still applies.
	require.NoError(t, c.UpdateSeat(ctx, uid, syncclient.MovePatch(10, 20, false)))
	pos, err = repository.NewPositionRepo(f.db).Get(ctx, f.courseID, uid)
	require.NoError(t, err)
	assert.Equal(t, 10.0, pos.X)
}

func TestUpdateSeatResponses(t *testing.T) {
	f := newFixture(t, false)
	base := "/courses/1/api/seating/students/"

	rec := f.do(http.MethodPost, base+"2", `{"locked": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = f.do(http.MethodPost, base+"2", `{"x": 5, "drag": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ignored":"locked"`)

	rec = f.do(http.MethodPost, base+"3", `{"x": "left"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)

	rec = f.do(http.MethodPost, base+"3", `{"x": -4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok": false, "error": "x must be at least 0"}`, rec.Body.String())

	// The staff user exists but is not a student of the course.
	rec = f.do(http.MethodPost, base+"1", `{"x": 1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, base+"4040", `{"x": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkLock(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.client(t)
	ctx := context.Background()

	require.NoError(t, c.BulkLock(ctx, true))
	rows, err := repository.NewPositionRepo(f.db).ListByCourse(ctx, f.courseID)
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.Locked)
	}

	rec := f.do(http.MethodPost, "/courses/1/api/seating/bulk_lock", `{"locked": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locked":false`)

	// No body means lock.
	rec = f.do(http.MethodPost, "/courses/1/api/seating/bulk_lock", "")
	assert.Contains(t, rec.Body.String(), `"locked":true`)

	assert.Equal(t, []string{queue.EventBulkLock, queue.EventBulkLock, queue.EventBulkLock}, f.events.types())
}

func TestLayoutSaveListLoad(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.client(t)
	ctx := context.Background()
	first, second := f.students[0].ID, f.students[1].ID

	require.NoError(t, c.UpdateSeat(ctx, first, syncclient.MovePatch(200, 100, false)))
	saved, err := c.SaveLayout(ctx, "Exam", false)
	require.NoError(t, err)
	assert.Equal(t, "Exam", saved.Name)

	_, err = c.SaveLayout(ctx, "Exam", false)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, syncclient.StatusOf(err))

	_, err = c.SaveLayout(ctx, "  ", false)
	require.Error(t, err)
	assert.Equal(t, "name is required", err.Error())

	_, err = c.SaveLayout(ctx, "Another", false)
	require.NoError(t, err)
	list, err := c.ListLayouts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Another", list[0].Name)
	assert.NotEmpty(t, list[0].UpdatedAt)

	require.NoError(t, c.UpdateSeat(ctx, first, syncclient.MovePatch(0, 0, false)))
	require.NoError(t, c.UpdateSeat(ctx, second, syncclient.LockPatch(true)))

	positions, err := c.LoadLayout(ctx, saved.ID)
	require.NoError(t, err)
	got := map[uint64]syncclient.Position{}
	for _, p := range positions {
		got[p.UserID] = p
	}
	assert.Equal(t, syncclient.Position{UserID: first, X: 200, Y: 100}, got[first])
	assert.False(t, got[second].Locked)

	_, err = c.LoadLayout(ctx, 9999)
	assert.Equal(t, http.StatusNotFound, syncclient.StatusOf(err))

	assert.Contains(t, f.events.types(), queue.EventLayoutSaved)
	assert.Contains(t, f.events.types(), queue.EventLayoutLoaded)
}

func TestSaveLayoutOverwrite(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.client(t)
	ctx := context.Background()

	first, err := c.SaveLayout(ctx, "Exam", false)
	require.NoError(t, err)
	again, err := c.SaveLayout(ctx, "Exam", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestAdjustBehaviour(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.client(t)
	ctx := context.Background()
	uid := f.students[2].ID

	adj, err := c.AdjustScore(ctx, uid, 3)
	require.NoError(t, err)
	assert.Equal(t, syncclient.Adjustment{Total: 3, Authoritative: true}, adj)
	adj, err = c.AdjustScore(ctx, uid, -5)
	require.NoError(t, err)
	assert.Equal(t, -2, adj.Total)

	_, err = c.AdjustScore(ctx, uid, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, syncclient.StatusOf(err))

	rec := f.do(http.MethodPost, "/courses/1/api/behaviour/3/adjust", `{"delta": 1, "note": "helped a classmate"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, bs := f.client(t)
	for _, s := range bs.Seats {
		if s.UserID == uid {
			assert.Equal(t, -2, s.Total)
			assert.Equal(t, "-2", s.ScoreLabel)
		}
	}
	assert.Contains(t, f.events.types(), queue.EventBehaviourAdjusted)
}

func TestCSRF(t *testing.T) {
	f := newFixture(t, true)

	// Writes without a token are refused.
	rec := f.do(http.MethodPost, "/courses/1/api/seating/bulk_lock", `{"locked": true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF")

	// The page hands out a token and the client echoes it.
	c, bs := f.client(t)
	require.NotEmpty(t, bs.CSRFToken)
	require.NoError(t, c.BulkLock(context.Background(), true))
}
