package syncclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-seating/internal/config"
)

type recorded struct {
	Method  string
	Path    string
	Header  http.Header
	Payload map[string]interface{}
}

// fakeServer answers every request with status and body and records it.
func fakeServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Payload)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv.URL, config.NewPageConfig(7), opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsIncompletePage(t *testing.T) {
	_, err := New("http://localhost", config.PageConfig{CourseID: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seatingUpdateBase")
}

func TestUpdateSeatSendsPatchAndBothCSRFHeaders(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `{"ok": true}`)
	c := newClient(t, srv, WithCSRFToken("tok"), WithBearerToken("jwt"))

	require.NoError(t, c.UpdateSeat(context.Background(), 12, MovePatch(30, 40.5, true)))

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/courses/7/api/seating/students/12", got.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "tok", got.Header.Get(HeaderCSRFToken))
	assert.Equal(t, "tok", got.Header.Get(HeaderXCSRFToken))
	assert.Equal(t, "Bearer jwt", got.Header.Get("Authorization"))
	assert.Equal(t, map[string]interface{}{"x": 30.0, "y": 40.5, "drag": true}, got.Payload)
}

func TestLockPatchOmitsCoordinates(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `{"ok": true}`)
	c := newClient(t, srv)

	require.NoError(t, c.UpdateSeat(context.Background(), 3, LockPatch(false)))

	got := (*calls)[0]
	assert.Equal(t, map[string]interface{}{"locked": false}, got.Payload)
	assert.Empty(t, got.Header.Get(HeaderCSRFToken))
}

func TestBulkLockIsCourseScoped(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `{"ok": true}`)
	c := newClient(t, srv)

	require.NoError(t, c.BulkLock(context.Background(), true))

	require.Len(t, *calls, 1)
	assert.Equal(t, "/courses/7/api/seating/bulk_lock", (*calls)[0].Path)
	assert.Equal(t, map[string]interface{}{"locked": true}, (*calls)[0].Payload)
}

func TestAdjustScore(t *testing.T) {
	t.Run("authoritative total", func(t *testing.T) {
		srv, calls := fakeServer(t, http.StatusOK, `{"ok": true, "total": 5}`)
		c := newClient(t, srv)

		adj, err := c.AdjustScore(context.Background(), 4, 1)
		require.NoError(t, err)
		assert.Equal(t, Adjustment{Total: 5, Authoritative: true}, adj)
		assert.Equal(t, "/courses/7/api/behaviour/4/adjust", (*calls)[0].Path)
		assert.Equal(t, map[string]interface{}{"delta": 1.0}, (*calls)[0].Payload)
	})

	t.Run("no total echoed", func(t *testing.T) {
		srv, _ := fakeServer(t, http.StatusOK, `{"ok": true}`)
		c := newClient(t, srv)

		adj, err := c.AdjustScore(context.Background(), 4, -1)
		require.NoError(t, err)
		assert.False(t, adj.Authoritative)
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv, _ := fakeServer(t, http.StatusOK, `{"ok": true, "total": "five"}`)
		c := newClient(t, srv)

		_, err := c.AdjustScore(context.Background(), 4, 1)
		require.Error(t, err)
		assert.Equal(t, http.StatusOK, StatusOf(err))
	})
}

func TestFailureMessages(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		message  string
		rejected bool
	}{
		{"ok false with error", http.StatusOK, `{"ok": false, "error": "seat is locked"}`, "seat is locked", true},
		{"ok false bare", http.StatusOK, `{"ok": false}`, "request rejected by server", true},
		{"status with message", http.StatusConflict, `{"message": "layout exists"}`, "layout exists", false},
		{"status with detail", http.StatusForbidden, `{"detail": "CSRF failed"}`, "CSRF failed", false},
		{"status without payload", http.StatusBadGateway, `<html>bad gateway</html>`, "request failed with status 502 bad gateway", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := fakeServer(t, tc.status, tc.body)
			c := newClient(t, srv)

			err := c.UpdateSeat(context.Background(), 1, LockPatch(true))
			require.Error(t, err)
			assert.Equal(t, tc.message, err.Error())
			assert.Equal(t, tc.rejected, IsRejected(err))
			assert.Equal(t, tc.status, StatusOf(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusOK, `{}`)
	c := newClient(t, srv)
	srv.Close()

	err := c.BulkLock(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
	assert.Zero(t, StatusOf(err))
}

func TestListLayouts(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[{"id": 2, "name": "Exam"}, {"id": 5, "name": "Groups"}]`)
	c := newClient(t, srv)

	got, err := c.ListLayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LayoutSummary{{ID: 2, Name: "Exam"}, {ID: 5, Name: "Groups"}}, got)
	assert.Equal(t, http.MethodGet, (*calls)[0].Method)
	assert.Equal(t, "/courses/7/api/seating/layouts", (*calls)[0].Path)
}

func TestSaveLayout(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `{"ok": true, "id": 9, "name": "Exam"}`)
	c := newClient(t, srv)

	got, err := c.SaveLayout(context.Background(), "Exam", true)
	require.NoError(t, err)
	assert.Equal(t, SavedLayout{ID: 9, Name: "Exam"}, got)
	assert.Equal(t, map[string]interface{}{"name": "Exam", "overwrite": true}, (*calls)[0].Payload)
}

func TestLoadLayout(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK,
		`{"ok": true, "positions": [{"user_id": 3, "x": 10, "y": 20, "locked": true}]}`)
	c := newClient(t, srv)

	got, err := c.LoadLayout(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []Position{{UserID: 3, X: 10, Y: 20, Locked: true}}, got)
	assert.Equal(t, "/courses/7/api/seating/layouts/9/load", (*calls)[0].Path)
	assert.Equal(t, map[string]interface{}{}, (*calls)[0].Payload)
}

func TestFetchBootstrap(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `{
		"config": {"courseId": 7, "seatingUpdateBase": "/courses/7/api/seating/students/",
			"behaviourAdjustBase": "/courses/7/api/behaviour/", "layoutsListUrl": "/courses/7/api/seating/layouts",
			"layoutsSaveUrl": "/courses/7/api/seating/layouts", "layoutsLoadBase": "/courses/7/api/seating/layouts/"},
		"csrf_token": "abc",
		"seats": [{"user_id": 1, "name": "Ada Brown", "x": 50, "y": 50, "locked": false, "total": -2}]}`)

	bs, err := FetchBootstrap(context.Background(), srv.URL, 7, WithBearerToken("jwt"))
	require.NoError(t, err)
	assert.Equal(t, "/courses/7/seating", (*calls)[0].Path)
	assert.Equal(t, "Bearer jwt", (*calls)[0].Header.Get("Authorization"))
	assert.Equal(t, config.NewPageConfig(7), bs.Config)
	assert.Equal(t, "abc", bs.CSRFToken)
	require.Len(t, bs.Seats, 1)
	assert.Equal(t, -2, bs.Seats[0].Total)
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusInternalServerError, `{"error": "db down"}`)
	c := newClient(t, srv, WithLogger(nil))

	var err error
	require.NotPanics(t, func() { err = c.BulkLock(context.Background(), true) })
	require.Error(t, err)
	assert.Equal(t, "db down", err.Error())
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}
