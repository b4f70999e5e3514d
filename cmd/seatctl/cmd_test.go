package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/database"
	"github.com/iliyamo/classroom-seating/internal/handler"
	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/repository"
	"github.com/iliyamo/classroom-seating/internal/router"
	"github.com/iliyamo/classroom-seating/internal/service"
	"github.com/iliyamo/classroom-seating/internal/utils"
)

const testSecret = "seatctl-test-secret"

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

type env struct {
	cli  *commandLine
	out  *bytes.Buffer
	repo *repository.PositionRepo
	cid  uint64
}

func setup(t *testing.T) *env {
	t.Helper()
	isTerminalFunc = func(int) bool { return false }
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))
	courseID, staffID, err := database.SeedDemo(ctx, db)
	require.NoError(t, err)

	positions := repository.NewPositionRepo(db)
	h := handler.NewSeatingHandler(repository.NewCourseRepo(db), positions, repository.NewLayoutRepo(db),
		repository.NewBehaviourRepo(db), service.NopPublisher{}, nil)
	e := echo.New()
	router.RegisterSeating(e, h, router.SeatingOptions{JWTSecret: testSecret, CSRF: true})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	tok, err := utils.NewAccessToken(testSecret, staffID, model.RoleIssuer, 10)
	require.NoError(t, err)

	conf := viper.New()
	conf.Set("server", srv.URL)
	conf.Set("course", courseID)
	conf.Set("token", tok.Token)
	conf.Set("role", model.RoleIssuer)
	conf.Set("width", 900.0)
	conf.Set("height", 600.0)

	out := &bytes.Buffer{}
	return &env{
		cli:  newCommandLine(conf, strings.NewReader(""), out, zap.NewNop()),
		out:  out,
		repo: positions,
		cid:  courseID,
	}
}

func runTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"seatctl"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	e := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"show", "-lol"}, wantErr: errHelp},
		{name: "lock: no user", args: []string{"lock"}, wantErr: errHelp},
		{name: "adjust: no delta", args: []string{"adjust", "-user", "2"}, wantErr: errHelp},
		{name: "move: no user", args: []string{"move", "-x", "3"}, wantErr: errHelp},
		{name: "token: no secret", args: []string{"token", "-user", "1"}, wantErr: errHelp},
		{name: "no course", args: []string{"show", "-course", "0"}, wantErrStr: "a course is required (-course or SEATCTL_COURSE)"},
		{name: "unknown layout", args: []string{"load", "-id", "42"}, wantErrStr: "layout 42: no such layout in the catalog"},
	}
	runTests(t, e.cli, tests)
	assert.Contains(t, e.out.String(), "Usage:")
}

func Test_commandLine_show(t *testing.T) {
	e := setup(t)

	require.NoError(t, e.cli.run([]string{"seatctl", "show"}))
	out := e.out.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ava Nguyen")
	assert.Contains(t, out, "score-neutral")
}

func Test_commandLine_seats(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "move", args: []string{"move", "-user", "2", "-x", "120", "-y", "90"}},
		{name: "lock", args: []string{"lock", "-user", "2"}},
		{name: "move locked", args: []string{"move", "-user", "2", "-x", "1", "-y", "1"}, wantErrStr: "seating: seat is locked"},
		{name: "bulk unlock", args: []string{"bulk-lock", "-unlock"}},
		{name: "adjust", args: []string{"adjust", "-user", "3", "-delta", "4"}},
		{name: "adjust down", args: []string{"adjust", "-user", "3", "-delta", "-1"}},
	}
	runTests(t, e.cli, tests)

	pos, err := e.repo.Get(ctx, e.cid, 2)
	require.NoError(t, err)
	assert.Equal(t, 120.0, pos.X)
	assert.Equal(t, 90.0, pos.Y)
	assert.False(t, pos.Locked)

	assert.Contains(t, e.out.String(), "student 3 total=3")
}

func Test_commandLine_bulkLock(t *testing.T) {
	e := setup(t)

	require.NoError(t, e.cli.run([]string{"seatctl", "bulk-lock"}))
	rows, err := e.repo.ListByCourse(context.Background(), e.cid)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.True(t, r.Locked)
	}

	// Reset skips locked seats.
	e.out.Reset()
	require.NoError(t, e.cli.run([]string{"seatctl", "reset"}))
	assert.Contains(t, e.out.String(), "0 seats arranged")
}

func Test_commandLine_layouts(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "empty catalog", args: []string{"layouts"}},
		{name: "save: no name", args: []string{"save"}, wantErrStr: "enter a layout name or select one to overwrite"},
		{name: "save", args: []string{"save", "-name", "Exam"}},
		{name: "save existing declined", args: []string{"save", "-name", "Exam"}, wantErrStr: "layout save cancelled"},
		{name: "reset", args: []string{"reset"}},
		{name: "load", args: []string{"load", "-id", "1"}},
		{name: "overwrite", args: []string{"save", "-select", "1", "-yes"}},
		{name: "list", args: []string{"layouts"}},
	}
	runTests(t, e.cli, tests)

	out := e.out.String()
	assert.Contains(t, out, "no saved layouts")
	assert.Contains(t, out, `saved layout 1 "Exam"`)
	assert.Contains(t, out, "loaded layout 1: 6 seats updated")
	assert.Contains(t, out, "Exam")

	// Loading restored the defaults captured before the reset.
	rows, err := e.repo.ListByCourse(ctx, e.cid)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, float64(model.DefaultSeatX), r.X)
		assert.Equal(t, float64(model.DefaultSeatY), r.Y)
	}
}

func Test_commandLine_token(t *testing.T) {
	e := setup(t)

	tests := []cliTest{
		{name: "token", args: []string{"token", "-user", "9", "-secret", testSecret, "-role", "admin"}},
	}
	runTests(t, e.cli, tests)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(e.out.String()), "."))
}
