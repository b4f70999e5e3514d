package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-seating/internal/repository"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, CreateSchema(ctx, db))
	require.NoError(t, CreateSchema(ctx, db), "schema creation must be repeatable")

	courseID, staffID, err := SeedDemo(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, courseID)
	assert.NotZero(t, staffID)

	students, err := repository.NewCourseRepo(db).Students(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, students, len(demoStudents))
	assert.Equal(t, "Brown", students[0].LastName)

	again, _, err := SeedDemo(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, again)
}
