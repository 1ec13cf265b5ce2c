package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowering/internal/attr"
)

func TestCreateRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, "sweep-a", "first sweep")
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, "sweep-b", "")
	require.NoError(t, err)

	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, "run-2", second.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, attr.ToolVersion, first.ToolVersion)
	assert.Equal(t, attr.SchemaVersion, first.SchemaVersion)
}

func TestReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, "sweep", "matmul tiles")
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs, "empty result must be an empty slice")
	assert.Empty(t, runs)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateRun(ctx, name, "")
		require.NoError(t, err)
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, int64(i+1), run.Seq)
	}
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.CreateRun(ctx, "old", "")
	require.NoError(t, err)
	newest, err := s.CreateRun(ctx, "new", "")
	require.NoError(t, err)

	got, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)
}

func TestImportRun_StoresRunAndOverrides(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	info := createTestInfo(t, []int64{4, 8}, nil)
	run, inserted, err := s.ImportRun(ctx, "sweep", "grid search", []RunOverride{
		{Dispatch: "d", Op: "a", Info: info},
		{Dispatch: "d", Op: "b", Info: info},
		{Dispatch: "d", Op: "a", Info: info},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 2, inserted, "identical duplicate is not counted")

	got, err := s.ReadOverrides(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestImportRun_FailureStoresNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.ImportRun(ctx, "sweep", "", []RunOverride{
		{Dispatch: "d", Op: "a", Info: createTestInfo(t, []int64{4, 8}, nil)},
		{Dispatch: "d", Op: "a", Info: createTestInfo(t, []int64{8, 8}, nil)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override d/a")

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs, "a failed import must not leave a partial run")

	_, err = s.LatestRun(ctx)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
