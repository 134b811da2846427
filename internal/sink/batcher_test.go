package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRows_AdjacentRowsShareAGroup(t *testing.T) {
	rows := []Row{
		{"t1", "a", "1"},
		{"t1", "b", "2"},
		{"t2", "c", "3"},
	}

	groups := groupRows(fakeBuilder{}, rows)

	require.Len(t, groups, 2)
	assert.Equal(t, "t1", groups[0].table)
	assert.Equal(t, []Row{{"t1", "a", "1"}, {"t1", "b", "2"}}, groups[0].rows)
	assert.Equal(t, "t2", groups[1].table)
	assert.Equal(t, []Row{{"t2", "c", "3"}}, groups[1].rows)
}

func TestGroupRows_NonAdjacentRowsAreNotMerged(t *testing.T) {
	rows := []Row{
		{"t1", "a"},
		{"t2", "b"},
		{"t1", "c"},
		{"t1", "d"},
	}

	groups := groupRows(fakeBuilder{}, rows)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"t1", "t2", "t1"}, []string{groups[0].table, groups[1].table, groups[2].table})
	assert.Len(t, groups[2].rows, 2)
}

func TestGroupRows_Empty(t *testing.T) {
	assert.Empty(t, groupRows(fakeBuilder{}, nil))
}

func TestExecuteQuery_DispatchesEachGroupOnce(t *testing.T) {
	db := newFakeDB("t1", "t2")
	s := newTestSink(t, db)

	n, err := s.ExecuteQuery(context.Background(), []Row{
		{"t1", "a", "1"},
		{"t1", "b", "2"},
		{"t2", "c", "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"INSERT t1 2", "INSERT t2 1"}, db.log)
	assert.Equal(t, 3, s.Stats().Persisted)
}

func TestExecuteQuery_OpensSessionLazily(t *testing.T) {
	db := newFakeDB("t1")
	s, err := New(fakeBuilder{}, db)
	require.NoError(t, err)
	assert.Zero(t, db.opens)

	n, err := s.ExecuteQuery(context.Background(), []Row{{"t1", "a"}})
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, db.opens)
	require.NoError(t, s.Close())
	assert.Equal(t, 1, db.closes)
}

func TestExecuteQuery_DisconnectedSessionIsToggledClosed(t *testing.T) {
	db := newFakeDB("t1")
	s := newTestSink(t, db)
	db.connected = false

	n, err := s.ExecuteQuery(context.Background(), []Row{{"t1", "a"}, {"t1", "b"}})
	require.NoError(t, err)

	// the probe closes the session; the first statement reopens it and the
	// batch goes through whole
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, db.opens)
	assert.Equal(t, 1, db.closes)
	assert.Equal(t, []string{"INSERT t1 2"}, db.log)
	assert.Zero(t, s.Stats().Splits)
}

func TestExecuteQuery_EstablishFailure(t *testing.T) {
	db := newFakeDB("t1")
	db.openErr = assert.AnError
	s, err := New(fakeBuilder{}, db)
	require.NoError(t, err)

	n, err := s.ExecuteQuery(context.Background(), []Row{{"t1", "a"}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, n)
}

func TestExecuteQuery_CancelledBetweenGroups(t *testing.T) {
	db := newFakeDB("t1", "t2")
	s := newTestSink(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	db.onExec = func(string) { cancel() }

	n, err := s.ExecuteQuery(ctx, []Row{{"t1", "a"}, {"t2", "b"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, n, "the first group completed before cancellation was observed")
	assert.Equal(t, []string{"INSERT t1 1"}, db.log)
}

func TestNew_ChecksMandatoryConfiguration(t *testing.T) {
	_, err := New(fakeBuilder{missing: assert.AnError}, newFakeDB())
	assert.ErrorIs(t, err, assert.AnError)
}
