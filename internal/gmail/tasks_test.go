package gmail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskSet_StartRejectsDuplicate(t *testing.T) {
	s := newTaskSet()
	key := taskKey{account: "alice@gmail.com", op: OpSync}

	_, id, ok := s.start(context.Background(), key)
	require.True(t, ok)
	assert.True(t, s.isRunning(key))

	_, _, ok = s.start(context.Background(), key)
	assert.False(t, ok)

	s.finish(key, id)
	assert.False(t, s.isRunning(key))
}

func TestTaskSet_CancelEndsContext(t *testing.T) {
	s := newTaskSet()
	key := taskKey{account: "alice@gmail.com", op: OpSync}

	ctx, _, ok := s.start(context.Background(), key)
	require.True(t, ok)

	assert.True(t, s.cancel(key))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, s.cancel(key))
}

func TestTaskSet_StaleFinishKeepsNewTask(t *testing.T) {
	s := newTaskSet()
	key := taskKey{account: "alice@gmail.com", op: OpSync}

	_, oldID, _ := s.start(context.Background(), key)
	s.cancel(key)

	ctx, _, ok := s.start(context.Background(), key)
	require.True(t, ok)

	s.finish(key, oldID)
	assert.True(t, s.isRunning(key))
	assert.NoError(t, ctx.Err())
}

func TestTaskSet_CancelAll(t *testing.T) {
	s := newTaskSet()
	a, _, _ := s.start(context.Background(), taskKey{account: "a@gmail.com", op: OpConnect})
	b, _, _ := s.start(context.Background(), taskKey{account: "b@gmail.com", op: OpSync})
	assert.Equal(t, 2, s.len())

	s.cancelAll()
	assert.Equal(t, 0, s.len())
	assert.Error(t, a.Err())
	assert.Error(t, b.Err())
}
