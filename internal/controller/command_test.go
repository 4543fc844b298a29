package controller

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedWith(t *testing.T, n int) *Controller {
	t.Helper()
	c, _ := newController(t, &fakeEdges{})
	for i := 0; i < n; i++ {
		m, _ := newMode(fmt.Sprintf("M%d", i), time.Second)
		require.NoError(t, c.Register(m))
	}
	require.NoError(t, c.Start(t0))
	return c
}

func TestCommandsQueueAndApply(t *testing.T) {
	c := startedWith(t, 3)

	q := NewCommands(2)
	require.NoError(t, q.SwitchTo(2))
	require.NoError(t, q.Next())
	assert.ErrorIs(t, q.Next(), ErrBusy)

	require.NoError(t, c.Apply(<-q, t0))
	assert.Equal(t, 2, c.CurrentIndex())
	require.NoError(t, c.Apply(<-q, t0))
	assert.Equal(t, 0, c.CurrentIndex(), "next wraps")
}

func TestApplyInvalidIndex(t *testing.T) {
	c := startedWith(t, 2)
	assert.ErrorIs(t, c.Apply(Command{Index: 5}, t0), ErrInvalidIndex)
	assert.Equal(t, 0, c.CurrentIndex())
}
