package worker_pool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVisitsEveryIndex(t *testing.T) {
	p := NewWorkerPool(4)
	assert.Equal(t, 4, p.Workers())

	seen := make([]int32, 100)
	require.NoError(t, p.Run(len(seen), func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	}))
	for i, n := range seen {
		assert.Equal(t, int32(1), n, "index %d", i)
	}
}

func TestRunJoinsErrorsAndRecoversPanics(t *testing.T) {
	p := NewWorkerPool(2)
	boom := errors.New("boom")

	err := p.Run(3, func(i int) error {
		switch i {
		case 0:
			return boom
		case 1:
			panic("bad task")
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "task 1 panicked")
}

func TestRunEmptyBatch(t *testing.T) {
	p := NewWorkerPool(0)
	assert.GreaterOrEqual(t, p.Workers(), 1)
	assert.NoError(t, p.Run(0, func(int) error { return errors.New("never") }))
}
