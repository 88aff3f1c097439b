package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/queue"
	"github.com/flockbusiness/flock-push-bridge/pkg/test"
	. "github.com/franela/goblin"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {

	g := Goblin(t)
	g.Describe("Queue", func() {

		g.It("Should run tasks in submission order", func() {
			q := queue.New(nil)

			out := make([]int, 0)
			for i := 0; i < 5; i++ {
				i := i
				require.True(t, q.Async(func() { out = append(out, i) }))
			}

			require.Equal(t, 5, q.RunPending())
			require.Equal(t, []int{0, 1, 2, 3, 4}, out)
			require.Equal(t, 0, q.Len())
		})

		g.It("Should enqueue a delayed task only after the delay", func() {
			clock := test.NewManualClock()
			q := queue.New(clock)

			ran := false
			q.AsyncAfter(2*time.Second, func() { ran = true })

			clock.Advance(time.Second)
			require.Equal(t, 0, q.RunPending())

			clock.Advance(time.Second)
			require.Equal(t, 1, q.RunPending())
			require.True(t, ran)
		})

		g.It("Should drop a cancelled continuation", func() {
			clock := test.NewManualClock()
			q := queue.New(clock)

			cancel := q.AsyncAfter(time.Second, func() { g.Fail("cancelled task ran") })
			cancel()

			clock.Advance(time.Minute)
			require.Equal(t, 0, q.RunPending())
			require.Equal(t, 0, clock.Pending())
		})

		g.It("Should reject tasks after close", func() {
			q := queue.New(nil)
			require.NoError(t, q.Close())
			require.False(t, q.Async(func() {}))
		})
	})
}

func TestQueueRun(t *testing.T) {

	q := queue.New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.Equal(t, context.Canceled, q.Run(ctx))
	}()

	done := make(chan struct{})
	q.Async(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "task was not executed")
	}

	cancel()
	wg.Wait()
}

func TestQueueRunClosed(t *testing.T) {

	q := queue.New(nil)
	require.NoError(t, q.Close())
	require.Equal(t, queue.ErrClosed, q.Run(context.Background()))
}
