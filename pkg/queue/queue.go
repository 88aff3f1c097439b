package queue

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("queue: closed")

// Queue is a single-threaded cooperative task queue. Tasks run one at a time,
// in submission order, on the goroutine that calls Run.
type Queue struct {
	clock   Clock
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
	running bool
}

func New(clock Clock) *Queue {

	if clock == nil {
		clock = SystemClock()
	}

	return &Queue{
		clock: clock,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (q *Queue) Clock() Clock {
	return q.clock
}

// Async enqueues fn without blocking the caller. It returns false once the
// queue is closed.
func (q *Queue) Async(fn func()) bool {

	select {
	case <-q.done:
		return false
	default:
	}

	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return true
}

// AsyncAfter enqueues fn once d has elapsed. The returned function cancels
// the continuation if it has not been enqueued yet.
func (q *Queue) AsyncAfter(d time.Duration, fn func()) (cancel func()) {

	var (
		mu        sync.Mutex
		cancelled bool
	)

	timer := q.clock.AfterFunc(d, func() {
		mu.Lock()
		defer mu.Unlock()

		if !cancelled {
			q.Async(fn)
		}
	})

	return func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()

		timer.Stop()
	}
}

// Run executes tasks until ctx is done or the queue is closed.
func (q *Queue) Run(ctx context.Context) error {

	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return errors.New("queue: already running")
	}
	q.running = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	for {
		q.RunPending()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return ErrClosed
		case <-q.wake:
		}
	}
}

// RunPending executes the tasks enqueued so far on the calling goroutine and
// returns how many ran. Hosts that own their main loop pump the queue with it.
func (q *Queue) RunPending() int {

	q.mu.Lock()
	tasks := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, task := range tasks {
		task()
	}

	return len(tasks)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

func (q *Queue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
