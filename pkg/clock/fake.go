package clock

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// FakeClock is a deterministic clock for tests.
//
// Time only advances when Advance() or AdvanceTo() is called. Goroutines
// blocked in Sleep or After are released in deadline order as time passes
// their wake time.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters waitHeap
	nextID  uint64
	sleeps  []time.Duration

	// waiting counts goroutines blocked on Sleep or After.
	waiting atomic.Int64
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the duration since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Sleep blocks until the clock advances past the wake time.
// Every call is recorded and can be inspected with Sleeps().
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()

	if d <= 0 {
		return
	}
	<-c.After(d)
}

// After returns a channel that receives when d has elapsed.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d <= 0 {
		ch <- c.now
		return ch
	}

	c.nextID++
	heap.Push(&c.waiters, &waiter{
		deadline: c.now.Add(d),
		ch:       ch,
		id:       c.nextID,
	})
	c.waiting.Add(1)

	return ch
}

// Advance moves the clock forward by d, releasing any waiters that expire.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceTo(c.now.Add(d))
}

// AdvanceTo moves the clock to t, releasing any waiters that expire.
func (c *FakeClock) AdvanceTo(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceTo(t)
}

// BlockUntilWaiters blocks until at least n goroutines are waiting on the clock.
// Useful in tests to ensure goroutines have reached their wait points.
func (c *FakeClock) BlockUntilWaiters(n int) {
	for int(c.waiting.Load()) < n {
		time.Sleep(time.Microsecond)
	}
}

// WaiterCount returns the number of goroutines waiting on the clock.
func (c *FakeClock) WaiterCount() int {
	return int(c.waiting.Load())
}

// Sleeps returns the durations passed to Sleep, in call order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// advanceTo moves time forward to t. Caller must hold c.mu.
// Waiter channels are buffered, so sending under the lock never blocks.
func (c *FakeClock) advanceTo(t time.Time) {
	if t.Before(c.now) {
		return
	}
	for c.waiters.Len() > 0 && !c.waiters[0].deadline.After(t) {
		w := heap.Pop(&c.waiters).(*waiter)
		c.now = w.deadline
		w.ch <- w.deadline
		c.waiting.Add(-1)
	}
	c.now = t
}

// waiter represents a goroutine waiting for a specific time.
type waiter struct {
	deadline time.Time
	ch       chan time.Time
	id       uint64 // FIFO order for equal deadlines
	index    int
}

// waitHeap is a min-heap of waiters ordered by deadline, then ID.
type waitHeap []*waiter

func (h waitHeap) Len() int { return len(h) }

func (h waitHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].id < h[j].id
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h waitHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *waitHeap) Push(x any) {
	w := x.(*waiter)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *waitHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[0 : n-1]
	return w
}
