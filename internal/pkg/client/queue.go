package client

import (
	"sync"
	"time"
)

// sendQueue is the outbound command queue: unbounded FIFO with a timed pop.
// It is mutated concurrently by the caller (push), and by the transmit loop
// (pop, and push again when a send fails). A pushed-back entry goes to the
// back, behind anything enqueued in the meantime.
type sendQueue struct {
	mu    sync.Mutex
	items []string
	wake  chan struct{}
}

func newSendQueue() *sendQueue {
	return &sendQueue{wake: make(chan struct{}, 1)}
}

func (q *sendQueue) push(line string) {
	q.mu.Lock()
	q.items = append(q.items, line)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes and returns the head of the queue, waiting up to wait for an
// entry to arrive. ok is false on timeout.
func (q *sendQueue) pop(wait time.Duration) (line string, ok bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			line = q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return line, true
		}
		q.mu.Unlock()
		select {
		case <-q.wake:
		case <-deadline.C:
			return "", false
		}
	}
}

func (q *sendQueue) clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
