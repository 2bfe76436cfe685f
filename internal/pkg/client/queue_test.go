package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := newSendQueue()
	q.push("G0 X1")
	q.push("G0 X2")
	q.push("G0 X3")
	for _, want := range []string{"G0 X1", "G0 X2", "G0 X3"} {
		got, ok := q.pop(time.Millisecond)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	require.Zero(t, q.len())
}

func TestQueuePopTimeout(t *testing.T) {
	q := newSendQueue()
	start := time.Now()
	_, ok := q.pop(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueuePopWakesOnPush(t *testing.T) {
	q := newSendQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.push("G0 X1")
	}()
	start := time.Now()
	got, ok := q.pop(time.Second)
	require.True(t, ok)
	require.Equal(t, "G0 X1", got)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

// A command pushed back after a failed send lands behind commands enqueued
// while it was in flight. This ordering relaxation is part of the queue's
// contract, not an accident.
func TestRequeueOrdersBehindNewEnqueues(t *testing.T) {
	q := newSendQueue()
	q.push("G0 X1")
	inFlight, ok := q.pop(time.Millisecond)
	require.True(t, ok)
	q.push("G0 X2") // arrives while the first command is failing
	q.push(inFlight)

	got1, _ := q.pop(time.Millisecond)
	got2, _ := q.pop(time.Millisecond)
	require.Equal(t, "G0 X2", got1)
	require.Equal(t, "G0 X1", got2)
}

func TestQueueClear(t *testing.T) {
	q := newSendQueue()
	q.push("G0 X1")
	q.push("G0 X2")
	q.clear()
	require.Zero(t, q.len())
	_, ok := q.pop(time.Millisecond)
	require.False(t, ok)
}
