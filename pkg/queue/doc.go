/*
Package queue provides BlockingQueue, an unbounded multi-producer
multi-consumer FIFO queue with blocking, timed and non-blocking retrieval.

# Lifecycle

A queue is created empty and open. Shutdown closes it exactly once: further
Push, Emplace and PushAll calls fail with types.ErrClosed, every blocked
consumer is woken, and values that were already buffered remain
retrievable until consumed. Shutdown is a "no more insertions" signal, not a
clear.

# Retrieval

	TryPop      never blocks; false when empty
	WaitAndPop  blocks; false only when closed and empty
	WaitFor     blocks up to a timeout; false on timeout or closed and empty
	Pop         blocks until ctx is done; returns ErrClosed or ctx.Err()

WaitFor cannot tell a timeout from a closed, drained queue. Use Pop with a
deadline context when the distinction matters.

# Monitor

One mutex guards the values, the closed flag and the list of parked
consumers. Push hands a wake token to exactly one parked consumer and
Shutdown wakes all of them. A woken consumer always re-checks "value
available or closed" under the lock, so stale tokens are harmless. There is
no fairness between producers: concurrent pushes are ordered by lock
acquisition, and pops always return the current head.

Usage:

	q := queue.New[int]()
	defer q.Shutdown()

	go func() {
		for i := 0; i < 3; i++ {
			_ = q.Push(i)
		}
		q.Shutdown()
	}()

	for {
		v, ok := q.WaitAndPop()
		if !ok {
			break
		}
		fmt.Println(v)
	}
*/
package queue
