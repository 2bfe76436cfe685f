// Package client implements the streaming connection to the controller.
//
// The client performs the following steps:
//	1. Start launches two loops: a receive loop that owns the socket and a
//	   transmit loop that drains the outbound queue.
//	2. The receive loop dials the controller with a bounded timeout and
//	   retries on a fixed backoff while auto-reconnect is enabled.
//	3. While connected, the receive loop reframes the byte stream on '\n',
//	   hands each line to the status parser, and dispatches every parsed
//	   report to the status callback.
//	4. The transmit loop pops queued commands, frames them with CRLF and
//	   writes them to the socket. A command that cannot be sent is pushed
//	   back onto the queue and retried; it is never dropped.
//	5. A read or write failure drops the connection and the receive loop
//	   re-enters the dial branch. Queued commands survive the drop.
//	6. Stop closes the socket to unblock a pending read and joins both
//	   loops with a bounded wait.
//
// Callbacks run on the receive loop's goroutine; a consumer that needs its
// own execution context must redispatch itself. Note that a command pushed
// back after a send failure lands behind commands enqueued in the meantime,
// so strict FIFO order is relaxed across a connection drop.
//
// No failure here is fatal: connect errors, mid-stream I/O errors and
// malformed input are all recovered locally and surfaced only through the
// connect/disconnect callbacks and the Connected flag.
package client
