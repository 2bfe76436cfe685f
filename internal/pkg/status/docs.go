// Package status parses controller status frames.
//
// A status frame is a single report line of the form
//
//	<Idle|MPos:0.000,0.000,0.000|WPos:0.000,0.000,0.000|FS:0,0>
//
// delimited by angle brackets, with fields separated by pipes. Only the
// MPos and WPos fields are interpreted; everything else is skipped so the
// parser stays forward-compatible with fields added by newer firmware.
// Parsing is pure and does no I/O.
package status
