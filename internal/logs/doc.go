// Package logs tails the daemon's log file for `podcaster logs`.
//
// Tail prints the last N lines with bounded memory and, in follow mode, polls
// for appended lines until the caller's context ends. A truncated or rotated
// file is read again from the start.
package logs
