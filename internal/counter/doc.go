// Package counter owns the rolling-code state codecs persist between frames.
//
// Ownership boundary:
// - per (protocol, remote, device) counter records
// - durable file layout and record encoding
// - per-key mutual exclusion for read-modify-write
package counter
