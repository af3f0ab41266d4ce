// Package codec owns the per-brand frame encoders.
//
// Ownership boundary:
// - bit-exact frame layout per protocol
// - accepted commands and id ranges
// - default timings handed to transports
//
// Codecs never write past the caller's buffer and report every failure as a
// wrapped protocol error.
package codec
