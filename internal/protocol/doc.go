// Package protocol owns the shared RF command vocabulary.
//
// Ownership boundary:
// - logical commands and bit formats
// - timing descriptions handed to transports
// - error kinds shared by codecs, the RAW engine and transports
//
// Encoders live in protocol/codec, bit packing in protocol/frame and the
// RAW conversion engine in protocol/raw.
package protocol
