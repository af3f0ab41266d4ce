// Package raw re-renders symbolic High/Low bit timings as a pulse train over
// one shared time quantum, for transmitters that can only toggle a line at a
// fixed interval.
package raw

import (
	"fmt"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	// DefaultAccuracy is the percentage used when none is configured.
	DefaultAccuracy = 90
	// MaxTicks bounds the quantized length of a single duration.
	MaxTicks = 65535
)

// gcd is Euclid's algorithm stopping as soon as the remainder drops to or
// below floor. Coarser quanta are intended.
func gcd(a, b, floor uint32) uint32 {
	for a > floor {
		a, b = b%a, a
	}
	return b
}

func checkAccuracy(accuracy int) error {
	if accuracy < 0 || accuracy > 100 {
		return fmt.Errorf("%w: %d not in 0..100", protocol.ErrInvalidAccuracy, accuracy)
	}
	return nil
}

// BaseTime finds the quantum (us) every duration of tc approximately divides.
// The pairs combine in a fixed order: start with end, bit0 with bit1, then
// both results.
func BaseTime(tc protocol.TimingConfig, accuracy int) (uint16, error) {
	if err := checkAccuracy(accuracy); err != nil {
		return 0, err
	}
	if tc.Format == protocol.FormatRaw {
		return 0, fmt.Errorf("%w: timing is already raw", protocol.ErrTimingUnsupported)
	}

	var smallest uint32
	for _, d := range tc.Durations() {
		if d != 0 && (smallest == 0 || uint32(d) < smallest) {
			smallest = uint32(d)
		}
	}
	floor := smallest * uint32(100-accuracy) / 100

	pStart := gcd(uint32(tc.StartHigh), uint32(tc.StartLow), floor)
	pEnd := gcd(uint32(tc.EndHigh), uint32(tc.EndLow), floor)
	p0 := gcd(uint32(tc.Bit0High), uint32(tc.Bit0Low), floor)
	p1 := gcd(uint32(tc.Bit1High), uint32(tc.Bit1Low), floor)

	base := gcd(gcd(pStart, pEnd, floor), gcd(p0, p1, floor), floor)
	if base == 0 {
		return 0, fmt.Errorf("%w: base time computed as 0", protocol.ErrTimingUnsupported)
	}
	return uint16(base), nil
}

// ticks rounds d/base half-up. A non-zero duration must keep at least one
// tick.
func ticks(d, base uint16) (int, error) {
	n := (2*uint32(d) + uint32(base)) / (2 * uint32(base))
	if d != 0 && n == 0 {
		return 0, fmt.Errorf("%w: %dus vanishes at base %dus", protocol.ErrTimingUnsupported, d, base)
	}
	if n > MaxTicks {
		return 0, fmt.Errorf("%w: %dus is %d ticks at base %dus", protocol.ErrTimingUnsupported, d, n, base)
	}
	return int(n), nil
}

type edges struct {
	start, end, zero, one frame.Edge
}

func quantize(tc protocol.TimingConfig, base uint16) (edges, error) {
	order := frame.OrderHighLow
	if tc.Format == protocol.FormatLowHigh {
		order = frame.OrderLowHigh
	}
	var q [8]int
	for i, d := range tc.Durations() {
		n, err := ticks(d, base)
		if err != nil {
			return edges{}, err
		}
		q[i] = n
	}
	return edges{
		start: frame.Edge{Order: order, High: q[0], Low: q[1]},
		end:   frame.Edge{Order: order, High: q[2], Low: q[3]},
		zero:  frame.Edge{Order: order, High: q[4], Low: q[5]},
		one:   frame.Edge{Order: order, High: q[6], Low: q[7]},
	}, nil
}

// Length returns the number of RAW bits src would occupy once re-rendered
// at base.
func Length(src []byte, srcBits int, tc protocol.TimingConfig, base uint16) (int, error) {
	e, err := quantize(tc, base)
	if err != nil {
		return 0, err
	}
	ones := frame.CountOnes(src, srcBits)
	zeros := srcBits - ones
	return e.start.Len() + e.end.Len() + ones*e.one.Len() + zeros*e.zero.Len(), nil
}

// Convert re-renders the srcBits logical bits of src into dst as a RAW pulse
// train and returns the RAW timing and the number of bits written.
func Convert(dst, src []byte, srcBits int, tc protocol.TimingConfig, accuracy int) (protocol.TimingConfig, int, error) {
	base, err := BaseTime(tc, accuracy)
	if err != nil {
		return protocol.TimingConfig{}, 0, err
	}
	if srcBits < 0 || srcBits > len(src)*8 {
		return protocol.TimingConfig{}, 0, fmt.Errorf("%w: %d source bits in %d bytes",
			protocol.ErrBufferTooSmall, srcBits, len(src))
	}
	e, err := quantize(tc, base)
	if err != nil {
		return protocol.TimingConfig{}, 0, err
	}

	ones := frame.CountOnes(src, srcBits)
	total := e.start.Len() + e.end.Len() + ones*e.one.Len() + (srcBits-ones)*e.zero.Len()
	if total > len(dst)*8 {
		return protocol.TimingConfig{}, 0, fmt.Errorf("%w: raw frame needs %d bits, %d available",
			protocol.ErrBufferTooSmall, total, len(dst)*8)
	}

	count := frame.WriteEdge(dst, 0, e.start)
	count += frame.WriteBits(dst, count, src, srcBits, e.zero, e.one)
	count += frame.WriteEdge(dst, count, e.end)

	out := protocol.TimingConfig{
		Format:     protocol.FormatRaw,
		BaseTime:   base,
		FrameCount: tc.FrameCount,
	}
	return out, count, nil
}

// Engine carries the accuracy setting and logs each conversion.
type Engine struct {
	Accuracy int
	Logger   zerolog.Logger
}

// NewEngine validates accuracy up front.
func NewEngine(accuracy int, logger zerolog.Logger) (*Engine, error) {
	if err := checkAccuracy(accuracy); err != nil {
		return nil, err
	}
	return &Engine{Accuracy: accuracy, Logger: logger}, nil
}

func (e *Engine) BaseTime(tc protocol.TimingConfig) (uint16, error) {
	return BaseTime(tc, e.Accuracy)
}

func (e *Engine) Convert(dst, src []byte, srcBits int, tc protocol.TimingConfig) (protocol.TimingConfig, int, error) {
	out, n, err := Convert(dst, src, srcBits, tc, e.Accuracy)
	if err != nil {
		e.Logger.Debug().Err(err).Str("format", tc.Format.String()).Msg("raw conversion failed")
		return out, n, err
	}
	e.Logger.Debug().
		Uint16("base_us", out.BaseTime).
		Int("src_bits", srcBits).
		Int("raw_bits", n).
		Int("accuracy", e.Accuracy).
		Msg("converted to raw")
	return out, n, nil
}
