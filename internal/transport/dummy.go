package transport

import (
	"context"
	"sync"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const DummyName = "dummy"

// Sent is one recorded Dummy send.
type Sent struct {
	Timing   protocol.TimingConfig
	Frame    []byte
	BitCount int
}

// Dummy accepts frames, logs them and keeps a copy.
type Dummy struct {
	formats protocol.FormatMask
	log     zerolog.Logger

	mu     sync.Mutex
	sent   []Sent
	closed bool
}

// NewDummy accepts every format unless opts.Formats narrows it.
func NewDummy(opts Options, logger zerolog.Logger) (Transport, error) {
	formats := opts.Formats
	if formats == 0 {
		formats = protocol.MaskAll
	}
	return &Dummy{formats: formats, log: logger}, nil
}

func (d *Dummy) Name() string { return DummyName }

func (d *Dummy) Capabilities() protocol.FormatMask { return d.formats }

func (d *Dummy) Send(ctx context.Context, timing protocol.TimingConfig, buf []byte, bitCount int) error {
	if err := checkSend(ctx, d, timing, buf, bitCount); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	cp := append([]byte(nil), buf[:frame.ByteLen(bitCount)]...)
	d.sent = append(d.sent, Sent{Timing: timing, Frame: cp, BitCount: bitCount})
	d.log.Info().
		Str("format", timing.Format.String()).
		Uint8("frames", timing.FrameCount).
		Int("bits", bitCount).
		Hex("frame", cp).
		Msg("dummy send")
	return nil
}

// Sent returns every send recorded so far.
func (d *Dummy) Sent() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Sent, len(d.sent))
	copy(out, d.sent)
	return out
}

func (d *Dummy) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
