// Package controller ties the codec registry, the raw engine and a transport
// together: it formats a command, converts the frame when the transport
// cannot reproduce the native timing, and hands the result over.
package controller

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/rfctl/internal/observability"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/danmuck/rfctl/internal/protocol/raw"
	"github.com/danmuck/rfctl/internal/transport"
	"github.com/rs/zerolog"
)

// DefaultMaxFrameBytes is the frame buffer size used for formatting and raw
// conversion.
const DefaultMaxFrameBytes = 512

type Options struct {
	// ForceRaw converts every non-raw frame, even when the transport could
	// send it natively.
	ForceRaw bool
	// FrameCount overrides each protocol's repetition count when non-zero.
	FrameCount uint8
	// Accuracy is the raw conversion tolerance. Nil uses
	// raw.DefaultAccuracy.
	Accuracy      *int
	MaxFrameBytes int
}

// Accuracy returns a pointer for Options.Accuracy.
func Accuracy(n int) *int {
	return &n
}

// Request names one command to format.
type Request struct {
	Protocol string
	Remote   uint32
	Device   uint32
	Command  protocol.Command
	ForceRaw bool
}

// HexBytes marshals as upper-case hex.
type HexBytes []byte

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(strings.ToUpper(hex.EncodeToString(b))), nil
}

func (b HexBytes) String() string {
	s, _ := b.MarshalText()
	return string(s)
}

// Frame is a bit buffer with its timing.
type Frame struct {
	Timing   protocol.TimingConfig `json:"timing"`
	Data     HexBytes              `json:"data"`
	BitCount int                   `json:"bit_count"`
}

// Result is a formatted command: the native frame and, when converted, its
// raw rendering.
type Result struct {
	Protocol string   `json:"protocol"`
	Name     string   `json:"name"`
	Command  string   `json:"command"`
	Remote   uint32   `json:"remote"`
	Device   uint32   `json:"device"`
	Native   Frame    `json:"native"`
	Raw      *Frame   `json:"raw,omitempty"`
	Needs    []string `json:"needs"`
}

// Wire returns the frame that goes to the transport.
func (r Result) Wire() Frame {
	if r.Raw != nil {
		return *r.Raw
	}
	return r.Native
}

type Controller struct {
	codecs    *codec.Registry
	transport transport.Transport
	engine    *raw.Engine
	opts      Options
	log       zerolog.Logger
}

func New(codecs *codec.Registry, tr transport.Transport, opts Options, logger zerolog.Logger) (*Controller, error) {
	if codecs == nil {
		return nil, errors.New("controller: codec registry required")
	}
	if tr == nil {
		return nil, errors.New("controller: transport required")
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = DefaultMaxFrameBytes
	}
	accuracy := raw.DefaultAccuracy
	if opts.Accuracy != nil {
		accuracy = *opts.Accuracy
	}
	engine, err := raw.NewEngine(accuracy, logger)
	if err != nil {
		return nil, err
	}
	return &Controller{
		codecs:    codecs,
		transport: tr,
		engine:    engine,
		opts:      opts,
		log:       logger,
	}, nil
}

func (c *Controller) Codecs() *codec.Registry { return c.codecs }

func (c *Controller) Transport() transport.Transport { return c.transport }

// Format builds the frame for req without sending it.
func (c *Controller) Format(req Request) (Result, error) {
	cd, err := c.codecs.Lookup(req.Protocol)
	if err != nil {
		return Result{}, err
	}
	return c.format(cd, req)
}

func (c *Controller) format(cd codec.Codec, req Request) (Result, error) {
	d := cd.Descriptor()
	c.warnRange(d, req)

	buf := make([]byte, c.opts.MaxFrameBytes)
	n, err := cd.Format(buf, req.Remote, req.Device, req.Command)
	if err != nil {
		observability.RecordCodecError(d.CmdName, Reason(err))
		return Result{}, err
	}
	observability.RecordFrame(d.CmdName, req.Command.Name())

	timing := d.Timings
	if c.opts.FrameCount > 0 {
		timing = timing.WithFrameCount(c.opts.FrameCount)
	}
	res := Result{
		Protocol: d.CmdName,
		Name:     d.Name,
		Command:  req.Command.String(),
		Remote:   req.Remote,
		Device:   req.Device,
		Native:   Frame{Timing: timing, Data: HexBytes(buf[:frame.ByteLen(n)]), BitCount: n},
		Needs:    d.Needs.Names(),
	}

	caps := c.transport.Capabilities()
	convert := (c.opts.ForceRaw || req.ForceRaw || !caps.Has(timing.Format)) && timing.Format != protocol.FormatRaw
	if convert {
		dst := make([]byte, c.opts.MaxFrameBytes)
		rt, bits, err := c.engine.Convert(dst, buf, n, timing)
		if err != nil {
			observability.RecordCodecError(d.CmdName, Reason(err))
			return Result{}, fmt.Errorf("%s raw conversion: %w", d.Name, err)
		}
		observability.RecordRawConversion(d.CmdName, bits)
		res.Raw = &Frame{Timing: rt, Data: HexBytes(dst[:frame.ByteLen(bits)]), BitCount: bits}
	}

	c.log.Debug().
		Str("protocol", d.CmdName).
		Str("format", timing.Format.String()).
		Uint8("frames", timing.FrameCount).
		Stringer("frame", res.Native.Data).
		Bool("raw", res.Raw != nil).
		Msg("frame formatted")
	return res, nil
}

// Send formats req and transmits it.
func (c *Controller) Send(ctx context.Context, req Request) (Result, error) {
	cd, err := c.codecs.Lookup(req.Protocol)
	if err != nil {
		return Result{}, err
	}
	return c.send(ctx, cd, req)
}

func (c *Controller) send(ctx context.Context, cd codec.Codec, req Request) (Result, error) {
	res, err := c.format(cd, req)
	if err != nil {
		return Result{}, err
	}
	w := res.Wire()
	if !c.transport.Capabilities().Has(w.Timing.Format) {
		observability.RecordTransportSend(c.transport.Name(), w.Timing.Format.String(), false)
		return res, fmt.Errorf("%w: %s cannot send %s", protocol.ErrFormatUnsupported, c.transport.Name(), w.Timing.Format)
	}

	ev := c.log.Info().Str("protocol", res.Name).Str("command", res.Command)
	d := cd.Descriptor()
	if d.Needs&codec.NeedDevice != 0 {
		ev = ev.Uint32("device", res.Device)
	}
	if d.Needs&codec.NeedRemote != 0 {
		ev = ev.Uint32("remote", res.Remote)
	}
	ev.Msg("sending command")

	err = c.transport.Send(ctx, w.Timing, w.Data, w.BitCount)
	observability.RecordTransportSend(c.transport.Name(), w.Timing.Format.String(), err == nil)
	if err != nil {
		return res, fmt.Errorf("%s via %s: %w", res.Name, c.transport.Name(), err)
	}
	return res, nil
}

func (c *Controller) warnRange(d codec.Descriptor, req Request) {
	if d.Needs&codec.NeedRemote != 0 && req.Remote > d.RemoteMax {
		c.log.Warn().Str("protocol", d.CmdName).Msgf("remote id 0x%X above 0x%X is truncated", req.Remote, d.RemoteMax)
	}
	if d.Needs&codec.NeedDevice != 0 && req.Device > d.DeviceMax {
		c.log.Warn().Str("protocol", d.CmdName).Msgf("device id 0x%X above 0x%X is truncated", req.Device, d.DeviceMax)
	}
}

// Reason is the metric label for err.
func Reason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrUnsupportedCommand):
		return "unsupported_command"
	case errors.Is(err, protocol.ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, protocol.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, protocol.ErrTimingUnsupported):
		return "timing_unsupported"
	case errors.Is(err, protocol.ErrInvalidAccuracy):
		return "invalid_accuracy"
	case errors.Is(err, protocol.ErrFormatUnsupported):
		return "format_unsupported"
	default:
		return "other"
	}
}
