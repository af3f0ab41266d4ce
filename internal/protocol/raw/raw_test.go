package raw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/danmuck/rfctl/internal/testutil/testlog"
)

const maxFrameBytes = 512

func TestBaseTimeKnownProtocols(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name     string
		timing   protocol.TimingConfig
		accuracy int
		want     uint16
	}{
		{"dio", codec.DIO{}.Descriptor().Timings, DefaultAccuracy, 40},
		{"dio-exact", codec.DIO{}.Descriptor().Timings, 100, 20},
		{"otax", codec.OTAX{}.Descriptor().Timings, DefaultAccuracy, 20},
		{"blyss", codec.Blyss{}.Descriptor().Timings, DefaultAccuracy, 400},
	}
	for _, tc := range cases {
		got, err := BaseTime(tc.timing, tc.accuracy)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: base %d want %d", tc.name, got, tc.want)
		}
		testlog.Logf("raw/%s: base=%dus", tc.name, got)
	}
}

func TestConvertDIOFitsFrameBuffer(t *testing.T) {
	testlog.Start(t)
	src := make([]byte, 8)
	n, err := codec.DIO{}.Format(src, 0x1234567, 0x5, protocol.CmdOn)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	tc := codec.DIO{}.Descriptor().Timings

	dst := make([]byte, maxFrameBytes)
	out, bits, err := Convert(dst, src, n, tc, DefaultAccuracy)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out.Format != protocol.FormatRaw || out.BaseTime != 40 || out.FrameCount != tc.FrameCount {
		t.Fatalf("unexpected timing %+v", out)
	}
	if bits != 2034 {
		t.Fatalf("raw bits %d want 2034", bits)
	}
	if l, err := Length(src, n, tc, out.BaseTime); err != nil || l != bits {
		t.Fatalf("length %d (%v) differs from written %d", l, err, bits)
	}

	// start edge: 260us high, 2680us low
	for i := 0; i < 74; i++ {
		if frame.Bit(dst, i) != (i < 7) {
			t.Fatalf("start edge bit %d wrong", i)
		}
	}
	// end edge: 260us high, 9000us low
	for i := bits - 232; i < bits; i++ {
		if frame.Bit(dst, i) != (i < bits-225) {
			t.Fatalf("end edge bit %d wrong", i)
		}
	}
}

func TestConvertPreservesLowHighOrder(t *testing.T) {
	testlog.Start(t)
	tc := codec.Blyss{}.Descriptor().Timings
	dst := make([]byte, 16)
	out, bits, err := Convert(dst, []byte{0x80}, 2, tc, DefaultAccuracy)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out.BaseTime != 400 || bits != 72 {
		t.Fatalf("base %d bits %d", out.BaseTime, bits)
	}
	// start: 6 high; one: low 1 high 2; zero: low 2 high 1; end: 60 low
	want := []byte{0xFD, 0x90, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(dst[:frame.ByteLen(bits)], want) {
		t.Fatalf("raw frame % X want % X", dst[:frame.ByteLen(bits)], want)
	}
}

func TestConvertOTAXLength(t *testing.T) {
	testlog.Start(t)
	src := make([]byte, 4)
	n, _ := codec.OTAX{}.Format(src, 0x03, 0x11, protocol.CmdOff)
	dst := make([]byte, maxFrameBytes)
	out, bits, err := Convert(dst, src, n, codec.OTAX{}.Descriptor().Timings, DefaultAccuracy)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	// both data symbols are 29 ticks, start low is 243
	if out.BaseTime != 20 || bits != 243+25*29 {
		t.Fatalf("base %d bits %d", out.BaseTime, bits)
	}
}

func TestBaseTimeErrors(t *testing.T) {
	testlog.Start(t)
	dio := codec.DIO{}.Descriptor().Timings
	for _, acc := range []int{-1, 101} {
		if _, err := BaseTime(dio, acc); !errors.Is(err, protocol.ErrInvalidAccuracy) {
			t.Fatalf("accuracy %d: expected ErrInvalidAccuracy, got %v", acc, err)
		}
	}
	if _, err := NewEngine(150, testlog.Logger(t)); !errors.Is(err, protocol.ErrInvalidAccuracy) {
		t.Fatalf("expected ErrInvalidAccuracy, got %v", err)
	}
	if _, err := BaseTime(protocol.TimingConfig{Format: protocol.FormatHighLow}, DefaultAccuracy); !errors.Is(err, protocol.ErrTimingUnsupported) {
		t.Fatalf("expected ErrTimingUnsupported for all-zero timing, got %v", err)
	}
	if _, err := BaseTime(codec.Somfy{}.Descriptor().Timings, DefaultAccuracy); !errors.Is(err, protocol.ErrTimingUnsupported) {
		t.Fatalf("expected ErrTimingUnsupported for raw timing, got %v", err)
	}
}

func TestConvertErrors(t *testing.T) {
	testlog.Start(t)
	// 100us rounds to 0 ticks of the 1000us quantum
	vanishing := protocol.TimingConfig{Format: protocol.FormatHighLow, StartHigh: 100, StartLow: 1000}
	if base, err := BaseTime(vanishing, 0); err != nil || base != 1000 {
		t.Fatalf("base %d err %v", base, err)
	}
	dst := make([]byte, maxFrameBytes)
	if _, _, err := Convert(dst, []byte{0xFF}, 8, vanishing, 0); !errors.Is(err, protocol.ErrTimingUnsupported) {
		t.Fatalf("expected ErrTimingUnsupported, got %v", err)
	}

	src := make([]byte, 8)
	n, _ := codec.DIO{}.Format(src, 1, 1, protocol.CmdOn)
	if _, _, err := Convert(make([]byte, 200), src, n, codec.DIO{}.Descriptor().Timings, DefaultAccuracy); !errors.Is(err, protocol.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall, got %v", err)
	}
	if _, _, err := Convert(dst, src, 65, codec.DIO{}.Descriptor().Timings, DefaultAccuracy); !errors.Is(err, protocol.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall for short source, got %v", err)
	}
}

func TestEngineUsesConfiguredAccuracy(t *testing.T) {
	testlog.Start(t)
	e, err := NewEngine(100, testlog.Logger(t))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	base, err := e.BaseTime(codec.DIO{}.Descriptor().Timings)
	if err != nil || base != 20 {
		t.Fatalf("base %d err %v", base, err)
	}
	src := make([]byte, 8)
	n, _ := codec.DIO{}.Format(src, 1, 1, protocol.CmdOn)
	out, _, err := e.Convert(make([]byte, 2048), src, n, codec.DIO{}.Descriptor().Timings)
	if err != nil || out.BaseTime != 20 {
		t.Fatalf("convert base %d err %v", out.BaseTime, err)
	}
}
