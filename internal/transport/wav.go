package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	WAVName = "wav"

	DefaultSampleRate = 48000
	// MinSamples keeps very short sequences from underrunning a player. It
	// counts interleaved values across both channels.
	MinSamples = 16000

	// WAVChannels is the interleaved channel count. The left channel stays
	// silent and the right one carries the pulse train.
	WAVChannels   = 2
	SignalChannel = 1

	wavHeaderSize = 44

	sampleHigh int16 = -32768
	sampleLow  int16 = 32767
)

// WAV renders RAW pulse trains as stereo PCM16 audio, for transmitters keyed
// from one sound card output channel.
type WAV struct {
	path       string
	sampleRate int
	log        zerolog.Logger
}

func NewWAV(opts Options, logger zerolog.Logger) (Transport, error) {
	if opts.WAVPath == "" {
		return nil, fmt.Errorf("wav: output path required")
	}
	rate := opts.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	if rate < 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", rate)
	}
	return &WAV{path: opts.WAVPath, sampleRate: rate, log: logger}, nil
}

func (w *WAV) Name() string { return WAVName }

func (w *WAV) Capabilities() protocol.FormatMask { return protocol.MaskRaw }

// Send overwrites the output file with the rendered sequence.
func (w *WAV) Send(ctx context.Context, timing protocol.TimingConfig, buf []byte, bitCount int) error {
	if err := checkSend(ctx, w, timing, buf, bitCount); err != nil {
		return err
	}
	samples, err := RenderSamples(timing, buf, bitCount, w.sampleRate)
	if err != nil {
		return err
	}
	data, err := EncodeWAV(samples, w.sampleRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	w.log.Debug().
		Str("path", w.path).
		Int("samples", len(samples)).
		Int("rate", w.sampleRate).
		Msg("frame rendered")
	return nil
}

func (w *WAV) Close() error { return nil }

// SamplesPerBit is base time in samples, rounded to nearest.
func SamplesPerBit(baseUS uint16, sampleRate int) int {
	return int((uint64(baseUS)*uint64(sampleRate) + 500000) / 1000000)
}

// RenderSamples repeats the RAW frame FrameCount times, one level per base
// time on SignalChannel. The result is interleaved and padded with silence up
// to MinSamples values.
func RenderSamples(timing protocol.TimingConfig, buf []byte, bitCount, sampleRate int) ([]int16, error) {
	if timing.Format != protocol.FormatRaw {
		return nil, fmt.Errorf("%w: wav renders raw frames only", protocol.ErrFormatUnsupported)
	}
	spb := SamplesPerBit(timing.BaseTime, sampleRate)
	if spb == 0 {
		return nil, fmt.Errorf("%w: %dus is below one sample at %dHz",
			protocol.ErrTimingUnsupported, timing.BaseTime, sampleRate)
	}
	perFrame := bitCount * spb * WAVChannels
	total := perFrame * int(timing.FrameCount)
	out := make([]int16, max(total, MinSamples))
	for k := 0; k < int(timing.FrameCount); k++ {
		for i := 0; i < bitCount; i++ {
			level := sampleLow
			if frame.Bit(buf, i) {
				level = sampleHigh
			}
			for j := 0; j < spb; j++ {
				out[k*perFrame+WAVChannels*(i*spb+j)+SignalChannel] = level
			}
		}
	}
	return out, nil
}

// EncodeWAV wraps interleaved PCM16 samples in a RIFF/WAVE container with
// WAVChannels channels.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("wav: no samples to encode")
	}
	if len(samples)%WAVChannels != 0 {
		return nil, fmt.Errorf("wav: %d samples do not fill %d channels", len(samples), WAVChannels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}

	const bytesPerSample = 2
	dataSize := len(samples) * bytesPerSample
	blockAlign := WAVChannels * bytesPerSample

	out := make([]byte, wavHeaderSize+dataSize)
	le := binary.LittleEndian
	copy(out[0:], "RIFF")
	le.PutUint32(out[4:], uint32(wavHeaderSize-8+dataSize))
	copy(out[8:], "WAVEfmt ")
	le.PutUint32(out[16:], 16)
	le.PutUint16(out[20:], 1) // PCM
	le.PutUint16(out[22:], WAVChannels)
	le.PutUint32(out[24:], uint32(sampleRate))
	le.PutUint32(out[28:], uint32(sampleRate*blockAlign))
	le.PutUint16(out[32:], uint16(blockAlign))
	le.PutUint16(out[34:], 8*bytesPerSample)
	copy(out[36:], "data")
	le.PutUint32(out[40:], uint32(dataSize))
	for i, v := range samples {
		le.PutUint16(out[wavHeaderSize+i*bytesPerSample:], uint16(v))
	}
	return out, nil
}
