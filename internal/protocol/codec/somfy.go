package codec

import (
	"fmt"

	"github.com/danmuck/rfctl/internal/counter"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	// SomfyFrames is the number of frames generated in one sequence.
	SomfyFrames = 10

	somfyFirstFrameBits = 213
	somfyNextFrameBits  = 225
	somfyBits           = somfyFirstFrameBits + (SomfyFrames-1)*somfyNextFrameBits
	somfyPayloadBytes   = 7
	somfyCounterModulus = 0x10000
	somfyLowDeviceID    = 0x400
)

var (
	somfyBitZero = frame.Edge{Order: frame.OrderHighLow, High: 1, Low: 1}
	somfyBitOne  = frame.Edge{Order: frame.OrderLowHigh, High: 1, Low: 1}
)

// Somfy RTS blinds and shutters (433.42MHz). The whole repeated sequence is
// rendered as a RAW pulse train with a 625us tick and a rolling counter
// persisted per remote and device.
type Somfy struct {
	Store  counter.Store
	Logger zerolog.Logger
}

func (Somfy) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Somfy RTS",
		CmdName: "somfy",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatRaw,
			BaseTime:   625,
			FrameCount: 1,
		},
		RemoteMax: 0xFF,
		DeviceMax: 0xFFFFFF,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  []protocol.Command{protocol.CmdOff, protocol.CmdOn, protocol.CmdProg, protocol.CmdF1},
	}
}

func (s Somfy) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Somfy RTS", buf, somfyBits); err != nil {
		return 0, err
	}
	var rawCmd byte
	switch cmd {
	case protocol.CmdOff:
		rawCmd = 0x04
	case protocol.CmdOn:
		rawCmd = 0x02
	case protocol.CmdProg:
		rawCmd = 0x08
	case protocol.CmdF1: // My/Dim button
		rawCmd = 0x01
	default:
		return 0, unsupported("Somfy RTS", cmd)
	}

	if device < somfyLowDeviceID {
		s.Logger.Warn().
			Str("protocol", "somfy").
			Uint32("device", device).
			Msg("device id below 0x400 may not be accepted by the receiver")
	}

	key := counter.Key{Protocol: "somfy", Remote: remote, Device: device}
	code, err := counter.Advance(s.Store, key, somfyCounterModulus)
	if err != nil {
		return 0, fmt.Errorf("somfy rolling code %s: %w", key, err)
	}
	s.Logger.Debug().Str("key", key.String()).Msgf("rolling code at %04X", code)

	payload := SomfyPayload(byte(remote), rawCmd, uint16(code), device)

	count := 0
	for i := 0; i < SomfyFrames; i++ {
		if i == 0 {
			// wake-up pulse, then 2 sync bursts
			count += frame.WriteHigh(buf, count, 16)
			count += frame.WriteLow(buf, count, 12)
			count += writeSomfySync(buf, count, 2)
		} else {
			count += writeSomfySync(buf, count, 7)
		}
		count += frame.WriteBits(buf, count, payload[:], somfyPayloadBytes*8, somfyBitZero, somfyBitOne)
		// inter-frame gap, ~30ms
		count += frame.WriteLow(buf, count, 48)
	}
	return count, nil
}

// writeSomfySync writes n bursts of 4 high / 4 low ticks and the closing
// 8 high / 1 low sync pulse.
func writeSomfySync(buf []byte, offset int, n int) int {
	count := offset
	for i := 0; i < n; i++ {
		count += frame.WriteHigh(buf, count, 4)
		count += frame.WriteLow(buf, count, 4)
	}
	count += frame.WriteHigh(buf, count, 8)
	count += frame.WriteLow(buf, count, 1)
	return count - offset
}

// SomfyPayload builds the whitened 7-byte payload:
//
//	|  0  |     1      |   2     3    | 4   5   6 |
//	| key | cmd/chksum | rolling code |  address  |
func SomfyPayload(key, cmd byte, rollingCode uint16, address uint32) [somfyPayloadBytes]byte {
	data := [somfyPayloadBytes]byte{
		key,
		(cmd << 4) & 0xF0,
		byte(rollingCode >> 8),
		byte(rollingCode),
		byte(address),
		byte(address >> 8),
		byte(address >> 16),
	}

	var checksum byte
	for _, b := range data {
		checksum ^= b ^ (b >> 4)
	}
	data[1] |= checksum & 0x0F

	for i := 1; i < somfyPayloadBytes; i++ {
		data[i] ^= data[i-1]
	}
	return data
}
