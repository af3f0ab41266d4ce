package codec

import (
	"fmt"

	"github.com/danmuck/rfctl/internal/counter"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/rs/zerolog"
)

const (
	blyssBits      = 52
	blyssFrameType = 0xFE
	blyssTableSize = 5
)

// BlyssRollingCodes is cycled through, one entry per frame formatted.
var BlyssRollingCodes = [blyssTableSize]byte{0x98, 0xDA, 0x1E, 0xE6, 0x67}

// Blyss wireless plugs. The upper nibble of the 20-bit remote id selects the
// channel.
type Blyss struct {
	Store  counter.Store
	Logger zerolog.Logger
}

func (Blyss) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Blyss",
		CmdName: "blyss",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatLowHigh,
			StartHigh:  2400,
			StartLow:   0,
			EndHigh:    0,
			EndLow:     24000,
			Bit0High:   400,
			Bit0Low:    800,
			Bit1High:   800,
			Bit1Low:    400,
			FrameCount: 10,
		},
		RemoteMax: 0xFFFFF,
		DeviceMax: 0xF,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOffGroup,
	}
}

func (b Blyss) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Blyss", buf, blyssBits); err != nil {
		return 0, err
	}
	var rawCmd byte
	switch cmd {
	case protocol.CmdOff:
		rawCmd = 0x1
	case protocol.CmdOn:
		rawCmd = 0x0
	case protocol.CmdGroupOff:
		rawCmd = 0x1
		device = 0
	case protocol.CmdGroupOn:
		rawCmd = 0x0
		device = 0
	default:
		return 0, unsupported("Blyss", cmd)
	}

	key := counter.Key{Protocol: "blyss", Remote: remote, Device: device}
	idx, err := counter.Advance(b.Store, key, blyssTableSize)
	if err != nil {
		return 0, fmt.Errorf("blyss rolling code %s: %w", key, err)
	}
	idx %= blyssTableSize
	code := BlyssRollingCodes[idx]
	b.Logger.Debug().Str("key", key.String()).Msgf("rolling code index at %d (0x%02X)", idx, code)

	// only has to change between frames
	timestamp := ^code

	channel := byte(remote>>16) & 0x0F
	remote &= 0xFFFF

	buf[0] = blyssFrameType
	buf[1] = channel<<4 | byte(remote>>12)&0x0F
	buf[2] = byte(remote >> 4)
	buf[3] = byte(remote&0x0F)<<4 | byte(device&0x0F)
	buf[4] = (rawCmd&0x0F)<<4 | code>>4
	buf[5] = (code&0x0F)<<4 | timestamp>>4
	buf[6] = (timestamp & 0x0F) << 4
	return blyssBits, nil
}
