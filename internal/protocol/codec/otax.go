package codec

import "github.com/danmuck/rfctl/internal/protocol"

const otaxBits = 25

// OTAX wireless plugs.
type OTAX struct{}

func (OTAX) Descriptor() Descriptor {
	return Descriptor{
		Name:    "OTAX",
		CmdName: "otax",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatHighLow,
			StartHigh:  0,
			StartLow:   4860,
			Bit0High:   160,
			Bit0Low:    420,
			Bit1High:   420,
			Bit1Low:    160,
			FrameCount: 10,
		},
		RemoteMax: 0x1F,
		DeviceMax: 0x1F,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOffGroup,
	}
}

// Format packs 10 remote bits, 10 device bits and a 4-bit command code.
// The plugs have no group address, so group commands reuse the OFF/ON codes.
func (OTAX) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("OTAX", buf, otaxBits); err != nil {
		return 0, err
	}
	var rawCmd byte
	switch cmd {
	case protocol.CmdOff, protocol.CmdGroupOff:
		rawCmd = 0x01
	case protocol.CmdOn, protocol.CmdGroupOn:
		rawCmd = 0x04
	default:
		return 0, unsupported("OTAX", cmd)
	}

	rawRemote := doubleBits(remote, 5)

	// inverted, each bit preceded by a 0 (0 -> 01, 1 -> 00)
	var rawDevice uint32
	for i := 0; i < 5; i++ {
		if device&(1<<i) == 0 {
			rawDevice |= 0x1 << (2 * i)
		}
	}

	buf[0] = byte((rawRemote & 0x3FF) >> 2)
	buf[1] = byte((rawRemote&0x3)<<6 | (rawDevice&0x3FF)>>4)
	buf[2] = byte((rawDevice&0xF)<<4 | uint32(rawCmd&0xF))
	buf[3] = 0
	return otaxBits, nil
}
