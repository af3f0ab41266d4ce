package codec

import "github.com/danmuck/rfctl/internal/protocol"

const auchanBits = 25

// Auchan wireless plugs (first generation).
type Auchan struct{}

func (Auchan) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Auchan",
		CmdName: "auchan",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatHighLow,
			StartHigh:  0,
			StartLow:   10400,
			Bit0High:   400,
			Bit0Low:    1100,
			Bit1High:   1100,
			Bit1Low:    400,
			FrameCount: 10,
		},
		RemoteMax: 0xFFFFF,
		DeviceMax: 0x7,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOff,
	}
}

// Format lays out remote(20) | device(3) | cmd(1). OFF is the set bit.
func (Auchan) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Auchan", buf, auchanBits); err != nil {
		return 0, err
	}
	var rawCmd uint32
	switch cmd {
	case protocol.CmdOff:
		rawCmd = 0x1
	case protocol.CmdOn:
		rawCmd = 0x0
	default:
		return 0, unsupported("Auchan", cmd)
	}

	buf[0] = byte((remote & 0xFFFFF) >> 12)
	buf[1] = byte((remote & 0xFFF) >> 4)
	buf[2] = byte((remote&0xF)<<4 | (device&0x7)<<1 | rawCmd&0x1)
	buf[3] = 0
	return auchanBits, nil
}
