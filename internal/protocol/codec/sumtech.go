package codec

import "github.com/danmuck/rfctl/internal/protocol"

const sumtechBits = 32

// Sumtech wireless plugs.
type Sumtech struct{}

func (Sumtech) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Sumtech",
		CmdName: "sumtech",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatLowHigh,
			StartHigh:  4940,
			StartLow:   9640,
			Bit0High:   1200,
			Bit0Low:    400,
			Bit1High:   400,
			Bit1Low:    1200,
			FrameCount: 10,
		},
		RemoteMax: 0xFFFFFF,
		DeviceMax: 0x7F,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOff,
	}
}

// Format lays out remote(24) | cmd(1) | device(7) unchanged.
func (Sumtech) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Sumtech", buf, sumtechBits); err != nil {
		return 0, err
	}
	var rawCmd byte
	switch cmd {
	case protocol.CmdOff:
		rawCmd = 0x00
	case protocol.CmdOn:
		rawCmd = 0x01
	default:
		return 0, unsupported("Sumtech", cmd)
	}

	buf[0] = byte(remote >> 16)
	buf[1] = byte(remote >> 8)
	buf[2] = byte(remote)
	buf[3] = (rawCmd&0x01)<<7 | byte(device&0x7F)
	return sumtechBits, nil
}
