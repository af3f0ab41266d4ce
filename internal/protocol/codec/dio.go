package codec

import "github.com/danmuck/rfctl/internal/protocol"

const dioBits = 64

// DIO covers DI-O (Chacon) plugs.
type DIO struct{}

func (DIO) Descriptor() Descriptor {
	return Descriptor{
		Name:    "DI-O",
		CmdName: "dio",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatHighLow,
			StartHigh:  260,
			StartLow:   2680,
			EndHigh:    260,
			EndLow:     9000,
			Bit0High:   260,
			Bit0Low:    260,
			Bit1High:   260,
			Bit1Low:    1300,
			FrameCount: 7,
		},
		RemoteMax: 0x3FFFFFF,
		DeviceMax: 0x0F,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOffGroup,
	}
}

// Format Manchester-codes the 32-bit word remote(26) | cmd(2) | device(4).
// Each source byte is consumed LSB first; its low nibble lands in the odd
// output byte and its high nibble in the even one.
func (DIO) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("DI-O", buf, dioBits); err != nil {
		return 0, err
	}
	var rawCmd uint32
	switch cmd {
	case protocol.CmdOff:
		rawCmd = 0x00
	case protocol.CmdOn:
		rawCmd = 0x01
	case protocol.CmdGroupOff:
		rawCmd = 0x02
	case protocol.CmdGroupOn:
		rawCmd = 0x03
	default:
		return 0, unsupported("DI-O", cmd)
	}

	word := [4]byte{
		byte(remote >> 18),
		byte(remote >> 10),
		byte(remote >> 2),
		byte((remote&0x03)<<6 | (rawCmd&0x03)<<4 | device&0x0F),
	}

	clear(buf)
	for i := 0; i < 32; i++ {
		idx := (i/8)*2 + 1 - (i/4)%2
		shift := uint((i % 4) * 2)
		if word[i/8]&(1<<uint(i%8)) != 0 {
			buf[idx] |= 0x02 << shift
		} else {
			buf[idx] |= 0x01 << shift
		}
	}
	return dioBits, nil
}
