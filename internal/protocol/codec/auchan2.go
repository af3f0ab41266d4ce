package codec

import (
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
)

const auchan2Bits = 21

// Auchan2 covers the second generation of Auchan plugs.
type Auchan2 struct{}

func (Auchan2) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Auchan 2",
		CmdName: "auchan2",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatLowHigh,
			Bit0High:   1320,
			Bit0Low:    680,
			Bit1High:   680,
			Bit1Low:    1320,
			FrameCount: 10,
		},
		RemoteMax: 0x1FFF,
		DeviceMax: 0x3,
		Needs:     NeedRemote | NeedDevice | NeedCommand,
		Commands:  onOffGroup,
	}
}

// Format lays out remote(13) | device bit0, bit1 | cmd(2) | 00 | crc(2).
func (Auchan2) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Auchan 2", buf, auchan2Bits); err != nil {
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
		return 0, unsupported("Auchan 2", cmd)
	}

	buf[0] = byte((remote & 0x1FFF) >> 5)
	buf[1] = byte((remote&0x1F)<<3 | (device&0x1)<<2 | device&0x2 | (rawCmd&0x3)>>1)
	buf[2] = byte((rawCmd & 0x1) << 7)
	buf[2] |= Auchan2Checksum(buf, auchan2Bits-2) << 3
	return auchan2Bits, nil
}

// Auchan2Checksum folds the first n bits into 2 bits: bit i is XORed into
// position i%2, so the first bit of the frame pairs with nothing.
func Auchan2Checksum(buf []byte, n int) byte {
	var crc byte
	for i := 0; i < n; i++ {
		var b byte
		if frame.Bit(buf, i) {
			b = 1
		}
		crc ^= b << uint(i%2)
	}
	return crc & 0x3
}
