package codec

import (
	"encoding/binary"

	"github.com/danmuck/rfctl/internal/protocol"
)

const homeEasyBits = 57

var homeEasySymbols = [16]byte{
	0x07, 0x0b, 0x0d, 0x0e, 0x13, 0x15, 0x16, 0x19,
	0x1a, 0x1c, 0x03, 0x05, 0x06, 0x09, 0x0a, 0x0c,
}

// HomeEasy plugs (HE853 family). The remote id is not part of the frame.
type HomeEasy struct{}

func (HomeEasy) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Home Easy",
		CmdName: "he",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatHighLow,
			StartHigh:  260,
			StartLow:   8600,
			Bit0High:   260,
			Bit0Low:    260,
			Bit1High:   260,
			Bit1Low:    1300,
			FrameCount: 7,
		},
		RemoteMax: 0x00,
		DeviceMax: 0xFFFF,
		Needs:     NeedDevice | NeedCommand,
		Commands:  onOff,
	}
}

// Format maps each payload nibble through the symbol table into a 7-bit
// code and packs the eight codes big-endian, MSB of the first one set.
func (HomeEasy) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Home Easy", buf, homeEasyBits); err != nil {
		return 0, err
	}
	payload := [4]byte{0x00, byte(device >> 8), byte(device), 0x00}
	switch cmd {
	case protocol.CmdOff:
	case protocol.CmdOn:
		payload[3] |= 0x10
	default:
		return 0, unsupported("Home Easy", cmd)
	}

	var word uint64
	for i := 0; i < 8; i++ {
		nibble := payload[i/2] >> 4
		if i%2 == 1 {
			nibble = payload[i/2] & 0x0F
		}
		sym := (homeEasySymbols[nibble] | 0x40) & 0x7F
		if i == 0 {
			word = uint64(sym | 0x80)
			continue
		}
		word = word<<7 | uint64(sym)
	}
	word <<= 7

	binary.BigEndian.PutUint64(buf[:8], word)
	return homeEasyBits, nil
}
