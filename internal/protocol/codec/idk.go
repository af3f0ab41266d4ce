package codec

import "github.com/danmuck/rfctl/internal/protocol"

const (
	idkBits   = 25
	idkFiller = 0x5555
)

// Idk wireless chimes. Only ringing (ON) exists.
type Idk struct{}

func (Idk) Descriptor() Descriptor {
	return Descriptor{
		Name:    "Idk",
		CmdName: "idk",
		Timings: protocol.TimingConfig{
			Format:     protocol.FormatHighLow,
			StartHigh:  0,
			StartLow:   7440,
			Bit0High:   220,
			Bit0Low:    800,
			Bit1High:   700,
			Bit1Low:    320,
			FrameCount: 20,
		},
		RemoteMax: 0x00,
		DeviceMax: 0x0F,
		Needs:     NeedDevice | NeedCommand,
		Commands:  []protocol.Command{protocol.CmdOn},
	}
}

// Format doubles the device bits into one byte (only the low nibble fits)
// followed by the fixed filler.
func (Idk) Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error) {
	if err := checkCapacity("Idk", buf, idkBits); err != nil {
		return 0, err
	}
	if cmd != protocol.CmdOn {
		return 0, unsupported("Idk", cmd)
	}

	buf[0] = byte(doubleBits(device, 8))
	buf[1] = byte(idkFiller >> 8)
	buf[2] = byte(idkFiller & 0xFF)
	buf[3] = byte(idkFiller & 0xFF)
	return idkBits, nil
}
