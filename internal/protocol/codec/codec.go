package codec

import (
	"fmt"

	"github.com/danmuck/rfctl/internal/protocol"
)

// Needs declares which request parameters a codec uses.
type Needs uint8

const (
	NeedRemote Needs = 1 << iota
	NeedDevice
	NeedCommand
)

// Descriptor is the static, read-only description of one protocol.
type Descriptor struct {
	Name      string
	CmdName   string
	Timings   protocol.TimingConfig
	RemoteMax uint32
	DeviceMax uint32
	Needs     Needs
	Commands  []protocol.Command
}

// Supports reports whether cmd is one of the accepted commands.
func (d Descriptor) Supports(cmd protocol.Command) bool {
	for _, c := range d.Commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// Codec formats one command into a frame written to buf, returning the
// number of logical bits used. buf is owned by the caller.
type Codec interface {
	Descriptor() Descriptor
	Format(buf []byte, remote, device uint32, cmd protocol.Command) (int, error)
}

func checkCapacity(name string, buf []byte, bitCount int) error {
	if len(buf)*8 < bitCount {
		return fmt.Errorf("%w: %s: %d bytes available, %d needed",
			protocol.ErrBufferTooSmall, name, len(buf), (bitCount+7)/8)
	}
	return nil
}

func unsupported(name string, cmd protocol.Command) error {
	return fmt.Errorf("%w: %s: %s", protocol.ErrUnsupportedCommand, name, cmd)
}

// doubleBits spreads the low n bits of v into 2n bits, each bit b becoming
// b followed by a 1 (0 -> 01, 1 -> 11).
func doubleBits(v uint32, n int) uint32 {
	var out uint32
	for i := 0; i < n; i++ {
		if v&(1<<i) != 0 {
			out |= 0x3 << (2 * i)
		} else {
			out |= 0x1 << (2 * i)
		}
	}
	return out
}

var (
	onOff      = []protocol.Command{protocol.CmdOff, protocol.CmdOn}
	onOffGroup = []protocol.Command{protocol.CmdOff, protocol.CmdOn, protocol.CmdGroupOff, protocol.CmdGroupOn}
)

var needNames = []struct {
	need Needs
	name string
}{
	{NeedRemote, "remote"},
	{NeedDevice, "device"},
	{NeedCommand, "command"},
}

// Names lists the parameters in n.
func (n Needs) Names() []string {
	out := make([]string, 0, len(needNames))
	for _, nn := range needNames {
		if n&nn.need != 0 {
			out = append(out, nn.name)
		}
	}
	return out
}

// Missing returns the parameters the protocol needs that provided lacks.
func (d Descriptor) Missing(provided Needs) Needs {
	return d.Needs &^ provided
}
