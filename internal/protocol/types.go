package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a logical remote-control button.
type Command uint8

const (
	CmdOff Command = iota
	CmdOn
	CmdGroupOff
	CmdGroupOn
	CmdProg
	CmdF1
	CmdF2
	CmdF3
	cmdMax
)

var commandNames = [cmdMax]string{"off", "on", "goff", "gon", "prog", "f1", "f2", "f3"}

var commandLabels = [cmdMax]string{"OFF", "ON", "Group OFF", "Group ON", "Prog", "F1", "F2", "F3"}

// Commands returns every known command in index order.
func Commands() []Command {
	out := make([]Command, 0, cmdMax)
	for c := CmdOff; c < cmdMax; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	return c < cmdMax
}

// Name is the command-line spelling.
func (c Command) Name() string {
	if !c.Valid() {
		return "cmd(" + strconv.Itoa(int(c)) + ")"
	}
	return commandNames[c]
}

func (c Command) String() string {
	if !c.Valid() {
		return c.Name()
	}
	return commandLabels[c]
}

// ParseCommand accepts a command-line name or a decimal index.
func ParseCommand(raw string) (Command, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for i, name := range commandNames {
		if v == name {
			return Command(i), nil
		}
	}
	if n, err := strconv.ParseUint(v, 0, 8); err == nil && Command(n).Valid() {
		return Command(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, raw)
}

// BitFormat selects how a logical bit is laid out in time.
type BitFormat uint8

const (
	FormatHighLow BitFormat = iota
	FormatLowHigh
	FormatRaw
)

func (f BitFormat) String() string {
	switch f {
	case FormatHighLow:
		return "H-L"
	case FormatLowHigh:
		return "L-H"
	case FormatRaw:
		return "Raw"
	default:
		return "fmt(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseBitFormat accepts "hl", "lh", "raw" and the display names.
func ParseBitFormat(raw string) (BitFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hl", "h-l", "high_low":
		return FormatHighLow, nil
	case "lh", "l-h", "low_high":
		return FormatLowHigh, nil
	case "raw":
		return FormatRaw, nil
	default:
		return 0, fmt.Errorf("protocol: unknown bit format %q", raw)
	}
}

func (f BitFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *BitFormat) UnmarshalText(b []byte) error {
	v, err := ParseBitFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// FormatMask is a set of bit formats a transport can reproduce.
type FormatMask uint8

const (
	MaskHighLow FormatMask = 1 << FormatHighLow
	MaskLowHigh FormatMask = 1 << FormatLowHigh
	MaskRaw     FormatMask = 1 << FormatRaw
	MaskAll                = MaskHighLow | MaskLowHigh | MaskRaw
)

// MaskOf builds a mask from individual formats.
func MaskOf(formats ...BitFormat) FormatMask {
	var m FormatMask
	for _, f := range formats {
		m |= 1 << f
	}
	return m
}

// Has reports whether f is part of the mask.
func (m FormatMask) Has(f BitFormat) bool {
	return m&(1<<f) != 0
}

func (m FormatMask) String() string {
	parts := make([]string, 0, 3)
	for _, f := range []BitFormat{FormatHighLow, FormatLowHigh, FormatRaw} {
		if m.Has(f) {
			parts = append(parts, f.String())
		}
	}
	return strings.Join(parts, "|")
}

// TimingConfig describes how a frame is laid out in time. Durations are in
// microseconds. BaseTime is only meaningful for FormatRaw, the eight edge
// durations only for FormatHighLow and FormatLowHigh.
type TimingConfig struct {
	Format     BitFormat `json:"format"`
	StartHigh  uint16    `json:"start_high_us,omitempty"`
	StartLow   uint16    `json:"start_low_us,omitempty"`
	EndHigh    uint16    `json:"end_high_us,omitempty"`
	EndLow     uint16    `json:"end_low_us,omitempty"`
	Bit0High   uint16    `json:"bit0_high_us,omitempty"`
	Bit0Low    uint16    `json:"bit0_low_us,omitempty"`
	Bit1High   uint16    `json:"bit1_high_us,omitempty"`
	Bit1Low    uint16    `json:"bit1_low_us,omitempty"`
	BaseTime   uint16    `json:"base_time_us,omitempty"`
	FrameCount uint8     `json:"frame_count"`
}

// WithFrameCount returns a copy repeating the frame n times.
func (t TimingConfig) WithFrameCount(n uint8) TimingConfig {
	t.FrameCount = n
	return t
}

// Durations lists the edge durations in declaration order.
func (t TimingConfig) Durations() [8]uint16 {
	return [8]uint16{
		t.StartHigh, t.StartLow,
		t.EndHigh, t.EndLow,
		t.Bit0High, t.Bit0Low,
		t.Bit1High, t.Bit1Low,
	}
}
