package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	SysfsGPIOName = "sysfs-gpio"

	DefaultGPIORoot = "/sys/class/gpio"
)

// SysfsGPIO bit-bangs the frame on a GPIO exported through sysfs. Timing
// relies on the scheduler and is only approximate.
type SysfsGPIO struct {
	root  string
	gpio  int
	log   zerolog.Logger
	sleep func(context.Context, time.Duration) error
}

// NewSysfsGPIO exports the GPIO and configures it as an output.
func NewSysfsGPIO(opts Options, logger zerolog.Logger) (Transport, error) {
	if opts.GPIO < 0 {
		return nil, fmt.Errorf("sysfs-gpio: invalid gpio %d", opts.GPIO)
	}
	root := opts.GPIORoot
	if root == "" {
		root = DefaultGPIORoot
	}
	t := &SysfsGPIO{root: root, gpio: opts.GPIO, log: logger, sleep: sleepCtx}
	if err := writeAttr(filepath.Join(root, "export"), strconv.Itoa(t.gpio)+"\n"); err != nil {
		return nil, fmt.Errorf("sysfs-gpio export: %w", err)
	}
	if err := writeAttr(filepath.Join(t.dir(), "direction"), "out\n"); err != nil {
		return nil, fmt.Errorf("sysfs-gpio direction: %w", err)
	}
	logger.Info().Int("gpio", t.gpio).Msg("gpio exported")
	return t, nil
}

func (t *SysfsGPIO) dir() string {
	return filepath.Join(t.root, "gpio"+strconv.Itoa(t.gpio))
}

func (t *SysfsGPIO) Name() string { return SysfsGPIOName }

func (t *SysfsGPIO) Capabilities() protocol.FormatMask { return protocol.MaskAll }

// Send toggles the line once per frame repetition and always leaves the
// transmitter off.
func (t *SysfsGPIO) Send(ctx context.Context, timing protocol.TimingConfig, buf []byte, bitCount int) error {
	if err := checkSend(ctx, t, timing, buf, bitCount); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(t.dir(), "value"), os.O_WRONLY|os.O_SYNC, 0)
	if err != nil {
		return fmt.Errorf("sysfs-gpio value: %w", err)
	}
	defer f.Close()

	l := &line{ctx: ctx, f: f, sleep: t.sleep, last: -1}
	repeat := int(timing.FrameCount)
	if repeat == 0 {
		repeat = 1
	}
	for i := 0; i < repeat && l.err == nil; i++ {
		l.frame(timing, buf, bitCount)
	}
	// make sure the transmitter is off
	if _, err := f.WriteString("0"); err != nil && l.err == nil {
		l.err = err
	}
	if l.err != nil {
		return fmt.Errorf("sysfs-gpio send: %w", l.err)
	}
	t.log.Debug().Int("gpio", t.gpio).Int("bits", bitCount).Int("repeat", repeat).Msg("frame sent")
	return nil
}

// Close releases the GPIO.
func (t *SysfsGPIO) Close() error {
	if err := writeAttr(filepath.Join(t.root, "unexport"), strconv.Itoa(t.gpio)+"\n"); err != nil {
		return fmt.Errorf("sysfs-gpio unexport: %w", err)
	}
	return nil
}

// line drives the value file and remembers the first error.
type line struct {
	ctx   context.Context
	f     *os.File
	sleep func(context.Context, time.Duration) error
	last  int
	err   error
}

func (l *line) set(level int, us uint16) {
	if l.err != nil {
		return
	}
	if level != l.last {
		_, l.err = l.f.WriteString(strconv.Itoa(level))
		l.last = level
	}
	if l.err == nil {
		l.err = l.ctx.Err()
	}
	if l.err == nil && us > 0 {
		l.err = l.sleep(l.ctx, time.Duration(us)*time.Microsecond)
	}
}

func (l *line) edge(timing protocol.TimingConfig, high, low uint16) {
	if timing.Format == protocol.FormatLowHigh {
		l.set(0, low)
		l.set(1, high)
		return
	}
	l.set(1, high)
	l.set(0, low)
}

func (l *line) frame(timing protocol.TimingConfig, buf []byte, bitCount int) {
	if timing.Format == protocol.FormatRaw {
		for i := 0; i < bitCount && l.err == nil; i++ {
			level := 0
			if frame.Bit(buf, i) {
				level = 1
			}
			l.set(level, timing.BaseTime)
		}
		return
	}
	l.edge(timing, timing.StartHigh, timing.StartLow)
	for i := 0; i < bitCount && l.err == nil; i++ {
		if frame.Bit(buf, i) {
			l.edge(timing, timing.Bit1High, timing.Bit1Low)
		} else {
			l.edge(timing, timing.Bit0High, timing.Bit0Low)
		}
	}
	l.edge(timing, timing.EndHigh, timing.EndLow)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
