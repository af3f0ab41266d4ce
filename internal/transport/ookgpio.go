package transport

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	OOKGPIOName = "ook-gpio"

	DefaultOOKGPIOTimingsPath = "/sys/devices/platform/ook-gpio.0/timings"
	DefaultOOKGPIOFramePath   = "/sys/devices/platform/ook-gpio.0/frame"
)

// OOKGPIO drives the ook-gpio kernel module through its two sysfs
// attributes. The module does the timing and the repetitions.
type OOKGPIO struct {
	timingsPath string
	framePath   string
	log         zerolog.Logger
}

func NewOOKGPIO(opts Options, logger zerolog.Logger) (Transport, error) {
	t := &OOKGPIO{
		timingsPath: opts.TimingsPath,
		framePath:   opts.FramePath,
		log:         logger,
	}
	if t.timingsPath == "" {
		t.timingsPath = DefaultOOKGPIOTimingsPath
	}
	if t.framePath == "" {
		t.framePath = DefaultOOKGPIOFramePath
	}
	return t, nil
}

func (t *OOKGPIO) Name() string { return OOKGPIOName }

func (t *OOKGPIO) Capabilities() protocol.FormatMask { return protocol.MaskAll }

func (t *OOKGPIO) Send(ctx context.Context, timing protocol.TimingConfig, buf []byte, bitCount int) error {
	if err := checkSend(ctx, t, timing, buf, bitCount); err != nil {
		return err
	}
	if err := writeAttr(t.timingsPath, TimingsLine(timing)); err != nil {
		return fmt.Errorf("ook-gpio timings: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeAttr(t.framePath, FrameLine(buf, bitCount)); err != nil {
		return fmt.Errorf("ook-gpio frame: %w", err)
	}
	t.log.Debug().Str("timings", t.timingsPath).Int("bits", bitCount).Msg("frame written")
	return nil
}

func (t *OOKGPIO) Close() error { return nil }

// TimingsLine renders the timings attribute value.
func TimingsLine(tc protocol.TimingConfig) string {
	if tc.Format == protocol.FormatRaw {
		return fmt.Sprintf("%d,0,0,0,0,0,0,0,2,%d", tc.BaseTime, tc.FrameCount)
	}
	d := tc.Durations()
	parts := make([]string, 0, 10)
	for _, v := range d {
		parts = append(parts, strconv.Itoa(int(v)))
	}
	parts = append(parts, strconv.Itoa(int(tc.Format)), strconv.Itoa(int(tc.FrameCount)))
	return strings.Join(parts, ",")
}

// FrameLine renders the frame attribute value: the bit count followed by
// each byte in decimal.
func FrameLine(buf []byte, bitCount int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(bitCount))
	for _, v := range buf[:frame.ByteLen(bitCount)] {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

func writeAttr(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
