// Package transport hands formatted frames and their timings to a 433MHz
// transmitter, or to something standing in for one.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownTransport = errors.New("transport: unknown transport")
	ErrClosed           = errors.New("transport: closed")
)

// Transport sends one frame sequence. Send must not retain frame.
type Transport interface {
	Name() string
	Capabilities() protocol.FormatMask
	Send(ctx context.Context, timing protocol.TimingConfig, frame []byte, bitCount int) error
	Close() error
}

// Options carries the per-transport settings; each transport reads only its
// own fields.
type Options struct {
	// dummy
	Formats protocol.FormatMask

	// ook-gpio
	TimingsPath string
	FramePath   string

	// wav
	WAVPath    string
	SampleRate int

	// sysfs-gpio
	GPIORoot string
	GPIO     int
}

// Factory builds a ready-to-use transport.
type Factory func(opts Options, logger zerolog.Logger) (Transport, error)

// Registry stores transport factories by name.
type Registry struct {
	repo map[string]Factory
	mu   sync.RWMutex
}

// NewRegistry initializes an empty transport registry.
func NewRegistry() *Registry {
	return &Registry{repo: make(map[string]Factory)}
}

// Builtin returns a registry holding every transport shipped with rfctl.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(DummyName, NewDummy)
	r.Register(OOKGPIOName, NewOOKGPIO)
	r.Register(SysfsGPIOName, NewSysfsGPIO)
	r.Register(WAVName, NewWAV)
	return r
}

// Register adds a factory under name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repo[name] = f
}

// Names lists registered transports in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.repo))
	for name := range r.repo {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open builds the transport registered under name.
func (r *Registry) Open(name string, opts Options, logger zerolog.Logger) (Transport, error) {
	r.mu.RLock()
	f, ok := r.repo[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
	t, err := f(opts, logger.With().Str("transport", name).Logger())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return t, nil
}

// Open builds a builtin transport by name.
func Open(name string, opts Options, logger zerolog.Logger) (Transport, error) {
	return Builtin().Open(name, opts, logger)
}

// checkSend validates what every transport requires of a send.
func checkSend(ctx context.Context, t Transport, timing protocol.TimingConfig, frame []byte, bitCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.Capabilities().Has(timing.Format) {
		return fmt.Errorf("%w: %s cannot send %s", protocol.ErrFormatUnsupported, t.Name(), timing.Format)
	}
	if bitCount < 0 || bitCount > len(frame)*8 {
		return fmt.Errorf("%w: %d bits in a %d byte frame", protocol.ErrBufferTooSmall, bitCount, len(frame))
	}
	if timing.Format == protocol.FormatRaw && timing.BaseTime == 0 {
		return fmt.Errorf("%w: raw timing without base time", protocol.ErrTimingUnsupported)
	}
	return nil
}
