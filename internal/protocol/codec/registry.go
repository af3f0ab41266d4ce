package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/rfctl/internal/counter"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/rs/zerolog"
)

var (
	ErrCodecExists       = errors.New("codec already registered")
	ErrCodecNil          = errors.New("codec is nil")
	ErrInvalidDescriptor = errors.New("invalid codec descriptor")
)

// Registry stores codecs by command-line name, keeping registration order.
type Registry struct {
	order []Codec
	items map[string]Codec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Codec)}
}

// Builtin returns a registry holding every supported protocol in the
// canonical order. store backs the rolling-code protocols.
func Builtin(store counter.Store, logger zerolog.Logger) *Registry {
	r := NewRegistry()
	for _, c := range []Codec{
		OTAX{},
		DIO{},
		HomeEasy{},
		Idk{},
		Sumtech{},
		Auchan{},
		Auchan2{},
		Somfy{Store: store, Logger: logger},
		Blyss{Store: store, Logger: logger},
	} {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// ValidateDescriptor checks required fields and the cmd-name format.
func ValidateDescriptor(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.CmdName) == "" {
		return fmt.Errorf("%w: name and cmd name are required", ErrInvalidDescriptor)
	}
	if !isValidCmdName(d.CmdName) {
		return fmt.Errorf("%w: invalid cmd name %q", ErrInvalidDescriptor, d.CmdName)
	}
	if len(d.Commands) == 0 {
		return fmt.Errorf("%w: %s accepts no command", ErrInvalidDescriptor, d.CmdName)
	}
	return nil
}

// Register adds a codec.
func (r *Registry) Register(c Codec) error {
	if c == nil {
		return ErrCodecNil
	}
	d := c.Descriptor()
	if err := ValidateDescriptor(d); err != nil {
		return err
	}
	if _, ok := r.items[d.CmdName]; ok {
		return fmt.Errorf("%w: %s", ErrCodecExists, d.CmdName)
	}
	r.items[d.CmdName] = c
	r.order = append(r.order, c)
	return nil
}

// Resolve returns a codec by cmd name.
func (r *Registry) Resolve(cmdName string) (Codec, bool) {
	c, ok := r.items[cmdName]
	return c, ok
}

// ByIndex returns the codec registered at position i.
func (r *Registry) ByIndex(i int) (Codec, bool) {
	if i < 0 || i >= len(r.order) {
		return nil, false
	}
	return r.order[i], true
}

// Lookup accepts a cmd name or a registration index.
func (r *Registry) Lookup(raw string) (Codec, error) {
	v := strings.TrimSpace(raw)
	if c, ok := r.Resolve(strings.ToLower(v)); ok {
		return c, nil
	}
	if i, err := strconv.Atoi(v); err == nil {
		if c, ok := r.ByIndex(i); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", protocol.ErrUnknownProtocol, raw)
}

// List returns codecs in registration order.
func (r *Registry) List() []Codec {
	out := make([]Codec, len(r.order))
	copy(out, r.order)
	return out
}

// Len is the number of registered codecs.
func (r *Registry) Len() int {
	return len(r.order)
}

func isValidCmdName(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if isSep && (i == 0 || i == len(id)-1) {
			return false
		}
	}
	return true
}
