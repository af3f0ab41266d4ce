package codec

import (
	"errors"
	"testing"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/testutil/testlog"
)

type fakeCodec struct {
	desc Descriptor
}

func (f fakeCodec) Descriptor() Descriptor { return f.desc }

func (f fakeCodec) Format([]byte, uint32, uint32, protocol.Command) (int, error) {
	return 0, nil
}

func TestBuiltinOrderAndLookup(t *testing.T) {
	testlog.Start(t)
	r, _ := newBuiltin(t)
	want := []string{"otax", "dio", "he", "idk", "sumtech", "auchan", "auchan2", "somfy", "blyss"}
	if r.Len() != len(want) {
		t.Fatalf("expected %d codecs, got %d", len(want), r.Len())
	}
	for i, name := range want {
		c, ok := r.ByIndex(i)
		if !ok || c.Descriptor().CmdName != name {
			t.Fatalf("index %d: expected %s", i, name)
		}
	}
	c, err := r.Lookup("7")
	if err != nil || c.Descriptor().CmdName != "somfy" {
		t.Fatalf("lookup by index: %v", err)
	}
	c, err = r.Lookup(" DIO ")
	if err != nil || c.Descriptor().Name != "DI-O" {
		t.Fatalf("lookup by name: %v", err)
	}
	if _, err := r.Lookup("x10"); !errors.Is(err, protocol.ErrUnknownProtocol) {
		t.Fatalf("expected ErrUnknownProtocol, got %v", err)
	}
	if _, err := r.Lookup("9"); !errors.Is(err, protocol.ErrUnknownProtocol) {
		t.Fatalf("expected ErrUnknownProtocol for out of range index, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndInvalid(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	ok := fakeCodec{desc: Descriptor{Name: "Fake", CmdName: "fake", Commands: onOff}}
	if err := r.Register(ok); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(ok); !errors.Is(err, ErrCodecExists) {
		t.Fatalf("expected ErrCodecExists, got %v", err)
	}
	if err := r.Register(nil); !errors.Is(err, ErrCodecNil) {
		t.Fatalf("expected ErrCodecNil, got %v", err)
	}
	for _, d := range []Descriptor{
		{Name: "", CmdName: "x", Commands: onOff},
		{Name: "X", CmdName: "", Commands: onOff},
		{Name: "X", CmdName: "Bad", Commands: onOff},
		{Name: "X", CmdName: "-x", Commands: onOff},
		{Name: "X", CmdName: "x", Commands: nil},
	} {
		if err := r.Register(fakeCodec{desc: d}); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("expected ErrInvalidDescriptor for %+v, got %v", d, err)
		}
	}
}
