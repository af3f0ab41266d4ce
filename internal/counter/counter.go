package counter

import (
	"fmt"

	"github.com/danmuck/rfctl/internal/protocol"
)

// Key identifies one counter record.
type Key struct {
	Protocol string
	Remote   uint32
	Device   uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%02X.%06X", k.Protocol, k.Remote, k.Device)
}

// Store loads and stores counter values. Load returns 0 for a key never
// stored.
type Store interface {
	Load(k Key) (uint32, error)
	Store(k Key, v uint32) error
}

// Updater applies fn to the current value of k atomically and returns the
// value fn was given.
type Updater interface {
	Update(k Key, fn func(uint32) uint32) (uint32, error)
}

// Advance returns the current counter for k and persists (v+1) % modulus.
// Stores implementing Updater perform the read-modify-write atomically.
func Advance(s Store, k Key, modulus uint32) (uint32, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: no store configured for %s", protocol.ErrStoreUnavailable, k)
	}
	next := func(v uint32) uint32 {
		return (v + 1) % modulus
	}
	if u, ok := s.(Updater); ok {
		return u.Update(k, next)
	}
	v, err := s.Load(k)
	if err != nil {
		return 0, err
	}
	if err := s.Store(k, next(v)); err != nil {
		return 0, err
	}
	return v, nil
}
