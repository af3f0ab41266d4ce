package counter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/rfctl/internal/protocol"
)

// DefaultWidth is the hex digit count used for protocols without an entry in
// FileStore.Widths.
const DefaultWidth = 4

// DefaultWidths holds record widths for the built-in rolling-code protocols.
var DefaultWidths = map[string]int{
	"somfy": 4,
	"blyss": 1,
}

// FileStore keeps one small text record per key under Root:
// Root/<protocol>/<RR>.<DDDDDD>, holding the next value as upper-case hex.
type FileStore struct {
	Root   string
	Widths map[string]int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore returns a store rooted at root with the default widths.
func NewFileStore(root string) *FileStore {
	widths := make(map[string]int, len(DefaultWidths))
	for k, v := range DefaultWidths {
		widths[k] = v
	}
	return &FileStore{
		Root:   root,
		Widths: widths,
		locks:  make(map[string]*sync.Mutex),
	}
}

// DefaultRoot is $HOME/.rf-ctrl.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home: %v", protocol.ErrStoreUnavailable, err)
	}
	return filepath.Join(home, ".rf-ctrl"), nil
}

// Path returns the record path for k.
func (s *FileStore) Path(k Key) string {
	return filepath.Join(s.Root, k.Protocol, fmt.Sprintf("%02X.%06X", k.Remote, k.Device))
}

func (s *FileStore) Load(k Key) (uint32, error) {
	data, err := os.ReadFile(s.Path(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read %s: %v", protocol.ErrStoreUnavailable, s.Path(k), err)
	}
	return s.decode(k, data), nil
}

func (s *FileStore) Store(k Key, v uint32) error {
	_, err := s.Update(k, func(uint32) uint32 { return v })
	return err
}

// Update performs the read-modify-write under an exclusive lock on the record
// file and a per-key in-process mutex.
func (s *FileStore) Update(k Key, fn func(uint32) uint32) (uint32, error) {
	keyLock := s.keyLock(k)
	keyLock.Lock()
	defer keyLock.Unlock()

	path := s.Path(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", protocol.ErrStoreUnavailable, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", protocol.ErrStoreUnavailable, path, err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return 0, fmt.Errorf("%w: lock %s: %v", protocol.ErrStoreUnavailable, path, err)
	}
	defer unlockFile(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", protocol.ErrStoreUnavailable, path, err)
	}
	cur := s.decode(k, data)
	if err := f.Truncate(0); err != nil {
		return 0, fmt.Errorf("%w: truncate %s: %v", protocol.ErrStoreUnavailable, path, err)
	}
	if _, err := f.WriteAt(s.encode(k, fn(cur)), 0); err != nil {
		return 0, fmt.Errorf("%w: write %s: %v", protocol.ErrStoreUnavailable, path, err)
	}
	return cur, nil
}

func (s *FileStore) keyLock(k Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	id := k.String()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *FileStore) width(k Key) int {
	if w, ok := s.Widths[k.Protocol]; ok && w > 0 {
		return w
	}
	return DefaultWidth
}

func (s *FileStore) encode(k Key, v uint32) []byte {
	return []byte(fmt.Sprintf("%0*X\n", s.width(k), v))
}

// decode reads up to width hex digits; anything unparsable counts as 0, the
// same as a record that was just created.
func (s *FileStore) decode(k Key, data []byte) uint32 {
	raw := strings.TrimSpace(string(data))
	if w := s.width(k); len(raw) > w {
		raw = raw[:w]
	}
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
