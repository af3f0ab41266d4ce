package counter

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/testutil/testlog"
)

func TestMemStoreLoadStore(t *testing.T) {
	testlog.Start(t)
	s := NewMemStore()
	k := Key{Protocol: "somfy", Remote: 0x12, Device: 0x123456}

	v, err := s.Load(k)
	if err != nil || v != 0 {
		t.Fatalf("fresh key: v=%d err=%v", v, err)
	}
	if err := s.Store(k, 3); err != nil {
		t.Fatalf("store: %v", err)
	}
	if v, _ := s.Load(k); v != 3 {
		t.Fatalf("expected 3 after store, got %d", v)
	}
	s.Reset()
	if v, _ := s.Load(k); v != 0 {
		t.Fatalf("expected 0 after reset, got %d", v)
	}
}

func TestAdvanceWraps(t *testing.T) {
	testlog.Start(t)
	s := NewMemStore()
	blyss := Key{Protocol: "blyss", Remote: 1, Device: 2}
	somfy := Key{Protocol: "somfy", Remote: 1, Device: 2}

	_ = s.Store(blyss, 4)
	got, err := Advance(s, blyss, 5)
	if err != nil || got != 4 {
		t.Fatalf("blyss advance: got=%d err=%v", got, err)
	}
	if v, _ := s.Load(blyss); v != 0 {
		t.Fatalf("expected blyss index to wrap to 0, got %d", v)
	}

	_ = s.Store(somfy, 0xFFFF)
	got, err = Advance(s, somfy, 0x10000)
	if err != nil || got != 0xFFFF {
		t.Fatalf("somfy advance: got=%d err=%v", got, err)
	}
	if v, _ := s.Load(somfy); v != 0 {
		t.Fatalf("expected somfy counter to wrap to 0, got %d", v)
	}
}

func TestAdvanceNilStore(t *testing.T) {
	testlog.Start(t)
	if _, err := Advance(nil, Key{Protocol: "somfy"}, 2); !errors.Is(err, protocol.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

type loadStoreOnly struct {
	vals map[Key]uint32
}

func (s *loadStoreOnly) Load(k Key) (uint32, error) { return s.vals[k], nil }

func (s *loadStoreOnly) Store(k Key, v uint32) error {
	s.vals[k] = v
	return nil
}

func TestAdvanceWithoutUpdater(t *testing.T) {
	testlog.Start(t)
	s := &loadStoreOnly{vals: map[Key]uint32{}}
	k := Key{Protocol: "blyss"}
	for i := uint32(0); i < 7; i++ {
		got, err := Advance(s, k, 5)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if got != i%5 {
			t.Fatalf("step %d: got %d want %d", i, got, i%5)
		}
	}
}

func TestFileStoreRecordFormat(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	s := NewFileStore(root)

	somfy := Key{Protocol: "somfy", Remote: 0x0A, Device: 0x1234}
	if v, err := s.Load(somfy); err != nil || v != 0 {
		t.Fatalf("fresh somfy: v=%d err=%v", v, err)
	}
	if _, err := Advance(s, somfy, 0x10000); err != nil {
		t.Fatalf("advance somfy: %v", err)
	}
	path := filepath.Join(root, "somfy", "0A.001234")
	if path != s.Path(somfy) {
		t.Fatalf("unexpected path: %s", s.Path(somfy))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if string(data) != "0001\n" {
		t.Fatalf("unexpected somfy record: %q", string(data))
	}

	blyss := Key{Protocol: "blyss", Remote: 0xFF, Device: 0}
	if err := s.Store(blyss, 4); err != nil {
		t.Fatalf("store blyss: %v", err)
	}
	data, err = os.ReadFile(filepath.Join(root, "blyss", "FF.000000"))
	if err != nil {
		t.Fatalf("read blyss record: %v", err)
	}
	if string(data) != "4\n" {
		t.Fatalf("unexpected blyss record: %q", string(data))
	}
	got, err := Advance(s, blyss, 5)
	if err != nil || got != 4 {
		t.Fatalf("advance blyss: got=%d err=%v", got, err)
	}
	if v, _ := s.Load(blyss); v != 0 {
		t.Fatalf("expected blyss wrap, got %d", v)
	}
	testlog.Logf("counter/file: records at %s", root)
}

func TestFileStoreGarbageReadsAsZero(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	s := NewFileStore(root)
	k := Key{Protocol: "somfy", Remote: 1, Device: 1}
	if err := os.MkdirAll(filepath.Dir(s.Path(k)), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(k), []byte("zz\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if v, err := s.Load(k); err != nil || v != 0 {
		t.Fatalf("garbage record: v=%d err=%v", v, err)
	}
}

func TestFileStoreUnavailable(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	s := NewFileStore(blocker)
	if _, err := Advance(s, Key{Protocol: "somfy"}, 0x10000); !errors.Is(err, protocol.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestFileStoreConcurrentAdvanceLosesNothing(t *testing.T) {
	testlog.Start(t)
	s := NewFileStore(t.TempDir())
	k := Key{Protocol: "somfy", Remote: 3, Device: 0x400}
	other := Key{Protocol: "somfy", Remote: 4, Device: 0x400}

	const workers = 8
	const rounds = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if _, err := Advance(s, k, 0x10000); err != nil {
					t.Errorf("advance: %v", err)
					return
				}
			}
		}()
	}
	if _, err := Advance(s, other, 0x10000); err != nil {
		t.Fatalf("advance other: %v", err)
	}
	wg.Wait()

	if v, _ := s.Load(k); v != workers*rounds {
		t.Fatalf("expected %d, got %d", workers*rounds, v)
	}
	if v, _ := s.Load(other); v != 1 {
		t.Fatalf("unrelated key disturbed: %d", v)
	}
}
