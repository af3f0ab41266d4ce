package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/rfctl/internal/controller"
	"github.com/danmuck/rfctl/internal/counter"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/raw"
	"github.com/danmuck/rfctl/internal/transport"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	StorageDir    string   `toml:"storage_dir"`
	MemoryStore   bool     `toml:"memory_store"`
	Transport     string   `toml:"transport"`
	Accuracy      int      `toml:"accuracy"`
	ForceRaw      bool     `toml:"force_raw"`
	FrameCount    int      `toml:"frame_count"`
	MaxFrameBytes int      `toml:"max_frame_bytes"`
	HTTPAddr      string   `toml:"http_addr"`
	CorsOrigins   []string `toml:"cors_origins"`
	// APIToken guards POST /send when set.
	APIToken string `toml:"api_token"`

	OOKGPIO   OOKGPIOConfig   `toml:"ook_gpio"`
	SysfsGPIO SysfsGPIOConfig `toml:"sysfs_gpio"`
	WAV       WAVConfig       `toml:"wav"`
	Dummy     DummyConfig     `toml:"dummy"`
}

type OOKGPIOConfig struct {
	TimingsPath string `toml:"timings_path"`
	FramePath   string `toml:"frame_path"`
}

type SysfsGPIOConfig struct {
	Root string `toml:"root"`
	GPIO int    `toml:"gpio"`
}

type WAVConfig struct {
	Path       string `toml:"path"`
	SampleRate int    `toml:"sample_rate"`
}

type DummyConfig struct {
	Formats []string `toml:"formats"`
}

// Default is the configuration used when no file is given. StorageDir is
// resolved from $HOME.
func Default() Config {
	root, _ := counter.DefaultRoot()
	return Config{
		StorageDir:    root,
		Transport:     transport.DummyName,
		Accuracy:      raw.DefaultAccuracy,
		MaxFrameBytes: controller.DefaultMaxFrameBytes,
		HTTPAddr:      ":9433",
		CorsOrigins:   []string{"http://localhost:3000"},
		OOKGPIO: OOKGPIOConfig{
			TimingsPath: transport.DefaultOOKGPIOTimingsPath,
			FramePath:   transport.DefaultOOKGPIOFramePath,
		},
		SysfsGPIO: SysfsGPIOConfig{Root: transport.DefaultGPIORoot, GPIO: -1},
		WAV:       WAVConfig{Path: "rfctl.wav", SampleRate: transport.DefaultSampleRate},
		Dummy:     DummyConfig{Formats: []string{"hl", "lh", "raw"}},
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg.StorageDir = ExpandHome(strings.TrimSpace(cfg.StorageDir))
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if !cfg.MemoryStore && strings.TrimSpace(cfg.StorageDir) == "" {
		return fmt.Errorf("config missing storage_dir")
	}
	if strings.TrimSpace(cfg.Transport) == "" {
		return fmt.Errorf("config missing transport")
	}
	known := false
	for _, name := range transport.Builtin().Names() {
		if name == cfg.Transport {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("config transport %q unknown (have %s)", cfg.Transport,
			strings.Join(transport.Builtin().Names(), ", "))
	}
	if cfg.Accuracy < 0 || cfg.Accuracy > 100 {
		return fmt.Errorf("config accuracy %d not in 0..100", cfg.Accuracy)
	}
	if cfg.FrameCount < 0 || cfg.FrameCount > 255 {
		return fmt.Errorf("config frame_count %d not in 0..255", cfg.FrameCount)
	}
	if cfg.MaxFrameBytes < 0 {
		return fmt.Errorf("config max_frame_bytes must not be negative")
	}
	if cfg.Transport == transport.SysfsGPIOName && cfg.SysfsGPIO.GPIO < 0 {
		return fmt.Errorf("config sysfs_gpio.gpio required for the sysfs-gpio transport")
	}
	if cfg.Transport == transport.WAVName && strings.TrimSpace(cfg.WAV.Path) == "" {
		return fmt.Errorf("config wav.path required for the wav transport")
	}
	if _, err := ParseFormats(cfg.Dummy.Formats); err != nil {
		return fmt.Errorf("config dummy.formats: %w", err)
	}
	return nil
}

// ParseFormats turns format names into a mask.
func ParseFormats(names []string) (protocol.FormatMask, error) {
	var mask protocol.FormatMask
	for _, name := range names {
		f, err := protocol.ParseBitFormat(name)
		if err != nil {
			return 0, err
		}
		mask |= protocol.MaskOf(f)
	}
	return mask, nil
}

func (c Config) TransportOptions() (transport.Options, error) {
	formats, err := ParseFormats(c.Dummy.Formats)
	if err != nil {
		return transport.Options{}, err
	}
	return transport.Options{
		Formats:     formats,
		TimingsPath: c.OOKGPIO.TimingsPath,
		FramePath:   c.OOKGPIO.FramePath,
		WAVPath:     c.WAV.Path,
		SampleRate:  c.WAV.SampleRate,
		GPIORoot:    c.SysfsGPIO.Root,
		GPIO:        c.SysfsGPIO.GPIO,
	}, nil
}

func (c Config) ControllerOptions() controller.Options {
	return controller.Options{
		ForceRaw:      c.ForceRaw,
		FrameCount:    uint8(c.FrameCount),
		Accuracy:      controller.Accuracy(c.Accuracy),
		MaxFrameBytes: c.MaxFrameBytes,
	}
}

// Store opens the counter store the configuration selects.
func (c Config) Store() counter.Store {
	if c.MemoryStore {
		return counter.NewMemStore()
	}
	return counter.NewFileStore(c.StorageDir)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
