package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/rfctl/internal/config"
)

type fileConfig struct {
	StorageDir    string   `toml:"storage_dir"`
	MemoryStore   bool     `toml:"memory_store"`
	Transport     string   `toml:"transport"`
	Accuracy      int      `toml:"accuracy"`
	ForceRaw      bool     `toml:"force_raw"`
	FrameCount    int      `toml:"frame_count"`
	MaxFrameBytes int      `toml:"max_frame_bytes"`
	HTTPAddr      string   `toml:"http_addr"`
	CorsOrigins   []string `toml:"cors_origins"`
	APIToken      string   `toml:"api_token"`

	OOKGPIO struct {
		TimingsPath string `toml:"timings_path"`
		FramePath   string `toml:"frame_path"`
	} `toml:"ook_gpio"`
	SysfsGPIO struct {
		Root string `toml:"root"`
		GPIO int    `toml:"gpio"`
	} `toml:"sysfs_gpio"`
	WAV struct {
		Path       string `toml:"path"`
		SampleRate int    `toml:"sample_rate"`
	} `toml:"wav"`
	Dummy struct {
		Formats []string `toml:"formats"`
	} `toml:"dummy"`
}

// loadConfig applies the keys present in path over config.Default.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("load rfctl config: %w", err)
	}

	if meta.IsDefined("storage_dir") {
		cfg.StorageDir = config.ExpandHome(strings.TrimSpace(raw.StorageDir))
	}
	if meta.IsDefined("memory_store") {
		cfg.MemoryStore = raw.MemoryStore
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("accuracy") {
		cfg.Accuracy = raw.Accuracy
	}
	if meta.IsDefined("force_raw") {
		cfg.ForceRaw = raw.ForceRaw
	}
	if meta.IsDefined("frame_count") {
		cfg.FrameCount = raw.FrameCount
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("api_token") {
		cfg.APIToken = strings.TrimSpace(raw.APIToken)
	}

	if meta.IsDefined("ook_gpio", "timings_path") {
		cfg.OOKGPIO.TimingsPath = strings.TrimSpace(raw.OOKGPIO.TimingsPath)
	}
	if meta.IsDefined("ook_gpio", "frame_path") {
		cfg.OOKGPIO.FramePath = strings.TrimSpace(raw.OOKGPIO.FramePath)
	}
	if meta.IsDefined("sysfs_gpio", "root") {
		cfg.SysfsGPIO.Root = strings.TrimSpace(raw.SysfsGPIO.Root)
	}
	if meta.IsDefined("sysfs_gpio", "gpio") {
		cfg.SysfsGPIO.GPIO = raw.SysfsGPIO.GPIO
	}
	if meta.IsDefined("wav", "path") {
		cfg.WAV.Path = strings.TrimSpace(raw.WAV.Path)
	}
	if meta.IsDefined("wav", "sample_rate") {
		cfg.WAV.SampleRate = raw.WAV.SampleRate
	}
	if meta.IsDefined("dummy", "formats") {
		cfg.Dummy.Formats = normalizeList(raw.Dummy.Formats)
	}

	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
