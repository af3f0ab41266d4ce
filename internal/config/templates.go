package config

import (
	"fmt"
	"os"
)

func Template() string {
	return rfctlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(rfctlTemplate), 0o600)
}

const rfctlTemplate = `# rolling codes are kept under storage_dir/<protocol>/
storage_dir = "/var/lib/rfctl"
memory_store = false

# dummy | ook-gpio | sysfs-gpio | wav
transport = "ook-gpio"
accuracy = 90
force_raw = false
# 0 keeps each protocol's own repetition count
frame_count = 0
max_frame_bytes = 512

http_addr = ":9433"
cors_origins = ["http://localhost:3000"]
# bearer token required by POST /send; empty leaves it open
api_token = ""

[ook_gpio]
timings_path = "/sys/devices/platform/ook-gpio.0/timings"
frame_path = "/sys/devices/platform/ook-gpio.0/frame"

[sysfs_gpio]
root = "/sys/class/gpio"
gpio = 17

[wav]
path = "rfctl.wav"
sample_rate = 48000

[dummy]
formats = ["hl", "lh", "raw"]
`
