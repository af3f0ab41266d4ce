//go:build !unix

package counter

import "os"

// Only the in-process key mutex applies on platforms without flock.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
