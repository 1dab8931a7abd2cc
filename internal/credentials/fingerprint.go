package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"time"
)

// HostFingerprint builds the Fingerprint spec §4.1 requires: a stable,
// non-secret digest of attributes that stay identical across restarts
// of the same host process but diverge across machines, namely the
// machine hostname, the process's logical CPU count, the Go runtime's
// GOOS/GOARCH, and the local UTC offset. Unlike a browser's
// window/worker split, a single Go process has no dual execution
// context to special-case, so this is the only fingerprint source the
// Credential Store needs.
func HostFingerprint() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	_, offset := time.Now().Zone()

	raw := fmt.Sprintf("%s|%d|%s-%s|%d",
		hostname,
		runtime.NumCPU(),
		runtime.GOOS, runtime.GOARCH,
		offset,
	)

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
