//go:build !linux && !darwin

package scanner

import (
	"os"
	"time"
)

// createdTime is unavailable on non-POSIX hosts; Mode falls back to the
// synthesized ModeReadOnly/ModeReadWrite constants handled in scanner.go.
func createdTime(info os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
