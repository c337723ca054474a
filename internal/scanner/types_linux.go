//go:build linux

package scanner

import (
	"syscall"
	"time"
)

// statCreatedTime reports false: Linux's syscall.Stat_t carries no
// filesystem birth time field.
func statCreatedTime(stat *syscall.Stat_t) (time.Time, bool) {
	return time.Time{}, false
}
