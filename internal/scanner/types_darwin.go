//go:build darwin

package scanner

import (
	"syscall"
	"time"
)

func statCreatedTime(stat *syscall.Stat_t) (time.Time, bool) {
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec), true
}
