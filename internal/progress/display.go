package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Display renders an Event stream to a terminal using a progress bar
// for FileOperation*/ProgressUpdate events and plain lines for
// Warning/Info/SyncFailed. It is the CLI's consumer of a Reporter's
// event channel; Reporter itself never touches a terminal.
type Display struct {
	enabled bool
	verbose bool
	bar     *progressbar.ProgressBar
}

// NewDisplay builds a Display. If enabled is false, the returned
// Display never renders a bar but still prints Warning, SyncFailed and
// failed-operation lines to stderr. verbose additionally prints Info
// messages and one line per completed file operation.
func NewDisplay(enabled, verbose bool) *Display {
	return &Display{enabled: enabled, verbose: verbose}
}

// Consume drains events until the channel closes, updating the bar and
// printing messages as it goes. Run it in its own goroutine fed by the
// Reporter's channel.
func (d *Display) Consume(events <-chan Event) {
	for e := range events {
		switch e.Kind {
		case SyncStarted:
			if d.enabled {
				d.bar = newBar(e.BytesTotal)
			}
		case ProgressUpdate:
			if d.bar != nil {
				_ = d.bar.Set64(e.BytesProcessed)
				d.bar.Describe(currentFileLabel(e))
			}
		case FileOperationCompleted:
			if d.verbose {
				fmt.Fprintf(os.Stderr, "\r\033[K%s %s (%s)\n", e.Operation, e.Path, e.Duration.Round(time.Millisecond))
			}
		case FileOperationFailed:
			fmt.Fprintf(os.Stderr, "\r\033[Kerror: %s %s: %v\n", e.Operation, e.Path, e.Err)
		case Warning:
			fmt.Fprintf(os.Stderr, "\r\033[Kwarning: %s %s\n", e.Message, e.Path)
		case SyncFailed:
			fmt.Fprintf(os.Stderr, "\r\033[Kerror: sync failed: %v\n", e.Err)
		case Info:
			if d.verbose {
				fmt.Fprintf(os.Stderr, "\r\033[K%s\n", e.Message)
			}
		case SyncCompleted:
			if d.bar != nil {
				_ = d.bar.Finish()
			}
		}
	}
}

func newBar(total int64) *progressbar.ProgressBar {
	if total <= 0 {
		return progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionThrottle(updateInterval),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetElapsedTime(false),
		)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
	)
}

func currentFileLabel(e Event) string {
	if e.DstPath != "" {
		return e.DstPath
	}
	return e.Path
}
