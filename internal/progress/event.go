// Package progress streams best-effort status events from a running
// sync out to whatever is watching — a progress bar, a log line, a
// JSON sink. Producers (the engine's main flow and its executor
// workers) never block
// on a slow or absent consumer: the channel is buffered and a full
// buffer just drops the event.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivoronin/filesync/internal/model"
)

// Kind identifies the shape of an Event.
type Kind int

const (
	SyncStarted Kind = iota
	ScanStarted
	ScanCompleted
	FileOperationStarted
	FileOperationCompleted
	FileOperationFailed
	ProgressUpdate
	SyncCompleted
	SyncFailed
	Warning
	Info
)

func (k Kind) String() string {
	switch k {
	case SyncStarted:
		return "SyncStarted"
	case ScanStarted:
		return "ScanStarted"
	case ScanCompleted:
		return "ScanCompleted"
	case FileOperationStarted:
		return "FileOperationStarted"
	case FileOperationCompleted:
		return "FileOperationCompleted"
	case FileOperationFailed:
		return "FileOperationFailed"
	case ProgressUpdate:
		return "ProgressUpdate"
	case SyncCompleted:
		return "SyncCompleted"
	case SyncFailed:
		return "SyncFailed"
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	default:
		return "Unknown"
	}
}

// Event is a single point-in-time status update. Which fields are
// meaningful depends on Kind; zero values mean "not applicable" rather
// than "zero".
type Event struct {
	Kind Kind

	SessionID uuid.UUID

	Path       string
	DstPath    string
	Operation  model.ActionKind
	FileSize   int64
	Duration   time.Duration
	FilesFound int

	FilesProcessed     int
	BytesProcessed     int64
	FilesTotal         int
	BytesTotal         int64
	EstimatedRemaining time.Duration
	TransferRate       float64 // bytes per second

	Message string
	Err     error
}
