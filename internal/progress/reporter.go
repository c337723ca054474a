package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ivoronin/filesync/internal/model"
)

// eventBuffer is how many undelivered events the channel holds before
// a send is dropped rather than blocking the producer.
const eventBuffer = 256

// Reporter sends Events about an in-progress sync to a channel a
// caller drains. A Reporter holds a channel plus a mutex-guarded
// running total and close guard by value, so it is shared by pointer
// (NewReporter returns one): a copy would not share the mutex, the
// close guard or the totals with the original.
type Reporter struct {
	events    chan Event
	sessionID uuid.UUID
	start     time.Time
	closeOnce sync.Once
	closed    atomic.Bool

	mu             sync.Mutex
	filesProcessed int
	bytesProcessed int64
	filesTotal     int
	bytesTotal     int64
	errors         []string
}

// NewReporter creates a Reporter and returns the channel its events
// arrive on. The channel is closed by Close, never by a failed send.
func NewReporter() (*Reporter, <-chan Event) {
	events := make(chan Event, eventBuffer)
	r := &Reporter{
		events:    events,
		sessionID: uuid.New(),
		start:     time.Now(),
	}
	return r, events
}

// Close shuts down the event channel. Further sends become no-ops.
// Safe to call more than once. Callers must only call Close once every
// producer goroutine has finished sending.
func (r *Reporter) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.events)
	})
}

func (r *Reporter) send(e Event) {
	if r.closed.Load() {
		return
	}
	e.SessionID = r.sessionID
	select {
	case r.events <- e:
	default:
		// Buffer full: drop. Progress reporting is best-effort and must
		// never make a sync operation wait on its own status channel.
	}
}

func (r *Reporter) SyncStarted(totalFiles int, totalBytes int64) {
	r.mu.Lock()
	r.filesTotal = totalFiles
	r.bytesTotal = totalBytes
	r.mu.Unlock()

	r.send(Event{Kind: SyncStarted, FilesTotal: totalFiles, BytesTotal: totalBytes})
}

func (r *Reporter) ScanStarted(path string) {
	r.send(Event{Kind: ScanStarted, Path: path})
}

func (r *Reporter) ScanCompleted(path string, filesFound int, duration time.Duration) {
	r.send(Event{Kind: ScanCompleted, Path: path, FilesFound: filesFound, Duration: duration})
}

func (r *Reporter) FileOperationStarted(op model.ActionKind, srcPath, dstPath string, size int64) {
	r.send(Event{Kind: FileOperationStarted, Operation: op, Path: srcPath, DstPath: dstPath, FileSize: size})
}

// FileOperationCompleted records a finished operation, folds it into
// the running totals, and follows up with a ProgressUpdate so
// consumers don't need to recompute rates themselves.
func (r *Reporter) FileOperationCompleted(op model.ActionKind, srcPath, dstPath string, size int64, duration time.Duration) {
	r.mu.Lock()
	r.filesProcessed++
	r.bytesProcessed += size
	r.mu.Unlock()

	r.send(Event{Kind: FileOperationCompleted, Operation: op, Path: srcPath, DstPath: dstPath, FileSize: size, Duration: duration})
	r.sendProgressUpdate(srcPath)
}

func (r *Reporter) FileOperationFailed(op model.ActionKind, srcPath, dstPath string, err error) {
	r.mu.Lock()
	r.filesProcessed++
	r.errors = append(r.errors, err.Error())
	r.mu.Unlock()

	r.send(Event{Kind: FileOperationFailed, Operation: op, Path: srcPath, DstPath: dstPath, Err: err})
	r.sendProgressUpdate(srcPath)
}

func (r *Reporter) sendProgressUpdate(currentFile string) {
	r.mu.Lock()
	processed, total := r.filesProcessed, r.filesTotal
	bytesProcessed, bytesTotal := r.bytesProcessed, r.bytesTotal
	r.mu.Unlock()

	elapsed := time.Since(r.start)
	var rate float64
	if elapsed > 0 {
		rate = float64(bytesProcessed) / elapsed.Seconds()
	}

	var remaining time.Duration
	if rate > 0 && bytesTotal > bytesProcessed {
		remaining = time.Duration(float64(bytesTotal-bytesProcessed)/rate) * time.Second
	}

	r.send(Event{
		Kind:               ProgressUpdate,
		Path:               currentFile,
		FilesProcessed:     processed,
		FilesTotal:         total,
		BytesProcessed:     bytesProcessed,
		BytesTotal:         bytesTotal,
		Duration:           elapsed,
		EstimatedRemaining: remaining,
		TransferRate:       rate,
	})
}

func (r *Reporter) SyncCompleted() {
	r.mu.Lock()
	processed, bytesProcessed := r.filesProcessed, r.bytesProcessed
	r.mu.Unlock()

	r.send(Event{
		Kind:           SyncCompleted,
		FilesProcessed: processed,
		BytesProcessed: bytesProcessed,
		Duration:       time.Since(r.start),
	})
}

func (r *Reporter) SyncFailed(err error) {
	r.mu.Lock()
	processed, bytesProcessed := r.filesProcessed, r.bytesProcessed
	r.mu.Unlock()

	r.send(Event{
		Kind:           SyncFailed,
		Err:            err,
		FilesProcessed: processed,
		BytesProcessed: bytesProcessed,
		Duration:       time.Since(r.start),
	})
}

func (r *Reporter) Warning(message, path string) {
	r.send(Event{Kind: Warning, Message: message, Path: path})
}

func (r *Reporter) Info(message string) {
	r.send(Event{Kind: Info, Message: message})
}
