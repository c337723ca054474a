// Package metrics accumulates statistics over the lifetime of a sync
// run: file/byte counts by operation, timing, errors, and conflict
// resolution breakdowns, then renders them as a structured log line
// and a one-line human summary.
package metrics

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ivoronin/filesync/internal/model"
)

// FileStats counts files by how they were handled.
type FileStats struct {
	Scanned             int
	Processed           int
	Copied               int
	Updated              int
	Deleted              int
	Skipped              int
	DirectoriesCreated   int
	Conflicts            int
	Failed               int
}

// TransferStats tracks byte volumes moved during the run.
type TransferStats struct {
	BytesScanned      int64
	BytesTransferred  int64
	BytesCopied       int64
	BytesUpdated      int64
	LargestFileSize   int64
	SmallestFileSize  int64
	AverageFileSize   int64
}

// PerformanceStats holds derived rates and phase timings.
type PerformanceStats struct {
	TransferRate    float64 // bytes per second
	FilesPerSecond  float64
	ScanTime        time.Duration
	ComparisonTime  time.Duration
	TransferTime    time.Duration
}

// ErrorStats tracks errors and warnings raised during the run.
type ErrorStats struct {
	TotalErrors       int
	TotalWarnings     int
	ErrorsByType      map[string]int
	CriticalErrors    []string
	RecoverableErrors []string
}

// OperationStats breaks counts, timing, and bytes down per
// model.ActionKind.
type OperationStats struct {
	OperationCounts map[string]int
	OperationTimes  map[string]time.Duration
	OperationBytes  map[string]int64
}

// ConflictStats tracks how conflicts were resolved.
type ConflictStats struct {
	TotalConflicts      int
	AutoResolved        int
	ManualIntervention  int
	ResolutionStrategies map[string]int
}

// SyncMetrics accumulates every statistic for one sync run, identified
// by SessionID. All Record*/Start/Complete methods are safe to call
// concurrently from multiple worker goroutines.
type SyncMetrics struct {
	SessionID uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	mu          sync.Mutex
	files       FileStats
	transfer    TransferStats
	performance PerformanceStats
	errors      ErrorStats
	operations  OperationStats
	conflicts   ConflictStats
}

func New() *SyncMetrics {
	return &SyncMetrics{
		SessionID: uuid.New(),
		errors: ErrorStats{
			ErrorsByType: make(map[string]int),
		},
		operations: OperationStats{
			OperationCounts: make(map[string]int),
			OperationTimes:  make(map[string]time.Duration),
			OperationBytes:  make(map[string]int64),
		},
		conflicts: ConflictStats{
			ResolutionStrategies: make(map[string]int),
		},
	}
}

// Start marks the beginning of the run.
func (m *SyncMetrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartTime = time.Now()
}

// Complete finalizes timing, derives the performance stats, and emits
// a structured completion log line.
func (m *SyncMetrics) Complete(logger *slog.Logger) {
	m.mu.Lock()
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.calculatePerformanceStats()
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sync completed",
		"session_id", snapshot.SessionID,
		"duration_secs", snapshot.Duration.Seconds(),
		"files_processed", snapshot.files.Processed,
		"files_copied", snapshot.files.Copied,
		"files_updated", snapshot.files.Updated,
		"files_deleted", snapshot.files.Deleted,
		"files_failed", snapshot.files.Failed,
		"bytes_transferred", snapshot.transfer.BytesTransferred,
		"transfer_rate_mbps", snapshot.performance.TransferRate/(1024*1024),
		"success_rate", snapshot.SuccessRate(),
		"total_errors", snapshot.errors.TotalErrors,
		"total_conflicts", snapshot.conflicts.TotalConflicts,
	)
}

// Files returns a value copy of the current file-count tallies.
func (m *SyncMetrics) Files() FileStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files
}

// Transfer returns a value copy of the current byte-volume tallies.
func (m *SyncMetrics) Transfer() TransferStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer
}

// Conflicts returns a value copy of the current conflict-resolution
// tallies.
func (m *SyncMetrics) Conflicts() ConflictStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts
}

// snapshotLocked returns a value copy safe to read without the mutex.
// Callers must already hold m.mu.
func (m *SyncMetrics) snapshotLocked() SyncMetrics {
	return SyncMetrics{
		SessionID:   m.SessionID,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Duration:    m.Duration,
		files:       m.files,
		transfer:    m.transfer,
		performance: m.performance,
		errors:      m.errors,
		operations:  m.operations,
		conflicts:   m.conflicts,
	}
}

// RecordFileOperation folds one completed operation into the running
// totals, classified by op.
func (m *SyncMetrics) RecordFileOperation(op model.ActionKind, size int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files.Processed++

	switch op {
	case model.ActionCopy:
		m.files.Copied++
		m.transfer.BytesCopied += size
	case model.ActionUpdate:
		m.files.Updated++
		m.transfer.BytesUpdated += size
	case model.ActionDelete:
		m.files.Deleted++
	case model.ActionCreateDirectory:
		m.files.DirectoriesCreated++
	case model.ActionSkip:
		m.files.Skipped++
	case model.ActionConflict:
		m.files.Conflicts++
	}

	if size > 0 {
		m.transfer.BytesTransferred += size
		if m.transfer.LargestFileSize == 0 || size > m.transfer.LargestFileSize {
			m.transfer.LargestFileSize = size
		}
		if m.transfer.SmallestFileSize == 0 || size < m.transfer.SmallestFileSize {
			m.transfer.SmallestFileSize = size
		}
	}

	name := op.String()
	m.operations.OperationCounts[name]++
	m.operations.OperationTimes[name] += duration
	m.operations.OperationBytes[name] += size
}

// RecordError records an error, critical ones feeding CriticalErrors
// and non-critical ones RecoverableErrors.
func (m *SyncMetrics) RecordError(errorType, message string, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors.TotalErrors++
	m.errors.ErrorsByType[errorType]++
	if critical {
		m.errors.CriticalErrors = append(m.errors.CriticalErrors, message)
	} else {
		m.errors.RecoverableErrors = append(m.errors.RecoverableErrors, message)
	}
}

func (m *SyncMetrics) RecordWarning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors.TotalWarnings++
}

// RecordConflictResolution records the strategy a conflict was
// resolved with, and whether it required manual intervention.
func (m *SyncMetrics) RecordConflictResolution(strategy string, autoResolved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conflicts.TotalConflicts++
	if autoResolved {
		m.conflicts.AutoResolved++
	} else {
		m.conflicts.ManualIntervention++
	}
	m.conflicts.ResolutionStrategies[strategy]++
}

// RecordScan folds a completed directory scan into the file/byte
// totals and scan-phase timing.
func (m *SyncMetrics) RecordScan(filesFound int, bytesScanned int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files.Scanned += filesFound
	m.transfer.BytesScanned += bytesScanned
	m.performance.ScanTime += duration
}

func (m *SyncMetrics) RecordComparisonTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance.ComparisonTime += d
}

func (m *SyncMetrics) RecordTransferTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance.TransferTime += d
}

// calculatePerformanceStats derives rate figures from the totals
// accumulated so far. Callers must already hold m.mu.
func (m *SyncMetrics) calculatePerformanceStats() {
	if secs := m.Duration.Seconds(); secs > 0 {
		m.performance.TransferRate = float64(m.transfer.BytesTransferred) / secs
		m.performance.FilesPerSecond = float64(m.files.Processed) / secs
	}
	if m.files.Processed > 0 {
		m.transfer.AverageFileSize = m.transfer.BytesTransferred / int64(m.files.Processed)
	}
}

// SuccessRate returns the percentage of processed files that did not
// fail. A run that processed nothing is vacuously 100% successful.
func (m SyncMetrics) SuccessRate() float64 {
	if m.files.Processed == 0 {
		return 100.0
	}
	successful := m.files.Processed - m.files.Failed
	return (float64(successful) / float64(m.files.Processed)) * 100.0
}

// IsSuccessful reports whether the run had no critical errors and no
// outright file failures.
func (m *SyncMetrics) IsSuccessful() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors.CriticalErrors) == 0 && m.files.Failed == 0
}

// Summary renders a one-line human-readable recap of the run.
func (m *SyncMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fmt.Sprintf(
		"sync completed in %.2fs: %d files processed (%d copied, %d updated, %d deleted), %s transferred at %s/s",
		m.Duration.Seconds(),
		m.files.Processed, m.files.Copied, m.files.Updated, m.files.Deleted,
		humanize.Bytes(uint64(m.transfer.BytesTransferred)),
		humanize.Bytes(uint64(m.performance.TransferRate)),
	)
}
