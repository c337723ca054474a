package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/filesync/internal/model"
)

func drain(t *testing.T, events <-chan Event, n int) []Event {
	t.Helper()
	collected := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case e, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, e)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d/%d", i+1, n)
		}
	}
	return collected
}

func TestReporter_SyncStartedCarriesTotals(t *testing.T) {
	t.Parallel()
	r, events := NewReporter()
	r.SyncStarted(10, 1000)

	got := drain(t, events, 1)
	require.Len(t, got, 1)
	assert.Equal(t, SyncStarted, got[0].Kind)
	assert.Equal(t, 10, got[0].FilesTotal)
	assert.Equal(t, int64(1000), got[0].BytesTotal)
	assert.NotEqual(t, [16]byte{}, got[0].SessionID)
}

func TestReporter_FileOperationCompletedEmitsProgressUpdate(t *testing.T) {
	t.Parallel()
	r, events := NewReporter()
	r.SyncStarted(2, 200)
	r.FileOperationCompleted(model.ActionCopy, "a.txt", "a.txt", 100, time.Millisecond)

	got := drain(t, events, 2)
	require.Len(t, got, 2)
	assert.Equal(t, FileOperationCompleted, got[0].Kind)
	assert.Equal(t, ProgressUpdate, got[1].Kind)
	assert.Equal(t, 1, got[1].FilesProcessed)
	assert.Equal(t, int64(100), got[1].BytesProcessed)
}

func TestReporter_FileOperationFailedRecordsError(t *testing.T) {
	t.Parallel()
	r, events := NewReporter()
	r.FileOperationFailed(model.ActionCopy, "a.txt", "a.txt", errors.New("disk full"))

	got := drain(t, events, 2)
	require.Len(t, got, 2)
	assert.Equal(t, FileOperationFailed, got[0].Kind)
	assert.EqualError(t, got[0].Err, "disk full")
}

func TestReporter_CloseStopsFurtherSends(t *testing.T) {
	t.Parallel()
	r, events := NewReporter()
	r.Close()
	r.Info("should be dropped") // must not panic or block

	_, ok := <-events
	assert.False(t, ok)
}

func TestReporter_FullBufferDropsWithoutBlocking(t *testing.T) {
	t.Parallel()
	r, _ := NewReporter()
	for i := 0; i < eventBuffer+10; i++ {
		r.Info("spam")
	}
	// If send blocked on a full buffer, this test would hang and fail via timeout.
}
