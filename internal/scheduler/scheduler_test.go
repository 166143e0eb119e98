package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/tasks"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *recordingQueue) Enqueue(ctx context.Context, ts ...backlite.Task) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, ts...)
	return []string{"task-1"}, nil
}

var defaultSchedules = config.Scheduler{
	OverdueScanSchedule:  "0 7 * * *",
	AuditCleanupSchedule: "30 3 * * *",
}

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(&recordingQueue{}, defaultSchedules, config.Audit{RetentionDays: 30})
	require.NoError(t, err)
	assert.Equal(t, []string{JobAuditCleanup, JobOverdueScan}, s.Jobs())
}

func TestNew_BlankScheduleDisablesJob(t *testing.T) {
	s, err := New(&recordingQueue{}, config.Scheduler{OverdueScanSchedule: "0 7 * * *"}, config.Audit{})
	require.NoError(t, err)
	assert.Equal(t, []string{JobOverdueScan}, s.Jobs())
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(&recordingQueue{}, config.Scheduler{OverdueScanSchedule: "every morning"}, config.Audit{})
	assert.Error(t, err)
	assert.Error(t, ValidateSchedule("61 * * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
}

func TestRunNow(t *testing.T) {
	queue := &recordingQueue{}
	s, err := New(queue, defaultSchedules, config.Audit{RetentionDays: 30})
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background(), JobOverdueScan))
	require.NoError(t, s.RunNow(context.Background(), JobAuditCleanup))
	assert.ErrorIs(t, s.RunNow(context.Background(), "reindex"), ErrUnknownJob)

	require.Len(t, queue.tasks, 2)
	assert.Equal(t, tasks.OverdueScanTask{}, queue.tasks[0])
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 30}, queue.tasks[1])

	queue.err = errors.New("queue closed")
	assert.ErrorIs(t, s.RunNow(context.Background(), JobOverdueScan), queue.err)
}

func TestStartStop(t *testing.T) {
	s, err := New(&recordingQueue{}, defaultSchedules, config.Audit{})
	require.NoError(t, err)
	assert.True(t, s.NextRun(JobOverdueScan).IsZero())

	s.Start(context.Background())
	assert.False(t, s.NextRun(JobOverdueScan).IsZero())
	assert.Equal(t, 7, s.NextRun(JobOverdueScan).Hour())

	s.Stop()
	assert.True(t, s.NextRun(JobOverdueScan).IsZero())
	s.Stop()
}
