package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/tasks"
)

const (
	JobOverdueScan  = "overdue_scan"
	JobAuditCleanup = "audit_cleanup"
)

// ErrUnknownJob is returned by RunNow for names that are not registered.
var ErrUnknownJob = errors.New("unknown job")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
}

type job struct {
	schedule string
	task     func() backlite.Task
	entryID  cron.EntryID
}

// Scheduler enqueues the periodic maintenance tasks. It only decides when
// work happens; the task queue does the work.
type Scheduler struct {
	queue Enqueuer
	cron  *cron.Cron
	jobs  map[string]*job

	mu         sync.Mutex
	running    bool
	cancelFunc context.CancelFunc
}

// New registers the overdue scan and audit cleanup jobs. A blank schedule
// disables that job.
func New(queue Enqueuer, cfg config.Scheduler, audit config.Audit) (*Scheduler, error) {
	s := &Scheduler{
		queue: queue,
		cron:  cron.New(cron.WithParser(parser)),
		jobs:  make(map[string]*job),
	}

	retentionDays := audit.RetentionDays
	if err := s.add(JobOverdueScan, cfg.OverdueScanSchedule, func() backlite.Task {
		return tasks.OverdueScanTask{}
	}); err != nil {
		return nil, err
	}
	if err := s.add(JobAuditCleanup, cfg.AuditCleanupSchedule, func() backlite.Task {
		return tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) add(name, schedule string, task func() backlite.Task) error {
	if schedule == "" {
		log.Printf("[SCHEDULER] %s: disabled", name)
		return nil
	}
	j := &job{schedule: schedule, task: task}
	id, err := s.cron.AddFunc(schedule, func() { s.enqueue(context.Background(), name, j) })
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", schedule, name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

func (s *Scheduler) enqueue(ctx context.Context, name string, j *job) error {
	ids, err := s.queue.Enqueue(ctx, j.task())
	if err != nil {
		log.Printf("[SCHEDULER] %s: enqueue failed: %v", name, err)
		return err
	}
	log.Printf("[SCHEDULER] %s: enqueued task %v", name, ids)
	return nil
}

// Start runs the cron loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	var runCtx context.Context
	runCtx, s.cancelFunc = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	for _, name := range s.Jobs() {
		j := s.jobs[name]
		log.Printf("[SCHEDULER] %s: schedule %q, next run %v", name, j.schedule, s.cron.Entry(j.entryID).Next)
	}

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop waits for any job that is currently enqueueing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	log.Printf("[SCHEDULER] stopped")
}

// RunNow enqueues a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownJob, name)
	}
	return s.enqueue(ctx, name, j)
}

// Jobs lists the enabled job names in order.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun is zero when the job is disabled or the scheduler is stopped.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok || !s.running {
		return time.Time{}
	}
	return s.cron.Entry(j.entryID).Next
}
