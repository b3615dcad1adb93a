package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TulevaEE/onboarding-service-sub001/internal/scheduler"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase/mocks"
)

// runRecorder collects job executions across ticks.
type runRecorder struct {
	mu   sync.Mutex
	runs []string
	done chan struct{}
	want int
}

func newRunRecorder(want int) *runRecorder {
	return &runRecorder{done: make(chan struct{}), want: want}
}

func (r *runRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, name)
	if len(r.runs) == r.want {
		close(r.done)
	}
}

func (r *runRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}

func (r *runRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d job runs, got %v", r.want, r.recorded())
	}
}

func job(name string, rec *runRecorder, err error) scheduler.Job {
	return scheduler.Job{
		Name: name,
		Run: func(ctx context.Context) error {
			rec.record(name)
			return err
		},
	}
}

func TestScheduler_RunsJobsInOrder(t *testing.T) {
	rec := newRunRecorder(4)
	s := scheduler.New(scheduler.Config{
		Locker:   mocks.NewMockJobLocker(),
		Logger:   zerolog.Nop(),
		Interval: 10 * time.Millisecond,
	}, []scheduler.Job{
		job("first", rec, nil),
		job("second", rec, nil),
	})

	s.Start(context.Background())
	rec.wait(t)
	s.Stop()

	runs := rec.recorded()[:4]
	want := []string{"first", "second", "first", "second"}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("runs = %v, want prefix %v", runs, want)
		}
	}
}

func TestScheduler_SkipsJobWhenLockHeld(t *testing.T) {
	locker := mocks.NewMockJobLocker()
	locker.AcquireFunc = func(ctx context.Context, name string, ttl time.Duration) (bool, error) {
		// Another instance is working on the first job.
		return name != "held", nil
	}

	rec := newRunRecorder(2)
	s := scheduler.New(scheduler.Config{
		Locker:   locker,
		Logger:   zerolog.Nop(),
		Interval: 10 * time.Millisecond,
	}, []scheduler.Job{
		job("held", rec, nil),
		job("free", rec, nil),
	})

	s.Start(context.Background())
	rec.wait(t)
	s.Stop()

	for _, name := range rec.recorded() {
		if name == "held" {
			t.Fatal("job ran while its lock was held elsewhere")
		}
	}
}

func TestScheduler_FailingJobDoesNotBlockTheTick(t *testing.T) {
	rec := newRunRecorder(2)
	s := scheduler.New(scheduler.Config{
		Locker:   mocks.NewMockJobLocker(),
		Logger:   zerolog.Nop(),
		Interval: 10 * time.Millisecond,
	}, []scheduler.Job{
		job("failing", rec, errors.New("boom")),
		job("after", rec, nil),
	})

	s.Start(context.Background())
	rec.wait(t)
	s.Stop()

	runs := rec.recorded()
	if runs[0] != "failing" || runs[1] != "after" {
		t.Errorf("runs = %v, want failing then after", runs)
	}
}

func TestScheduler_StopHaltsTicking(t *testing.T) {
	rec := newRunRecorder(1)
	s := scheduler.New(scheduler.Config{
		Locker:   mocks.NewMockJobLocker(),
		Logger:   zerolog.Nop(),
		Interval: 10 * time.Millisecond,
	}, []scheduler.Job{job("only", rec, nil)})

	s.Start(context.Background())
	rec.wait(t)
	s.Stop()

	ran := len(rec.recorded())
	time.Sleep(50 * time.Millisecond)
	if got := len(rec.recorded()); got != ran {
		t.Errorf("jobs ran after Stop: %d -> %d", ran, got)
	}
}
