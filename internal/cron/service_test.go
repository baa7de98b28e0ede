package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	blocked  bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.blocked || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newCycleService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	good := &countingJob{name: "good"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newCycleService(t, lock, good, bad)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if good.runs != 1 {
		t.Fatalf("expected good job to run once, ran %d", good.runs)
	}
	if bad.runs != 1 {
		t.Fatalf("a failing sibling must not stop the cycle, ran %d", bad.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("lock should be released after the cycle, releases=%d", lock.releases)
	}
}

func TestCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &countingJob{name: "sweep"}
	lock := &fakeLock{blocked: true}
	service := newCycleService(t, lock, job)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("a standby replica must not run jobs, ran %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatal("a replica that never held the lock must not release it")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Fatal("expected an error without a logger")
	}
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewService(ServiceParams{Logger: logg}); err == nil {
		t.Fatal("expected an error without a lock")
	}
	service, err := NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.interval != defaultInterval {
		t.Fatalf("expected default interval, got %s", service.interval)
	}
}
