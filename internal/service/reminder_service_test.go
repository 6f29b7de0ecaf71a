package service

import (
	"context"
	"testing"
	"time"

	"taskminder/internal/models"
)

func newTestScheduler(store *fakeTaskStore, deliverer *fakeDeliverer) *ReminderScheduler {
	return NewReminderScheduler(store, store, deliverer, time.Minute)
}

func addTask(store *fakeTaskStore, userID int64, deadline time.Time, leadMinutes int) *models.Task {
	task, _ := store.CreateTask(&models.Task{
		UserID:              userID,
		Title:               "Write report",
		Deadline:            deadline,
		ReminderLeadMinutes: leadMinutes,
		Priority:            models.PriorityMedium,
	})
	store.tasks[task.ID] = task
	return task
}

func TestRunTickDispatchesEligibleTask(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	// Deadline 30 minutes out, 60 minute lead: window is open
	task := addTask(store, 1, now.Add(30*time.Minute), 60)

	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 dispatch, got %d", count)
	}
	if len(deliverer.reminders) != 1 || deliverer.reminders[0] != task.ID {
		t.Errorf("Expected reminder for task %d, got %v", task.ID, deliverer.reminders)
	}
}

func TestRunTickSkipsTaskOutsideWindow(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	// Deadline 2 hours out, 60 minute lead: window not open yet
	addTask(store, 1, now.Add(2*time.Hour), 60)

	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 dispatches, got %d", count)
	}
}

func TestRunTickSkipsCompletedTask(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	task := addTask(store, 1, now.Add(30*time.Minute), 60)
	store.tasks[task.ID].Completed = true

	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 dispatches for completed task, got %d", count)
	}
}

func TestRunTickIdempotent(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	addTask(store, 1, now.Add(30*time.Minute), 60)

	if count, _ := sched.RunTick(context.Background()); count != 1 {
		t.Fatalf("Expected 1 dispatch on first tick, got %d", count)
	}

	// Same (task, deadline): subsequent ticks dispatch nothing
	for i := 0; i < 3; i++ {
		count, err := sched.RunTick(context.Background())
		if err != nil {
			t.Fatalf("RunTick failed: %v", err)
		}
		if count != 0 {
			t.Fatalf("Expected 0 dispatches on repeat tick, got %d", count)
		}
	}
	if len(deliverer.reminders) != 1 {
		t.Errorf("Expected exactly 1 reminder email, got %d", len(deliverer.reminders))
	}
}

func TestRunTickDeadlineEditRefires(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	task := addTask(store, 1, now.Add(30*time.Minute), 60)

	if count, _ := sched.RunTick(context.Background()); count != 1 {
		t.Fatal("Expected initial dispatch")
	}

	// Moving the deadline makes the task eligible again under the new value
	store.tasks[task.ID].Deadline = now.Add(45 * time.Minute)

	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected re-dispatch after deadline edit, got %d", count)
	}
	if len(deliverer.reminders) != 2 {
		t.Errorf("Expected 2 reminder emails, got %d", len(deliverer.reminders))
	}
}

func TestRunTickDeliveryFailureRetriesNextTick(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{failSends: true}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	addTask(store, 1, now.Add(30*time.Minute), 60)

	// Failed delivery leaves no record
	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 dispatches on failed delivery, got %d", count)
	}
	if len(store.dispatched) != 0 {
		t.Fatal("Expected no dispatch record after failed delivery")
	}

	// Next tick retries and succeeds
	deliverer.failSends = false
	count, err = sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected retry to dispatch, got %d", count)
	}
}

func TestRunTickFailureIsolation(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	failing := addTask(store, 1, now.Add(30*time.Minute), 60)
	healthy := addTask(store, 2, now.Add(30*time.Minute), 60)

	// One task failing to deliver must not abort the scan
	deliverer.failTask = failing.ID
	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 dispatch, got %d", count)
	}
	if len(deliverer.reminders) != 1 || deliverer.reminders[0] != healthy.ID {
		t.Errorf("Expected reminder for task %d, got %v", healthy.ID, deliverer.reminders)
	}

	// The failed task retries once delivery recovers
	deliverer.failTask = 0
	if count, _ := sched.RunTick(context.Background()); count != 1 {
		t.Errorf("Expected failed task to retry, got %d", count)
	}
}

func TestRunTickPastDeadlineStillEligible(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := newTestScheduler(store, deliverer)

	now := time.Now()
	// Deadline already passed and no reminder was ever sent
	addTask(store, 1, now.Add(-time.Hour), 30)

	count, err := sched.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected overdue task to be dispatched, got %d", count)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	store := newFakeTaskStore()
	deliverer := &fakeDeliverer{}
	sched := NewReminderScheduler(store, store, deliverer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Scheduler did not stop after context cancel")
	}
}
