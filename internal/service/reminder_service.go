package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// ReminderScheduler periodically scans for tasks whose reminder window has
// opened and delivers one reminder per (task, deadline) pair. Ticks never
// overlap: if a scan is still running when the next interval fires, the new
// tick is skipped rather than run concurrently.
type ReminderScheduler struct {
	tasks      ReminderSource
	dispatches DispatchStore
	deliverer  Deliverer
	interval   time.Duration
	mu         sync.Mutex
	now        func() time.Time
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(tasks ReminderSource, dispatches DispatchStore, deliverer Deliverer, interval time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		tasks:      tasks,
		dispatches: dispatches,
		deliverer:  deliverer,
		interval:   interval,
		now:        time.Now,
	}
}

// Start runs the scan loop until the context is canceled. It blocks, so
// callers run it in its own goroutine.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Reminder scheduler started (interval: %s)", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunTick(ctx); err != nil {
				log.Printf("Error scanning for reminders: %v", err)
			}
		}
	}
}

// RunTick performs one scan: find eligible tasks, deliver a reminder for
// each, and record the dispatch. Delivery failures are isolated per task and
// leave no record, so the task stays a candidate on the next tick. Returns
// the number of reminders dispatched.
func (s *ReminderScheduler) RunTick(ctx context.Context) (int, error) {
	if !s.mu.TryLock() {
		// Prior tick still running
		return 0, nil
	}
	defer s.mu.Unlock()

	now := s.now()
	candidates, err := s.tasks.FindReminderCandidates(now)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range candidates {
		c := &candidates[i]

		if err := s.deliverer.SendReminderEmail(ctx, c.OwnerEmail, c.OwnerName, &c.Task); err != nil {
			log.Printf("Failed to deliver reminder for task %d: %v", c.ID, err)
			continue
		}

		recorded, err := s.dispatches.Record(c.ID, c.Deadline, now)
		if err != nil {
			log.Printf("Failed to record dispatch for task %d: %v", c.ID, err)
			continue
		}
		if !recorded {
			// Another instance beat us to it; the extra email is the
			// at-least-once cost
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		log.Printf("Dispatched %d reminder(s)", dispatched)
	}
	return dispatched, nil
}
