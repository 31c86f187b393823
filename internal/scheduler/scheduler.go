// Package scheduler drives the analytics pipeline on a polling cadence so
// the core computation stays pure and timer-free.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pulsehq/venue-pulse/internal/ingest"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

// Scheduler periodically polls HTTP sensor bridges, recomputes venue state,
// and records completed time slots into the learning store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *venue.Service
	pollers   []*ingest.HTTPPoller
	venueIDs  []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(venueIDs []string, interval time.Duration, service *venue.Service, pollers []*ingest.HTTPPoller) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		pollers:   pollers,
		venueIDs:  venueIDs,
		interval:  interval,
	}
}

// Start schedules the recompute and session-learning jobs and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.venueIDs) == 0 {
		log.Println("scheduler: no venues configured; nothing to schedule")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 30
	}

	if _, err := s.scheduler.Every(seconds).Seconds().Do(s.recompute); err != nil {
		return err
	}

	// Slot boundaries fall on whole hours, so an hourly check catches every
	// completed 3-hour slot; re-offering the same slot is a no-op because an
	// equal session never displaces the stored profile.
	if _, err := s.scheduler.Every(1).Hour().Do(s.recordSessions); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// recompute polls fallback endpoints and re-runs the pipeline for every
// venue. Venues are independent, so they run in parallel; a failed run for
// one venue never blocks the others.
func (s *Scheduler) recompute() {
	var wg sync.WaitGroup

	for _, p := range s.pollers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := p.Poll(ctx); err != nil {
				log.Printf("scheduler: poll failed for %s: %v", p.Name(), err)
			}
		}()
	}
	wg.Wait()

	now := time.Now().UTC()
	for _, venueID := range s.venueIDs {
		venueID := venueID
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			state, err := s.service.ComputeVenueState(ctx, venueID, now)
			if err != nil {
				log.Printf("scheduler: recompute failed for %s: %v", venueID, err)
				return
			}
			if state.Score != nil {
				log.Printf("scheduler: %s score %.1f (%s)", venueID, state.Score.Score, state.Score.Status)
			}
		}()
	}
	wg.Wait()
}

// recordSessions offers the just-completed slot of every venue to the
// learning store.
func (s *Scheduler) recordSessions() {
	now := time.Now().UTC()

	for _, venueID := range s.venueIDs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		if err := s.service.RecordSlotSession(ctx, venueID, now); err != nil {
			log.Printf("scheduler: session recording failed for %s: %v", venueID, err)
		}
		cancel()
	}
}
