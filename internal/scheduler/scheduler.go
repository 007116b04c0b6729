// Package scheduler fires console jobs on cron expressions.
// Jobs never run on the cron goroutine: each firing is queued on a Dispatcher,
// which runs it on the console's control goroutine.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/eventbus"
)

// Work is a unit of work executed by the dispatcher
type Work func(ctx context.Context)

// Dispatcher queues work for the control goroutine.
// Do must not block; it reports false when the work was dropped.
type Dispatcher interface {
	Do(ctx context.Context, work Work) bool
}

// Publisher receives schedule events. *eventbus.Bus satisfies it.
type Publisher interface {
	Publish(event eventbus.Event)
}

// Job is the action bound to a schedule
type Job func(ctx context.Context) error

// Entry describes a registered schedule
type Entry struct {
	ID   cron.EntryID
	Spec string
	Name string
	Next time.Time
	Prev time.Time
}

type registration struct {
	spec string
	name string
	job  Job
}

// Scheduler manages cron entries and dispatches their jobs.
type Scheduler struct {
	mu      sync.RWMutex
	entries map[cron.EntryID]registration

	cron       *cron.Cron
	dispatcher Dispatcher
	bus        Publisher

	// ctx is handed to dispatched jobs; cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler dispatching through d. bus may be nil.
func New(d Dispatcher, bus Publisher) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{}
	return &Scheduler{
		entries: make(map[cron.EntryID]registration),
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		dispatcher: d,
		bus:        bus,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register adds a job fired on spec (standard 5-field cron or a descriptor such as @every 1m)
func (s *Scheduler) Register(spec, name string, job Job) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := registration{spec: spec, name: name, job: job}
	var id cron.EntryID
	id, err := s.cron.AddFunc(spec, func() { s.fire(id, reg) })
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.entries[id] = reg

	log.Debug().
		Int("id", int(id)).
		Str("spec", spec).
		Str("name", name).
		Msg("Schedule registered")
	return id, nil
}

// Unregister removes a schedule
func (s *Scheduler) Unregister(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(id)
	delete(s.entries, id)
}

// Entries returns the registered schedules ordered by their next run
func (s *Scheduler) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for id, reg := range s.entries {
		ce := s.cron.Entry(id)
		out = append(out, Entry{ID: id, Spec: reg.spec, Name: reg.name, Next: ce.Next, Prev: ce.Prev})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Next.Equal(out[j].Next) {
			return out[i].ID < out[j].ID
		}
		return out[i].Next.Before(out[j].Next)
	})
	return out
}

// RunNow dispatches the job of id immediately, outside its cron timing
func (s *Scheduler) RunNow(id cron.EntryID) bool {
	s.mu.RLock()
	reg, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return s.fire(id, reg)
}

// Start begins firing schedules
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("schedules", len(s.Entries())).Msg("Scheduler started")
}

// Stop halts the cron ticker and waits for in-flight dispatches until ctx expires
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	s.cancel()

	select {
	case <-stopped.Done():
		log.Info().Msg("Scheduler stopped")
	case <-ctx.Done():
		log.Warn().Msg("Scheduler stop timed out")
	}
}

// fire queues a job on the dispatcher and reports the outcome on the bus
func (s *Scheduler) fire(id cron.EntryID, reg registration) bool {
	log.Info().
		Int("id", int(id)).
		Str("name", reg.name).
		Str("spec", reg.spec).
		Msg("Schedule fired")

	queued := s.dispatcher.Do(s.ctx, func(ctx context.Context) {
		err := reg.job(ctx)
		if err != nil {
			log.Error().Err(err).Str("name", reg.name).Msg("Scheduled job failed")
		}
		s.publish(id, reg, err)
	})
	if !queued {
		log.Warn().Str("name", reg.name).Msg("Scheduled job dropped")
	}
	return queued
}

func (s *Scheduler) publish(id cron.EntryID, reg registration, err error) {
	if s.bus == nil {
		return
	}
	data := map[string]interface{}{
		"schedule_id": int(id),
		"name":        reg.name,
		"spec":        reg.spec,
		"ok":          err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeSchedule, Data: data})
}

// cronLogger routes cron's internal logging to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
