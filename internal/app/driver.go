package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/console"
	"github.com/dokzlo13/dmxconsole/internal/scheduler"
)

// ErrDriverClosed is returned when the driver no longer accepts work
var ErrDriverClosed = fmt.Errorf("console driver closed")

// Driver runs the console's control goroutine: a ticker advancing the effects and
// a work queue for every other mutation. Nothing else touches the console, the
// scene store or the Lua state while the driver is running.
type Driver struct {
	console  *console.Console
	renderer Renderer
	interval time.Duration

	// Work queue for mutations coming from other goroutines
	workQueue chan scheduler.Work

	// Shutdown signaling - closing this channel signals senders to stop
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	ticks uint64
}

// NewDriver creates a driver ticking c every interval and rendering through r
func NewDriver(c *console.Console, r Renderer, interval time.Duration, queueSize int) *Driver {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Driver{
		console:   c,
		renderer:  r,
		interval:  interval,
		workQueue: make(chan scheduler.Work, queueSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Do queues work for the control goroutine (thread-safe, non-blocking).
// Returns false if the driver is closing, the queue is full, or ctx is cancelled.
func (d *Driver) Do(ctx context.Context, work scheduler.Work) bool {
	if d.isClosing() {
		log.Warn().Msg("Console driver closing, dropping work")
		return false
	}

	select {
	case <-d.closing:
		log.Warn().Msg("Console driver closing, dropping work")
		return false
	case <-ctx.Done():
		log.Warn().Msg("Context cancelled, dropping console work")
		return false
	case d.workQueue <- work:
		return true
	default:
		log.Warn().Msg("Console work queue full, dropping work")
		return false
	}
}

// DoSync queues work, waits for space, and waits for its result.
func (d *Driver) DoSync(ctx context.Context, work func(context.Context) error) error {
	done := make(chan error, 1)
	wrapped := scheduler.Work(func(c context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("console work panicked: %v", rec)
				panic(rec)
			}
		}()
		done <- work(c)
	})

	if d.isClosing() {
		return ErrDriverClosed
	}

	select {
	case <-d.closing:
		return ErrDriverClosed
	case <-ctx.Done():
		return ctx.Err()
	case d.workQueue <- wrapped:
	}

	select {
	case <-d.done:
		// Run drains the queue before closing done
		select {
		case err := <-done:
			return err
		default:
			return ErrDriverClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Run is the control loop. It exits when ctx is cancelled or the driver is closed,
// after running any work still queued.
func (d *Driver) Run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Info().Dur("tick_interval", d.interval).Msg("Console driver started")

	for {
		select {
		case <-ctx.Done():
			d.drainQueue(ctx)
			log.Info().Uint64("ticks", d.ticks).Msg("Console driver stopped")
			return
		case <-d.closing:
			d.drainQueue(ctx)
			log.Info().Uint64("ticks", d.ticks).Msg("Console driver stopped")
			return
		case <-ticker.C:
			d.tick()
		case work := <-d.workQueue:
			d.executeWork(ctx, work)
		}
	}
}

// Close signals the driver to stop accepting work
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		close(d.closing)
	})
}

func (d *Driver) isClosing() bool {
	select {
	case <-d.closing:
		return true
	default:
		return false
	}
}

// Done is closed once Run has returned
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// tick advances the effects once and renders the frame
func (d *Driver) tick() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Console tick panicked - driver continuing")
		}
	}()

	d.ticks++
	frame := d.console.Tick()
	if d.renderer != nil {
		d.renderer.Render(frame)
	}
}

// drainQueue processes any remaining work in the queue before exiting
func (d *Driver) drainQueue(ctx context.Context) {
	for {
		select {
		case work := <-d.workQueue:
			d.executeWork(ctx, work)
		default:
			return
		}
	}
}

// executeWork runs a single work item with panic recovery
func (d *Driver) executeWork(ctx context.Context, work scheduler.Work) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Msg("Console work panicked - driver continuing")
		}
	}()
	work(ctx)
}
