package app

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/dmxconsole/internal/console"
)

// Renderer presents the frames produced by the driver. Render is only called from
// the control goroutine.
type Renderer interface {
	Render(frame console.Frame)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(frame console.Frame)

// Render calls f(frame)
func (f RendererFunc) Render(frame console.Frame) { f(frame) }

// LogRenderer writes changed frames to the debug log, at most perSec times a second.
// Changes arriving faster are counted and reported with the next logged frame.
type LogRenderer struct {
	limiter *rate.Limiter
	last    console.Frame
	skipped int
}

// NewLogRenderer creates a frame logger limited to perSec entries per second
func NewLogRenderer(perSec float64) *LogRenderer {
	return &LogRenderer{limiter: rate.NewLimiter(rate.Limit(perSec), 1)}
}

// Render logs frame if it differs from the previous one
func (r *LogRenderer) Render(frame console.Frame) {
	if frame.Equal(r.last) {
		return
	}
	r.last = append(r.last[:0], frame...)

	if !r.limiter.Allow() {
		r.skipped++
		return
	}

	hex := make([]string, len(frame))
	for i, c := range frame {
		hex[i] = c.Hex()
	}
	log.Debug().Strs("frame", hex).Int("skipped", r.skipped).Msg("Frame changed")
	r.skipped = 0
}
