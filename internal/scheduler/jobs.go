package scheduler

import (
	"context"
	"fmt"

	"github.com/dokzlo13/dmxconsole/internal/config"
	"github.com/dokzlo13/dmxconsole/internal/console"
)

// ConsoleJob builds the job for a configured schedule and a display name for it.
func ConsoleJob(c *console.Console, sc config.ScheduleConfig) (string, Job, error) {
	switch {
	case sc.Scene != "":
		name := sc.Scene
		return "scene:" + name, func(context.Context) error {
			return c.Scenes().Load(name)
		}, nil

	case sc.Quick != nil:
		slot := *sc.Quick
		return fmt.Sprintf("quick:%d", slot), func(context.Context) error {
			return c.Scenes().QuickLoad(slot)
		}, nil

	case sc.Action != "":
		var run func()
		switch sc.Action {
		case config.ActionStopEffects:
			run = c.StopEffects
		case config.ActionAllOn:
			run = c.AllOn
		case config.ActionAllOff:
			run = c.AllOff
		default:
			return "", nil, fmt.Errorf("unknown action %q", sc.Action)
		}
		return "action:" + sc.Action, func(context.Context) error {
			run()
			return nil
		}, nil
	}
	return "", nil, fmt.Errorf("schedule %q has no target", sc.Spec)
}

// RegisterConsole registers every configured schedule against the console.
func (s *Scheduler) RegisterConsole(c *console.Console, schedules []config.ScheduleConfig) error {
	for i, sc := range schedules {
		name, job, err := ConsoleJob(c, sc)
		if err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if _, err := s.Register(sc.Spec, name, job); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
	}
	return nil
}
