// Package scheduler provides cron-based job scheduling for shepherd.
//
// Recurring work (the weekly engagement post, the idle-session sweep) is
// registered as named jobs against standard 5-field cron expressions or
// @every-style interval descriptors.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on cron expressions.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler. Jobs run in UTC with
// panic recovery so one misbehaving job cannot take down the loop.
func NewScheduler() *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow), plus
	// @every descriptors.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a named task on the provided cron expression. It returns
// an error if the expression is invalid.
func (s *Scheduler) AddJob(name, expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, func() {
		slog.Info("scheduled job running", "job", name)
		task()
	})
	if err != nil {
		return err
	}
	slog.Info("scheduled job registered", "job", name, "cron", expr)
	return nil
}

// Stop stops the scheduler and blocks until running jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
