// Package scheduler optionally runs the daily summarization in-process,
// for deployments without an external cron hitting the trigger endpoint.
package scheduler

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"
	"github.com/rs/zerolog"
)

// Job is the daily work to trigger.
type Job interface {
	Run(ctx context.Context) error
}

type Scheduler struct {
	job   Job
	at    string // HH:MM local time
	log   zerolog.Logger
	cron  *gron.Cron
	runMu sync.Mutex
}

func New(job Job, at string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		job: job,
		at:  at,
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the job once a day. Runs never overlap: a slow run
// blocks the next tick instead of racing the deletion step.
func (s *Scheduler) Start() {
	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(1*xtime.Day).At(s.at), func() {
		s.runMu.Lock()
		defer s.runMu.Unlock()

		s.log.Info().Msg("scheduled summarization starting")
		if err := s.job.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("scheduled summarization failed")
			return
		}
		s.log.Info().Msg("scheduled summarization finished")
	})
	s.cron.Start()
	s.log.Info().Str("at", s.at).Msg("daily summarization scheduled")
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
