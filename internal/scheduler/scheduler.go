package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs a job once on Start and then every interval until Stop.
// A panicking run is logged and the loop keeps going.
type Scheduler struct {
	name     string
	interval time.Duration
	job      func(context.Context)

	running atomic.Bool
	runs    atomic.Int64
	lastRun atomic.Int64 // unix millis of the last finished run

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Status struct {
	Name     string     `json:"name"`
	Running  bool       `json:"running"`
	Interval string     `json:"interval"`
	Runs     int64      `json:"runs"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
}

func New(name string, interval time.Duration, job func(context.Context)) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		done:     make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.loop(ctx, s.done)
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Str("job", s.name).Dur("interval", s.interval).Msg("scheduler started")

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	log.Info().Str("job", s.name).Msg("scheduler stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) Status() Status {
	st := Status{
		Name:     s.name,
		Running:  s.running.Load(),
		Interval: s.interval.String(),
		Runs:     s.runs.Load(),
	}
	if ms := s.lastRun.Load(); ms > 0 {
		t := time.UnixMilli(ms).UTC()
		st.LastRun = &t
	}
	return st
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", s.name).Interface("panic", r).Msg("scheduled run panicked")
		}
		s.runs.Add(1)
		s.lastRun.Store(time.Now().UnixMilli())
	}()

	s.job(ctx)
	log.Debug().
		Str("job", s.name).
		Int64("durationMs", time.Since(start).Milliseconds()).
		Msg("scheduled run completed")
}
