// Package scheduler refreshes stored share prices on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
)

type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	syncer *Syncer
	logger *logger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	last   []Result
}

// New registers syncer.SyncAll under a standard five-field cron spec evaluated in Moscow time.
// Overlapping runs are skipped and panics in a run are logged as errors.
func New(syncer *Syncer, spec string, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	cronLog := newCronLogger(log)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(provider.MSK),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		syncer: syncer,
		logger: log,
	}

	entry, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid cron spec %q", spec)
	}

	s.entry = entry

	return s, nil
}

// Start runs the schedule in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next", s.Next()))
}

// Stop halts the schedule and returns a context that is done once a running sync finishes.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := s.cron.Stop()
	s.logger.Info("Scheduler stopped")

	return done
}

// Next is the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs one sync immediately.
func (s *Scheduler) RunOnce(ctx context.Context) ([]Result, error) {
	results, err := s.syncer.SyncAll(ctx)

	s.mu.Lock()
	s.last = results
	s.mu.Unlock()

	return results, err
}

// LastResults returns the results of the most recent run.
func (s *Scheduler) LastResults() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Result(nil), s.last...)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Scheduled sync failed", zap.Error(err))
	}
}

// cronLogger routes cron events to zap. Scheduling chatter goes to debug.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(log *logger.Logger) cron.Logger {
	return cronLogger{sugar: log.Named("cron").Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append([]interface{}{zap.Error(err)}, keysAndValues...)...)
}
