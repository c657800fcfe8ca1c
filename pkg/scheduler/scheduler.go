package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic jobs (daily report, cache purge). Jobs are
// wrapped so a run never overlaps itself and a panic never kills the process.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New constructs a stopped scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	c := cron.New(cron.WithChain(
		cron.Recover(cl),
		cron.DelayIfStillRunning(cl),
	))
	return &Scheduler{cron: c, logger: logger}
}

// Add registers a job under a cron spec ("m h dom mon dow").
func (s *Scheduler) Add(spec, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Sugar().Infow("job starting", "job", name)
		job()
		s.logger.Sugar().Infow("job finished", "job", name)
	})
	return err
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
