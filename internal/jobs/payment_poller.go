package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultPollSchedule = "@every 30s"

// Poller advances in-flight purchases and reports how many it looked at.
type Poller interface {
	PollPending(ctx context.Context) (int, error)
}

// PaymentPollerJob drives pending purchases forward on a cron schedule.
type PaymentPollerJob struct {
	poller   Poller
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewPaymentPollerJob(poller Poller, schedule string, logger *slog.Logger) *PaymentPollerJob {
	if schedule == "" {
		schedule = DefaultPollSchedule
	}
	l := cronLogger{logger: logger}
	return &PaymentPollerJob{
		poller:   poller,
		schedule: schedule,
		timeout:  2 * time.Minute,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// Start registers the job and starts the scheduler. Runs stop when ctx is done or Stop is called.
func (j *PaymentPollerJob) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("error scheduling payment poller %q: %w", j.schedule, err)
	}

	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()

	j.logger.Info("Starting payment poller", "schedule", j.schedule)
	j.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running poll to return.
func (j *PaymentPollerJob) Stop(ctx context.Context) {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.mu.Unlock()

	select {
	case <-j.cron.Stop().Done():
		j.logger.Info("Payment poller stopped")
	case <-ctx.Done():
		j.logger.Warn("Payment poller did not stop in time")
	}
}

// RunOnce polls pending purchases a single time.
func (j *PaymentPollerJob) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.poller.PollPending(ctx)
	if err != nil {
		j.logger.Error("Payment poll failed", "error", err, "processed", n)
		return n
	}
	if n > 0 {
		j.logger.Info("Payment poll finished", "processed", n, "took", time.Since(start))
	}
	return n
}

// cronLogger routes scheduler logs into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
