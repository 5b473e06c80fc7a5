package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PromotionJob runs the graduation sweep on a cron schedule. The service
// itself decides whether the day is the promotion day, so the cron spec can
// simply fire daily.
type PromotionJob struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// Runner is the narrow dependency the job needs from the promotion service.
type Runner interface {
	RunIfDue(ctx context.Context, date time.Time) error
}

type runnerFunc func(ctx context.Context, date time.Time) error

func (f runnerFunc) RunIfDue(ctx context.Context, date time.Time) error { return f(ctx, date) }

// RunnerFunc adapts a function to the Runner interface.
func RunnerFunc(f func(ctx context.Context, date time.Time) error) Runner {
	return runnerFunc(f)
}

// NewPromotionJob schedules the runner with the given cron spec.
func NewPromotionJob(spec string, runner Runner, logger *zap.Logger) (*PromotionJob, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := runner.RunIfDue(ctx, time.Now().UTC()); err != nil {
			logger.Error("promotion job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return &PromotionJob{cron: c, logger: logger}, nil
}

// Start begins the schedule in its own goroutine.
func (j *PromotionJob) Start() {
	j.cron.Start()
	j.logger.Info("promotion job scheduled")
}

// Stop halts the schedule and waits for a running invocation to finish.
func (j *PromotionJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
