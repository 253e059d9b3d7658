// Package scheduler runs the periodic publication tick. The tick itself is
// not serialised across instances; the conditional update in the offer
// service keeps a doubled tick harmless.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/robfig/cron/v3"
)

type publisher interface {
	PublishLatest(ctx context.Context) (*model.Offer, error)
}

// New creates a scheduler that promotes the oldest ready request on the
// given cron schedule.
func New(logger *slog.Logger, schedule string, publisher publisher) (*Scheduler, error) {
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		ctx := context.Background()
		offer, err := publisher.PublishLatest(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Publication tick failed", "error", err)
			return
		}
		if offer != nil {
			logger.InfoContext(ctx, "Publication tick promoted offer", "offer", offer.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule publication tick %q: %v", schedule, err)
	}

	return &Scheduler{logger: logger, runner: runner, schedule: schedule}, nil
}

type Scheduler struct {
	logger   *slog.Logger
	runner   *cron.Cron
	schedule string
}

func (s *Scheduler) Start() {
	s.logger.Info("Publication schedule started", "schedule", s.schedule)
	s.runner.Start()
}

// Stop halts the schedule and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.runner.Stop().Done()
	s.logger.Info("Publication schedule stopped")
}
