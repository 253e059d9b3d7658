package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerTicks(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := &publisherStub{}

	scheduler, err := New(logger, "@every 100ms", publisher)
	require.NoError(t, err)

	scheduler.Start()
	assert.Eventually(t, func() bool {
		return publisher.calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
	scheduler.Stop()
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(logger, "not a schedule", &publisherStub{})
	assert.Error(t, err)
}

type publisherStub struct {
	calls atomic.Int32
}

func (s *publisherStub) PublishLatest(context.Context) (*model.Offer, error) {
	s.calls.Add(1)
	return nil, nil
}
