package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
)

const cartAbandonHours = 72

// CartAbandonmentJobParams configure the stale cart sweeper.
type CartAbandonmentJobParams struct {
	Logger       *logger.Logger
	Repository   cartAbandonmentRepo
	AbandonAfter time.Duration
}

type cartAbandonmentRepo interface {
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCartAbandonmentJob builds the job that flips idle active carts to abandoned.
func NewCartAbandonmentJob(params CartAbandonmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	abandonAfter := params.AbandonAfter
	if abandonAfter <= 0 {
		abandonAfter = cartAbandonHours * time.Hour
	}
	return &cartAbandonmentJob{
		logg:         params.Logger,
		repo:         params.Repository,
		abandonAfter: abandonAfter,
		now:          time.Now,
	}, nil
}

type cartAbandonmentJob struct {
	logg         *logger.Logger
	repo         cartAbandonmentRepo
	abandonAfter time.Duration
	now          func() time.Time
}

func (j *cartAbandonmentJob) Name() string { return "cart-abandonment" }

func (j *cartAbandonmentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.abandonAfter)
	flipped, err := j.repo.MarkAbandonedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart abandonment: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"abandon_after": j.abandonAfter.String(),
		"carts_flipped": flipped,
	})
	j.logg.Info(logCtx, "stale cart sweep complete")
	return nil
}
