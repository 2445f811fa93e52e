package catalogsync

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// JobName labels the sync in logs and job metrics.
const JobName = "catalog_sync"

// Invalidator drops derived read caches once a new snapshot is committed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Params struct {
	Source catalog.Source
	Writer catalog.Writer
	Cache  Invalidator
	Logger *logger.Logger
}

// Updater rebuilds the local catalog from the upstream source.
type Updater struct {
	source catalog.Source
	writer catalog.Writer
	cache  Invalidator
	logg   *logger.Logger
	now    func() time.Time
}

func NewUpdater(params Params) (*Updater, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("catalog writer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Updater{
		source: params.Source,
		writer: params.Writer,
		cache:  params.Cache,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// UpdateData fetches the sales ranks, then streams every product into one
// replace-all transaction. On failure the previous catalog stays in place.
func (u *Updater) UpdateData(ctx context.Context) (catalog.ReplaceStats, error) {
	started := u.now()
	u.logg.Info(ctx, "catalog sync starting")

	ranks, err := u.source.GetSalesRanks(ctx)
	if err != nil {
		u.logg.Error(ctx, "fetching sales ranks failed", err)
		return catalog.ReplaceStats{}, err
	}
	u.logg.Info(u.logg.WithField(ctx, "ranked_products", len(ranks)), "sales ranks fetched")

	stats, err := u.writer.ReplaceData(ctx, u.source.GetProducts(ctx), ranks)
	if err != nil {
		u.logg.Error(ctx, "catalog sync failed", err)
		return catalog.ReplaceStats{}, err
	}

	if u.cache != nil {
		if err := u.cache.Invalidate(ctx); err != nil {
			u.logg.Warn(u.logg.WithField(ctx, "cache_error", err.Error()), "catalog cache invalidation failed")
		}
	}

	u.logg.Info(u.logg.WithFields(ctx, map[string]any{
		"products":    stats.Products,
		"categories":  stats.Categories,
		"colors":      stats.Colors,
		"duration_ms": u.now().Sub(started).Milliseconds(),
	}), "catalog sync complete")
	return stats, nil
}

func (u *Updater) Name() string { return JobName }

// Run lets the scheduler drive the updater.
func (u *Updater) Run(ctx context.Context) error {
	_, err := u.UpdateData(ctx)
	return err
}
