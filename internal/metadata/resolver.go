package metadata

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Resolver produces a display pair for a link. Live results are cached; any
// live failure is absorbed into Fallback.
type Resolver struct {
	fetcher     Fetcher
	cache       Cache
	logger      *zap.Logger
	resolutions metric.Int64Counter
}

// NewResolver builds a Resolver. A nil cache disables caching and a nil meter
// disables the resolution counter.
func NewResolver(fetcher Fetcher, cache Cache, logger *zap.Logger, meter metric.Meter) (*Resolver, error) {
	if cache == nil {
		cache = NopCache{}
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("metadata")
	}
	resolutions, err := meter.Int64Counter("metadata_resolutions_total",
		metric.WithDescription("Metadata resolutions by source"))
	if err != nil {
		return nil, err
	}
	return &Resolver{
		fetcher:     fetcher,
		cache:       cache,
		logger:      logger.Named("metadata"),
		resolutions: resolutions,
	}, nil
}

// Resolve never fails
func (r *Resolver) Resolve(ctx context.Context, link string) Metadata {
	if md, ok, err := r.cache.Get(ctx, link); err != nil {
		r.logger.Warn("metadata cache read failed", zap.String("url", link), zap.Error(err))
	} else if ok {
		r.count(ctx, SourceCache)
		return md
	}

	md, err := r.fetcher.Fetch(ctx, link)
	if err != nil {
		r.logger.Info("live metadata unavailable, using fallback",
			zap.String("url", link), zap.Error(err))
		r.count(ctx, SourceFallback)
		return Fallback(link)
	}

	if err := r.cache.Set(ctx, link, md); err != nil {
		r.logger.Warn("metadata cache write failed", zap.String("url", link), zap.Error(err))
	}
	r.count(ctx, SourceLive)
	return md
}

func (r *Resolver) count(ctx context.Context, source string) {
	r.resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
