package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shaibs3/groupdir/internal/db"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentedProvider records a counter, an error counter and a latency
// histogram per store operation
type InstrumentedProvider struct {
	next     DbProvider
	ops      metric.Int64Counter
	errs     metric.Int64Counter
	duration metric.Float64Histogram
}

func Instrument(p DbProvider, meter metric.Meter) (*InstrumentedProvider, error) {
	ops, err := meter.Int64Counter("store_operations_total",
		metric.WithDescription("Store operations by name"))
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}
	errs, err := meter.Int64Counter("store_errors_total",
		metric.WithDescription("Store operations that returned an error"))
	if err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}
	duration, err := meter.Float64Histogram("store_operation_duration_seconds",
		metric.WithDescription("Store operation latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &InstrumentedProvider{next: p, ops: ops, errs: errs, duration: duration}, nil
}

// Unwrap returns the decorated provider
func (p *InstrumentedProvider) Unwrap() DbProvider {
	return p.next
}

func (p *InstrumentedProvider) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op))
	p.ops.Add(ctx, 1, attrs)
	p.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		p.errs.Add(ctx, 1, attrs)
	}
}

func (p *InstrumentedProvider) CreateGroup(ctx context.Context, in db.GroupInput) (g *db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "create_group", start, err) }(time.Now())
	return p.next.CreateGroup(ctx, in)
}

func (p *InstrumentedProvider) GetGroup(ctx context.Context, id string) (g *db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "get_group", start, err) }(time.Now())
	return p.next.GetGroup(ctx, id)
}

func (p *InstrumentedProvider) ListGroups(ctx context.Context) (gs []db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "list_groups", start, err) }(time.Now())
	return p.next.ListGroups(ctx)
}

func (p *InstrumentedProvider) ListGroupsByCategory(ctx context.Context, category string) (gs []db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "list_groups_by_category", start, err) }(time.Now())
	return p.next.ListGroupsByCategory(ctx, category)
}

func (p *InstrumentedProvider) ListGroupsByCountry(ctx context.Context, country string) (gs []db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "list_groups_by_country", start, err) }(time.Now())
	return p.next.ListGroupsByCountry(ctx, country)
}

func (p *InstrumentedProvider) SearchGroups(ctx context.Context, query string) (gs []db.Group, err error) {
	defer func(start time.Time) { p.record(ctx, "search_groups", start, err) }(time.Now())
	return p.next.SearchGroups(ctx, query)
}

func (p *InstrumentedProvider) IncrementViewCount(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { p.record(ctx, "increment_view_count", start, err) }(time.Now())
	return p.next.IncrementViewCount(ctx, id)
}

func (p *InstrumentedProvider) CreateUser(ctx context.Context, in db.UserInput) (u *db.User, err error) {
	defer func(start time.Time) { p.record(ctx, "create_user", start, err) }(time.Now())
	return p.next.CreateUser(ctx, in)
}

func (p *InstrumentedProvider) GetUser(ctx context.Context, id string) (u *db.User, err error) {
	defer func(start time.Time) { p.record(ctx, "get_user", start, err) }(time.Now())
	return p.next.GetUser(ctx, id)
}

func (p *InstrumentedProvider) GetUserByUsername(ctx context.Context, username string) (u *db.User, err error) {
	defer func(start time.Time) { p.record(ctx, "get_user_by_username", start, err) }(time.Now())
	return p.next.GetUserByUsername(ctx, username)
}

func (p *InstrumentedProvider) Close() error {
	return p.next.Close()
}
