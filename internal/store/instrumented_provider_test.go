package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type failingProvider struct {
	*InMemoryProvider
}

func (failingProvider) IncrementViewCount(context.Context, string) error {
	return errors.New("boom")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestInstrument_RecordsOperationsAndErrors(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	p, err := Instrument(failingProvider{NewInMemoryProvider()}, meter)
	require.NoError(t, err)

	ctx := context.Background()
	g, err := p.CreateGroup(ctx, groupInput("go", "technology", "US"))
	require.NoError(t, err)
	_, err = p.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Error(t, p.IncrementViewCount(ctx, g.ID))

	sums := collect(t, reader)
	require.EqualValues(t, 3, sums["store_operations_total"])
	require.EqualValues(t, 1, sums["store_errors_total"])
}
