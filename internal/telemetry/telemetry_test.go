package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled_InstallsNoopTracer(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false, ServiceName: "swarmnoded"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.False(t, IsEnabled())

	ctx, span := StartSpan(context.Background(), "test.span")
	defer span.End()
	assert.NotNil(t, ctx)

	require.NoError(t, shutdown(context.Background()))
}

func TestInit_Enabled_InstallsRealProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "swarmnoded",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	ctx, span := StartSpan(context.Background(), "test.span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	_ = ctx

	require.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_ReturnsUsableSpan(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "facade.command")
	defer span.End()
	assert.NotNil(t, span)
}

func TestRecordError_NilIsNoop(t *testing.T) {
	RecordError(context.Background(), nil)
}

func TestRecordError_SetsSpanStatus(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, ServiceName: "swarmnoded"})
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "facade.command")
	RecordError(ctx, errors.New("boom"))
	span.End()
}
