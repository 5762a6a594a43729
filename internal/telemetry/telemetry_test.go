package telemetry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/i2y/clinicalmcp/internal/telemetry"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Settings{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestToolInstruments_Record(t *testing.T) {
	inst, err := telemetry.NewToolInstruments(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		inst.Record(context.Background(), "gather_bpmh", telemetry.OutcomeSuccess, 3*time.Millisecond)
	})

	var nilInst *telemetry.ToolInstruments
	assert.NotPanics(t, func() {
		nilInst.Record(context.Background(), "gather_bpmh", telemetry.OutcomeError, time.Millisecond)
	})
}

func TestNewToolInstruments_GlobalMeter(t *testing.T) {
	inst, err := telemetry.NewToolInstruments(nil)
	require.NoError(t, err)
	assert.NotNil(t, inst)
	assert.NotNil(t, telemetry.Tracer())
}
