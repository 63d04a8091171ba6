package apm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-apm/engine"
)

func TestMetricsRecordFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	p, stub := newStubProcessor(t, stereoMonoConfig(), WithMetrics(m))
	assert.InDelta(t, 1, testutil.ToFloat64(m.processorsActive), 0)

	capture := make([]float32, 2*NumSamplesPerFrame)
	render := make([]int16, NumSamplesPerFrame)
	require.NoError(t, p.ProcessCaptureFloat32(capture, 2))
	require.NoError(t, p.ProcessCaptureFloat32(capture, 2))
	require.NoError(t, p.ProcessRenderInt16(render, 1))

	assert.InDelta(t, 2, testutil.ToFloat64(m.framesTotal.WithLabelValues(pathCaptureFloat)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.framesTotal.WithLabelValues(pathRenderInt16)), 0)

	_ = p.ProcessCaptureFloat32(capture, 1)
	stub.RenderCode = engine.BadDataLengthError
	_ = p.ProcessRenderInt16(render, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(
		m.frameErrors.WithLabelValues(pathCaptureFloat, StatusBadParameter.String())), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(
		m.frameErrors.WithLabelValues(pathRenderInt16, StatusBadDataLength.String())), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.framesTotal.WithLabelValues(pathRenderInt16)), 0)

	n, err := testutil.GatherAndCount(reg, "apm_frame_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetricsUnknownStatusLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	p, stub := newStubProcessor(t, stereoMonoConfig(), WithMetrics(m))
	render := make([]float32, NumSamplesPerFrame)
	for _, code := range []engine.Code{-42, -99, 7} {
		stub.RenderCode = code
		err := p.ProcessRenderFloat32(render, 1)
		assert.Equal(t, code, StatusOf(err))
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.frameErrors.WithLabelValues(pathRenderFloat, "other")), 0)
	n, err := testutil.GatherAndCount(reg, "apm_frame_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, StatusBadStreamParameter.String(), statusLabel(StatusBadStreamParameter))
	assert.Equal(t, StatusOK.String(), statusLabel(StatusOK))
}

func TestMetricsProcessorsActive(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	cfg := DefaultConfig()
	p1, err := Create(cfg, WithMetrics(m), discardLogger())
	require.NoError(t, err)
	p2, err := Create(cfg, WithMetrics(m), discardLogger())
	require.NoError(t, err)
	assert.InDelta(t, 2, testutil.ToFloat64(m.processorsActive), 0)

	p1.Destroy()
	p2.Destroy()
	assert.InDelta(t, 0, testutil.ToFloat64(m.processorsActive), 0)
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordFrame(pathCaptureFloat, 0)
		m.recordError(pathCaptureFloat, StatusBadParameter)
		m.processorCreated()
		m.processorDestroyed()
	})
}
