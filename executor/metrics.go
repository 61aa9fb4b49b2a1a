package executor

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/gaborage/dataaccess/logger"
)

const (
	// Instrumentation scope for executor metrics and spans
	instrumentationName = "github.com/gaborage/dataaccess/executor"

	metricExecutions        = "dataaccess.executions"         // Counter
	metricRetries           = "dataaccess.retries"            // Counter
	metricExecutionDuration = "dataaccess.execution.duration" // Histogram in seconds

	attrOperation = "dataaccess.operation"
	attrOutcome   = "dataaccess.outcome"
	attrErrorType = "error.type"
	attrErrorCode = "dataaccess.error.code"
)

type instruments struct {
	executions metric.Int64Counter
	retries    metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider, log logger.Logger) *instruments {
	meter := mp.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	logMetricError := func(name string, err error) {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to initialize metric")
	}

	inst := &instruments{}
	var err error

	inst.executions, err = meter.Int64Counter(metricExecutions,
		metric.WithDescription("Number of completed executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		logMetricError(metricExecutions, err)
		inst.executions, _ = fallback.Int64Counter(metricExecutions)
	}

	inst.retries, err = meter.Int64Counter(metricRetries,
		metric.WithDescription("Number of retried transport calls"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		logMetricError(metricRetries, err)
		inst.retries, _ = fallback.Int64Counter(metricRetries)
	}

	inst.duration, err = meter.Float64Histogram(metricExecutionDuration,
		metric.WithDescription("Duration of executions from submission to outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logMetricError(metricExecutionDuration, err)
		inst.duration, _ = fallback.Float64Histogram(metricExecutionDuration)
	}

	return inst
}

func (i *instruments) recordRetry(ctx context.Context, op string, code string) {
	i.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, op),
		attribute.String(attrErrorCode, code),
	))
}

func (i *instruments) recordOutcome(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{attribute.String(attrOperation, op)}
	if err == nil {
		attrs = append(attrs, attribute.String(attrOutcome, "success"))
	} else {
		attrs = append(attrs, attribute.String(attrOutcome, "failure"), attribute.String(attrErrorType, string(errorTypeOf(err))))
	}
	set := metric.WithAttributes(attrs...)
	i.executions.Add(ctx, 1, set)
	i.duration.Record(ctx, time.Since(start).Seconds(), set)
}

func errorTypeOf(err error) ErrorType {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Type()
	}
	return UnknownError
}
