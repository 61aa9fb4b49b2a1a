// Package executor runs logical requests as cancellable, auto-retrying executions.
//
// Each execution builds the request, sends it through the transport, classifies
// the response and either retries connectivity failures or delivers exactly one
// Outcome. Upload and download executions also stream ProgressEvents.
package executor

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/dataaccess/activity"
	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/logger"
	"github.com/gaborage/dataaccess/request"
	"github.com/gaborage/dataaccess/response"
	"github.com/gaborage/dataaccess/retry"
	"github.com/gaborage/dataaccess/trace"
)

const (
	// DefaultMailboxSize is the per-execution event buffer
	DefaultMailboxSize = 64

	deliveryQueueSize = 256
)

// Operation names
const (
	OpSend     = "send"
	OpUpload   = "upload"
	OpDownload = "download"
)

// SleepFunc waits for d or until ctx ends
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithBuilder sets the request builder
func WithBuilder(b *request.Builder) Option {
	return func(e *Executor) {
		if b != nil {
			e.builder = b
		}
	}
}

// WithValidator sets the response validator
func WithValidator(v *response.Validator) Option {
	return func(e *Executor) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithPolicy sets the retry policy
func WithPolicy(p retry.Policy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// WithActivity sets the activity reporter
func WithActivity(r activity.Reporter) Option {
	return func(e *Executor) {
		if r != nil {
			e.activity = r
		}
	}
}

// WithSleep replaces the wait between attempts
func WithSleep(fn SleepFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithMeterProvider sets the meter provider used for execution metrics
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Executor) {
		e.meterProvider = mp
	}
}

// WithTracerProvider sets the tracer provider used for execution spans
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(e *Executor) {
		e.tracerProvider = tp
	}
}

// WithMailboxSize sets the per-execution event buffer size
func WithMailboxSize(size int) Option {
	return func(e *Executor) {
		e.mailboxSize = size
	}
}

// Executor submits logical requests and drives them to an Outcome.
// It is safe for concurrent use.
type Executor struct {
	transport      http.Transport
	builder        *request.Builder
	validator      *response.Validator
	policy         retry.Policy
	activity       activity.Reporter
	logger         logger.Logger
	sleep          SleepFunc
	meterProvider  metric.MeterProvider
	tracerProvider oteltrace.TracerProvider
	mailboxSize    int

	tracer  oteltrace.Tracer
	metrics *instruments

	deliveries chan func()
	quit       chan struct{}
	closeOnce  sync.Once
	delivered  sync.WaitGroup
}

// New creates an Executor around transport.
func New(transport http.Transport, opts ...Option) *Executor {
	e := &Executor{
		transport:   transport,
		policy:      retry.DefaultPolicy(),
		activity:    activity.Noop{},
		logger:      logger.Nop(),
		sleep:       sleepContext,
		mailboxSize: DefaultMailboxSize,
		deliveries:  make(chan func(), deliveryQueueSize),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.builder == nil {
		e.builder = request.NewBuilder(e.logger)
	}
	if e.validator == nil {
		e.validator = response.NewValidator(nil, nil, e.logger)
	}
	if e.meterProvider == nil {
		e.meterProvider = otel.GetMeterProvider()
	}
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	e.tracer = e.tracerProvider.Tracer(instrumentationName)
	e.metrics = newInstruments(e.meterProvider, e.logger)

	e.delivered.Add(1)
	go e.deliveryLoop()
	return e
}

// Submit starts an execution of req. dec decodes accepted bodies; nil yields the raw body.
func (e *Executor) Submit(ctx context.Context, req request.LogicalRequest, dec response.Decoder) *Execution {
	return e.start(ctx, OpSend, req, dec)
}

// Upload starts a multipart upload of req.File, streaming send progress.
func (e *Executor) Upload(ctx context.Context, req request.LogicalRequest, dec response.Decoder) *Execution {
	return e.start(ctx, OpUpload, req, dec)
}

// Download starts a download, streaming receive progress. The outcome value is
// the response body.
func (e *Executor) Download(ctx context.Context, req request.LogicalRequest) *Execution {
	return e.start(ctx, OpDownload, req, response.Raw)
}

// Do submits req and waits for its value decoded as T. An empty response yields the zero T.
func Do[T any](ctx context.Context, e *Executor, req request.LogicalRequest) (T, error) {
	var zero T
	x := e.Submit(ctx, req, response.JSONDecoder[T]())
	out, err := x.Wait(ctx)
	if err != nil {
		x.Cancel()
		return zero, err
	}
	if out.Err != nil {
		return zero, out.Err
	}
	if out.Value == nil {
		return zero, nil
	}
	v, ok := out.Value.(T)
	if !ok {
		return zero, NewUnknownError("unexpected value type", nil)
	}
	return v, nil
}

// Close stops the delivery goroutine. Callbacks already queued run before it
// returns; later ones are dropped. Executions keep running and can still be
// observed through Events and Wait.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	e.delivered.Wait()
}

func (e *Executor) start(ctx context.Context, op string, req request.LogicalRequest, dec response.Decoder) *Execution {
	execCtx, cancel := context.WithCancel(ctx)
	x := &Execution{
		id:       uuid.NewString(),
		cancel:   cancel,
		mailbox:  newMailbox(e.mailboxSize),
		done:     make(chan struct{}),
		executor: e,
	}
	x.setState(StateBuilding)
	go e.run(execCtx, x, op, req, dec)
	return x
}

func (e *Executor) run(ctx context.Context, x *Execution, op string, req request.LogicalRequest, dec response.Decoder) {
	start := time.Now()
	defer x.cancel()

	ctx = logger.WithExecutionID(ctx, x.id)
	ctx = logger.WithAttemptCounter(ctx)
	ctx = trace.WithRequestID(ctx, trace.EnsureRequestID(ctx))
	ctx, span := e.tracer.Start(ctx, "dataaccess."+op,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("dataaccess.execution.id", x.id),
			attribute.String("http.request.method", string(req.Method)),
		),
	)
	log := e.logger.WithContext(ctx)

	if req.ShowProgress {
		e.activity.Show()
	}

	value, err := e.execute(ctx, x, op, req, dec, span)

	// terminal
	if req.ShowProgress {
		e.activity.Hide()
	}
	if err != nil {
		x.setState(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Err(err).Str("operation", op).Dur("elapsed", time.Since(start)).Msg("Execution failed")
	} else {
		x.setState(StateSucceeded)
		span.SetStatus(codes.Ok, "")
		log.Debug().Str("operation", op).Dur("elapsed", time.Since(start)).Msg("Execution succeeded")
	}
	span.SetAttributes(attribute.Int64("dataaccess.attempts", logger.GetAttemptCount(ctx)))
	span.End()
	e.metrics.recordOutcome(context.WithoutCancel(ctx), op, start, err)

	x.outcome = Outcome{ExecutionID: x.id, Value: value, Err: err}
	x.mailbox.finish(Event{Kind: EventOutcome, Outcome: x.outcome})
	close(x.done)
}

func (e *Executor) execute(ctx context.Context, x *Execution, op string, req request.LogicalRequest, dec response.Decoder, span oteltrace.Span) (any, error) {
	log := e.logger.WithContext(ctx)

	if op == OpUpload && !req.IsMultipart() {
		return nil, NewInvalidTargetError(req.Endpoint, errors.New("upload requires a file"))
	}
	prepared, err := e.builder.Build(ctx, req)
	if err != nil {
		if errors.Is(err, request.ErrInvalidTarget) {
			return nil, NewInvalidTargetError(targetOf(err, req), err)
		}
		return nil, NewUnknownError("failed to build request", err)
	}
	target, err := url.Parse(prepared.URL)
	if err != nil {
		return nil, NewInvalidTargetError(prepared.URL, err)
	}
	span.SetAttributes(attribute.String("url.full", target.Redacted()))

	state := e.policy.NewState()
	for {
		x.setState(StateSending)
		attempt := logger.IncrementAttempt(ctx)

		var progressed atomic.Bool
		progress := func(fraction float64) {
			progressed.Store(true)
			x.mailbox.offer(Event{Kind: EventProgress, Progress: ProgressEvent{ExecutionID: x.id, Fraction: fraction}})
		}

		resp, err := e.send(ctx, op, prepared, progress)
		if err != nil {
			if ctx.Err() != nil {
				return nil, NewTransportError(http.NewTransportError(http.CodeCancelled, op, prepared.URL, ctx.Err()), int(attempt))
			}
			if progressed.Load() {
				// the transfer had started; partial transfers are not resumed
				return nil, NewTransportError(err, int(attempt))
			}
			decision := e.policy.ShouldRetry(state, err)
			if !decision.Retry {
				return nil, NewTransportError(err, int(attempt))
			}

			x.setState(StateRetrying)
			code := http.CodeOf(err)
			e.metrics.recordRetry(ctx, op, code.String())
			span.AddEvent("retry", oteltrace.WithAttributes(
				attribute.Int64("dataaccess.attempt", attempt),
				attribute.String(attrErrorCode, code.String()),
			))
			log.Warn().
				Err(err).
				Int64("attempt", attempt).
				Int("max_attempts", state.MaxAttempts).
				Dur("delay", decision.Delay).
				Msg("Retrying after connectivity failure")

			if err := e.sleep(ctx, decision.Delay); err != nil {
				return nil, NewTransportError(http.NewTransportError(http.CodeCancelled, op, prepared.URL, err), int(attempt))
			}
			continue
		}

		x.setState(StateValidating)
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		result := e.validator.Validate(ctx, resp, target, dec)
		switch result.Kind {
		case response.Valid:
			return result.Value, nil
		case response.RecoverableEmpty:
			return nil, nil
		case response.DecodeFailure:
			return nil, NewDecodeError(result.StatusCode, result.Body, result.Err)
		case response.ProtocolError:
			return nil, NewProtocolError(result.StatusCode, result.Body)
		default:
			return nil, NewUnknownError("unexpected response classification", nil)
		}
	}
}

func (e *Executor) send(ctx context.Context, op string, req *http.Request, progress http.ProgressFunc) (*http.Response, error) {
	switch op {
	case OpUpload:
		return e.transport.SendMultipart(ctx, req, req.Body, progress)
	case OpDownload:
		return e.transport.Download(ctx, req, progress)
	default:
		return e.transport.Send(ctx, req)
	}
}

// forward relays events to fn through the delivery goroutine
func (e *Executor) forward(events <-chan Event, fn func(Event)) {
	go func() {
		for ev := range events {
			select {
			case e.deliveries <- func() { fn(ev) }:
			case <-e.quit:
				return
			}
		}
	}()
}

// deliveryLoop runs every Notify callback, one at a time
func (e *Executor) deliveryLoop() {
	defer e.delivered.Done()
	for {
		select {
		case fn := <-e.deliveries:
			fn()
		case <-e.quit:
			for {
				select {
				case fn := <-e.deliveries:
					fn()
				default:
					return
				}
			}
		}
	}
}

func targetOf(err error, req request.LogicalRequest) string {
	var te *request.TargetError
	if errors.As(err, &te) {
		return te.Target
	}
	return req.Endpoint
}

// sleepContext waits for d, returning early with ctx's error
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
