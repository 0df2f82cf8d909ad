// Package telemetry instruments the HTTP and storage layers with the
// OpenTelemetry API. Exporters are configured by the embedding process; with
// the default global providers every instrument is a no-op.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/Astemirdum/library-catalog"

	MetricRequestDuration   = "http.request.duration.ms"
	MetricRequests          = "http.server.requests"
	MetricActiveConnections = "db.connections.active"

	unmatchedRoute = "unmatched"
)

type Telemetry struct {
	tracer          trace.Tracer
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
}

func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)
	duration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricRequestDuration, err)
	}
	count, err := meter.Int64Counter(MetricRequests,
		metric.WithUnit("{request}"),
		metric.WithDescription("Total number of HTTP requests handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricRequests, err)
	}
	return &Telemetry{
		tracer:          tp.Tracer(instrumentationName),
		requestDuration: duration,
		requestCount:    count,
	}, nil
}

func (t *Telemetry) Tracer() trace.Tracer {
	return t.tracer
}

// Middleware opens a server span per request and records request duration
// and count keyed by method, route pattern and status.
func (t *Telemetry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()
			ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.target", req.URL.Path),
				),
			)
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				span.RecordError(err)
				// commit the response so the status below is the one sent
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			attrs := []attribute.KeyValue{
				attribute.String("http.method", req.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", status),
			}
			span.SetAttributes(attrs...)
			if status >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
			}

			elapsed := float64(time.Since(start).Microseconds()) / 1000
			t.requestDuration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
			t.requestCount.Add(ctx, 1, metric.WithAttributes(append(attrs,
				attribute.String("http.status_category", fmt.Sprintf("%dxx", status/100)))...))
			return err
		}
	}
}

// StartDBSpan opens a client span for one SQL statement.
func StartDBSpan(ctx context.Context, tracer trace.Tracer, name, system, statement string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.statement", statement),
		),
	)
}

func FinishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type DBStatser interface {
	Stats() sql.DBStats
}

// ObserveDBConnections reports the number of in-use pool connections.
func ObserveDBConnections(mp metric.MeterProvider, db DBStatser, dbName string) (metric.Registration, error) {
	meter := mp.Meter(instrumentationName)
	active, err := meter.Int64ObservableUpDownCounter(MetricActiveConnections,
		metric.WithUnit("1"),
		metric.WithDescription("Active database connections"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricActiveConnections, err)
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(active, int64(db.Stats().InUse), metric.WithAttributes(attribute.String("db.name", dbName)))
		return nil
	}, active)
}
