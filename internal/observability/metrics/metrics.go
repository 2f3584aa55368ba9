package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
//
// The inbound usage contract degrades every failure to an empty result, so
// these counters are the only place where "zero usage" and "upstream broken"
// remain distinguishable.
type Metrics struct {
	usageQueries      metric.Int64Counter
	upstreamFailures  metric.Int64Counter
	malformedPayloads metric.Int64Counter
	droppedRows       metric.Int64Counter
	unattributedRows  metric.Int64Counter
	meterCollisions   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "usagebridge"
	}
	meter := provider.Meter(name)

	usageQueries, err := meter.Int64Counter("usagebridge_usage_queries_total")
	if err != nil {
		return nil, err
	}
	upstreamFailures, err := meter.Int64Counter("usagebridge_upstream_failures_total")
	if err != nil {
		return nil, err
	}
	malformedPayloads, err := meter.Int64Counter("usagebridge_malformed_payloads_total")
	if err != nil {
		return nil, err
	}
	droppedRows, err := meter.Int64Counter("usagebridge_dropped_rows_total")
	if err != nil {
		return nil, err
	}
	unattributedRows, err := meter.Int64Counter("usagebridge_unattributed_rows_total")
	if err != nil {
		return nil, err
	}
	meterCollisions, err := meter.Int64Counter("usagebridge_meter_collisions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		usageQueries:      usageQueries,
		upstreamFailures:  upstreamFailures,
		malformedPayloads: malformedPayloads,
		droppedRows:       droppedRows,
		unattributedRows:  unattributedRows,
		meterCollisions:   meterCollisions,
	}, nil
}

// RecordUsageQuery increments usage query counts per scope (account/subscription).
func (m *Metrics) RecordUsageQuery(ctx context.Context, scope, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("scope", strings.TrimSpace(scope)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.usageQueries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUpstreamFailure increments upstream transport/decode failure counts.
func (m *Metrics) RecordUpstreamFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.upstreamFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMalformedPayload increments undecodable-response counts.
func (m *Metrics) RecordMalformedPayload(ctx context.Context) {
	if m == nil {
		return
	}
	m.malformedPayloads.Add(ctx, 1)
}

// RecordDroppedRows adds rows skipped for unparsable cells.
func (m *Metrics) RecordDroppedRows(ctx context.Context, n int, reason string) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.droppedRows.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordUnattributedRows adds rows whose meter resolved to no subscription.
func (m *Metrics) RecordUnattributedRows(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unattributedRows.Add(ctx, int64(n))
}

// RecordMeterCollision increments duplicate meter-name tag counts.
func (m *Metrics) RecordMeterCollision(ctx context.Context, meterName string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("meter_name", strings.TrimSpace(meterName)))
	m.meterCollisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"scope":      {},
	"outcome":    {},
	"reason":     {},
	"meter_name": {},
	"tenant_id":  {},
}

// FilterAttributes drops labels that would explode metric cardinality or leak
// customer identifiers.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; ok {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
