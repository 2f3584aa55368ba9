package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("scope", "account"),
		attribute.String("customer_id", "456"),
		attribute.String("reason", "transport"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_id" {
			t.Fatalf("expected customer_id to be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	ctx := context.Background()
	var m *Metrics
	m.RecordUsageQuery(ctx, "account", "ok")
	m.RecordUpstreamFailure(ctx, "transport")
	m.RecordDroppedRows(ctx, 3, "row_parse")
	m.RecordUnattributedRows(ctx, 1)
	m.RecordMeterCollision(ctx, "BulletsAPI")
}
