package usagesync

import (
	"context"
	"time"

	"github.com/billingbridge/usagebridge/internal/metering"
	obsmetrics "github.com/billingbridge/usagebridge/internal/observability/metrics"
	"github.com/billingbridge/usagebridge/internal/usagesync/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Reconciler turns projected usage rows into billing records.
type Reconciler struct {
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

// NewReconciler builds a usage reconciler.
func NewReconciler(log *zap.Logger, metrics *obsmetrics.Metrics) *Reconciler {
	return &Reconciler{
		log:     log.Named("usagesync.reconciler"),
		metrics: metrics,
	}
}

// ReconcileAccount attributes each row to a subscription through the meter
// map. Rows whose meter has no mapped subscription are dropped: unbillable
// usage must not attach to the wrong subscription.
func (r *Reconciler) ReconcileAccount(ctx context.Context, rows []metering.UsageRow, meterMap map[string]snowflake.ID) []domain.RawUsageRecord {
	records := make([]domain.RawUsageRecord, 0, len(rows))
	unattributed := 0
	for _, row := range rows {
		subscriptionID, ok := meterMap[row.MeterName]
		if !ok {
			unattributed++
			r.log.Warn("usage row has no attributable subscription",
				zap.String("meter_name", row.MeterName),
			)
			continue
		}
		records = append(records, toRecord(row, subscriptionID))
	}
	if unattributed > 0 {
		r.metrics.RecordUnattributedRows(ctx, unattributed)
	}
	return records
}

// ReconcileSubscription stamps every row with the known subscription id;
// the upstream query was already scoped to that subscription's meter.
func (r *Reconciler) ReconcileSubscription(ctx context.Context, rows []metering.UsageRow, subscriptionID snowflake.ID) []domain.RawUsageRecord {
	_ = ctx
	records := make([]domain.RawUsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row, subscriptionID))
	}
	return records
}

func toRecord(row metering.UsageRow, subscriptionID snowflake.ID) domain.RawUsageRecord {
	return domain.RawUsageRecord{
		SubscriptionID: subscriptionID,
		RecordDate:     time.UnixMilli(row.SourceTimeMillis).UTC(),
		UnitType:       row.MeterName,
		Amount:         row.MeasureValue,
		TrackingID:     row.SourceTimeText,
	}
}
