package usagesync

import (
	"context"
	"testing"
	"time"

	"github.com/billingbridge/usagebridge/internal/metering"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReconcileAccountAttributesByMeterName(t *testing.T) {
	rows := []metering.UsageRow{
		{ExternalAccountID: "acct-1", MeterName: "BulletsAPI", MeasureValue: 10, SourceTimeMillis: 1682812800000, SourceTimeText: "1682812800000"},
		{ExternalAccountID: "acct-1", MeterName: "RocksAPI", MeasureValue: 3, SourceTimeMillis: 1682812801000, SourceTimeText: "1682812801000"},
	}
	meterMap := map[string]snowflake.ID{
		"BulletsAPI": 11,
		"RocksAPI":   22,
	}

	reconciler := NewReconciler(zap.NewNop(), nil)
	records := reconciler.ReconcileAccount(context.Background(), rows, meterMap)

	assert.Len(t, records, 2)
	assert.Equal(t, snowflake.ID(11), records[0].SubscriptionID)
	assert.Equal(t, "BulletsAPI", records[0].UnitType)
	assert.Equal(t, 10.0, records[0].Amount)
	assert.Equal(t, snowflake.ID(22), records[1].SubscriptionID)
}

func TestReconcileAccountDropsUnmappedMeters(t *testing.T) {
	rows := []metering.UsageRow{
		{MeterName: "BulletsAPI", MeasureValue: 10, SourceTimeMillis: 1682812800000},
		{MeterName: "RocksApi", MeasureValue: 3, SourceTimeMillis: 1682812801000},
	}
	meterMap := map[string]snowflake.ID{"BulletsAPI": 11}

	reconciler := NewReconciler(zap.NewNop(), nil)
	records := reconciler.ReconcileAccount(context.Background(), rows, meterMap)

	// Meter names join case-sensitively; "RocksApi" has no home and is dropped.
	assert.Len(t, records, 1)
	assert.Equal(t, "BulletsAPI", records[0].UnitType)
}

func TestReconcileAccountEmptyInputs(t *testing.T) {
	reconciler := NewReconciler(zap.NewNop(), nil)

	records := reconciler.ReconcileAccount(context.Background(), nil, map[string]snowflake.ID{"BulletsAPI": 11})
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records = reconciler.ReconcileAccount(context.Background(), []metering.UsageRow{
		{MeterName: "BulletsAPI", MeasureValue: 10},
	}, map[string]snowflake.ID{})
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReconcileSubscriptionStampsAllRows(t *testing.T) {
	rows := []metering.UsageRow{
		{MeterName: "BulletsAPI", MeasureValue: 10, SourceTimeMillis: 1682812800000, SourceTimeText: "1682812800000"},
		{MeterName: "BulletsAPI", MeasureValue: 4.5, SourceTimeMillis: 1682812801000, SourceTimeText: "1682812801000"},
	}

	reconciler := NewReconciler(zap.NewNop(), nil)
	records := reconciler.ReconcileSubscription(context.Background(), rows, snowflake.ID(77))

	assert.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, snowflake.ID(77), record.SubscriptionID)
		assert.Equal(t, "BulletsAPI", record.UnitType)
	}
	assert.Equal(t, 4.5, records[1].Amount)
}

func TestRecordFieldMapping(t *testing.T) {
	row := metering.UsageRow{
		ExternalAccountID: "acct-1",
		MeterName:         "BulletsAPI",
		MeasureValue:      2.5,
		SourceTimeMillis:  1681566330000,
		SourceTimeText:    "1681566330000",
	}

	record := toRecord(row, snowflake.ID(5))

	assert.Equal(t, snowflake.ID(5), record.SubscriptionID)
	assert.Equal(t, time.Date(2023, 4, 15, 13, 45, 30, 0, time.UTC), record.RecordDate)
	assert.Equal(t, "BulletsAPI", record.UnitType)
	assert.Equal(t, 2.5, record.Amount)
	// The tracking id is the raw cell text so upstream dedup keys survive
	// formatting quirks like leading zeros.
	assert.Equal(t, "1681566330000", record.TrackingID)
}

func TestTrackingIDPreservesRawCellText(t *testing.T) {
	row := metering.UsageRow{
		MeterName:        "BulletsAPI",
		MeasureValue:     1,
		SourceTimeMillis: 99,
		SourceTimeText:   "0099",
	}

	record := toRecord(row, snowflake.ID(5))

	assert.Equal(t, "0099", record.TrackingID)
	assert.Equal(t, time.UnixMilli(99).UTC(), record.RecordDate)
}
