// Package domain defines the usage records handed to the billing engine.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MeasureNameField is the custom-field name carrying the meter a
// subscription bills against.
const MeasureNameField = "measure_name"

// RawUsageRecord is one reconciled usage event, ready for rating. The
// billing engine owns dedup, keyed on TrackingID.
type RawUsageRecord struct {
	SubscriptionID snowflake.ID `json:"subscription_id"`
	RecordDate     time.Time    `json:"record_date"`
	UnitType       string       `json:"unit_type"`
	Amount         float64      `json:"amount"`
	TrackingID     string       `json:"tracking_id"`
}

// Service is the inbound usage boundary. Both calls are best-effort: any
// invalid input or internal failure yields an empty list, never an error,
// so a metering outage can never block an invoicing run.
type Service interface {
	GetUsageForAccount(ctx context.Context, accountID snowflake.ID, startDate, endDate *time.Time) []RawUsageRecord
	GetUsageForSubscription(ctx context.Context, subscriptionID snowflake.ID, startDate, endDate *time.Time) []RawUsageRecord
}
