// Package usagesync joins metering-provider usage rows with billing
// subscriptions to produce the records the billing engine rates.
package usagesync

import (
	"context"
	"strings"

	billingdomain "github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/billingbridge/usagebridge/internal/customfield"
	obsmetrics "github.com/billingbridge/usagebridge/internal/observability/metrics"
	"github.com/billingbridge/usagebridge/internal/usagesync/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Resolver maps meter names to the subscriptions that bill against them,
// via the measure_name custom field.
type Resolver struct {
	billing billingdomain.Service
	fields  customfield.Store
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

// NewResolver builds a subscription resolver.
func NewResolver(billing billingdomain.Service, fields customfield.Store, log *zap.Logger, metrics *obsmetrics.Metrics) *Resolver {
	return &Resolver{
		billing: billing,
		fields:  fields,
		log:     log.Named("usagesync.resolver"),
		metrics: metrics,
	}
}

// MeterMap builds the meter-name -> subscription-id mapping for an account.
// Subscriptions without a measure_name tag contribute nothing. Any lookup
// failure collapses the whole map to empty: a partial map would silently
// misattribute usage, an empty one only under-bills and is visible in logs.
func (r *Resolver) MeterMap(ctx context.Context, accountID snowflake.ID) map[string]snowflake.ID {
	subscriptions, err := r.billing.SubscriptionsForAccount(ctx, accountID)
	if err != nil {
		r.log.Error("subscription enumeration failed",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		return map[string]snowflake.ID{}
	}

	meterMap := make(map[string]snowflake.ID, len(subscriptions))
	for _, subscription := range subscriptions {
		meterName, ok, err := r.meterName(ctx, subscription.ID)
		if err != nil {
			r.log.Error("custom field lookup failed",
				zap.String("subscription_id", subscription.ID.String()),
				zap.Error(err),
			)
			return map[string]snowflake.ID{}
		}
		if !ok {
			continue
		}
		if previous, exists := meterMap[meterName]; exists {
			// Two subscriptions claiming one meter is almost certainly a
			// tagging mistake. Last one wins, matching how the map has
			// always behaved, but loudly.
			r.log.Warn("duplicate measure_name tag, later subscription wins",
				zap.String("meter_name", meterName),
				zap.String("previous_subscription_id", previous.String()),
				zap.String("subscription_id", subscription.ID.String()),
			)
			r.metrics.RecordMeterCollision(ctx, meterName)
		}
		meterMap[meterName] = subscription.ID
	}
	return meterMap
}

// MeterNameFor returns the measure_name tag of a single subscription.
func (r *Resolver) MeterNameFor(ctx context.Context, subscriptionID snowflake.ID) (string, bool) {
	meterName, ok, err := r.meterName(ctx, subscriptionID)
	if err != nil {
		r.log.Error("custom field lookup failed",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Error(err),
		)
		return "", false
	}
	return meterName, ok
}

func (r *Resolver) meterName(ctx context.Context, subscriptionID snowflake.ID) (string, bool, error) {
	fields, err := r.fields.Get(ctx, subscriptionID, customfield.ObjectTypeSubscription)
	if err != nil {
		return "", false, err
	}
	meterName := strings.TrimSpace(fields[domain.MeasureNameField])
	if meterName == "" {
		return "", false, nil
	}
	return meterName, true, nil
}
