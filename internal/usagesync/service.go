package usagesync

import (
	"context"
	"time"

	billingdomain "github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/billingbridge/usagebridge/internal/clock"
	"github.com/billingbridge/usagebridge/internal/customfield"
	"github.com/billingbridge/usagebridge/internal/metering"
	obsmetrics "github.com/billingbridge/usagebridge/internal/observability/metrics"
	"github.com/billingbridge/usagebridge/internal/tenantconfig"
	"github.com/billingbridge/usagebridge/internal/timewindow"
	"github.com/billingbridge/usagebridge/internal/usagesync/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// usageFetcher is what the service needs from a metering client. Tests
// substitute a stub; production builds a fresh metering.Client per call.
type usageFetcher interface {
	FetchAccountUsage(ctx context.Context, externalKey string, start, end time.Time) []metering.UsageRow
	FetchSubscriptionUsage(ctx context.Context, externalKey, meterName string, start, end time.Time) []metering.UsageRow
}

type Params struct {
	fx.In

	Billing billingdomain.Service
	Fields  customfield.Store
	Tenants *tenantconfig.Store
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	billing    billingdomain.Service
	tenants    *tenantconfig.Store
	clk        clock.Clock
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
	resolver   *Resolver
	reconciler *Reconciler
	newFetcher func(cfg metering.Config) usageFetcher
}

func New(p Params) domain.Service {
	return &Service{
		billing:    p.Billing,
		tenants:    p.Tenants,
		clk:        p.Clock,
		log:        p.Log.Named("usagesync.service"),
		metrics:    p.Metrics,
		resolver:   NewResolver(p.Billing, p.Fields, p.Log, p.Metrics),
		reconciler: NewReconciler(p.Log, p.Metrics),
		newFetcher: func(cfg metering.Config) usageFetcher {
			return metering.NewClient(cfg, p.Log, p.Metrics)
		},
	}
}

// GetUsageForAccount fetches the account's usage for the window and joins it
// against the account's meter map. Every failure path returns an empty,
// non-nil slice.
func (s *Service) GetUsageForAccount(ctx context.Context, accountID snowflake.ID, startDate, endDate *time.Time) []domain.RawUsageRecord {
	s.log.Info("usage query",
		zap.String("scope", "account"),
		zap.String("account_id", accountID.String()),
		zap.Timep("start", startDate),
		zap.Timep("end", endDate),
	)

	window := timewindow.Window{Start: startDate, End: endDate}
	if err := window.Validate(); err != nil {
		s.log.Warn("usage query rejected", zap.Error(err))
		s.metrics.RecordUsageQuery(ctx, "account", "invalid_window")
		return []domain.RawUsageRecord{}
	}
	start, end := window.Sanitized(s.clk)

	account, err := s.billing.Account(ctx, accountID)
	if err != nil {
		s.log.Error("account lookup failed",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		s.metrics.RecordUsageQuery(ctx, "account", "account_lookup_failed")
		return []domain.RawUsageRecord{}
	}

	fetcher, ok := s.fetcherFor(ctx, account)
	if !ok {
		s.metrics.RecordUsageQuery(ctx, "account", "unconfigured_tenant")
		return []domain.RawUsageRecord{}
	}

	rows := fetcher.FetchAccountUsage(ctx, account.ExternalKey, start, end)
	meterMap := s.resolver.MeterMap(ctx, accountID)
	records := s.reconciler.ReconcileAccount(ctx, rows, meterMap)

	s.metrics.RecordUsageQuery(ctx, "account", "ok")
	return records
}

// GetUsageForSubscription fetches usage scoped to the subscription's tagged
// meter. A subscription without a measure_name tag cannot be attributed and
// short-circuits to empty.
func (s *Service) GetUsageForSubscription(ctx context.Context, subscriptionID snowflake.ID, startDate, endDate *time.Time) []domain.RawUsageRecord {
	s.log.Info("usage query",
		zap.String("scope", "subscription"),
		zap.String("subscription_id", subscriptionID.String()),
		zap.Timep("start", startDate),
		zap.Timep("end", endDate),
	)

	window := timewindow.Window{Start: startDate, End: endDate}
	if err := window.Validate(); err != nil {
		s.log.Warn("usage query rejected", zap.Error(err))
		s.metrics.RecordUsageQuery(ctx, "subscription", "invalid_window")
		return []domain.RawUsageRecord{}
	}
	start, end := window.Sanitized(s.clk)

	subscription, err := s.billing.Subscription(ctx, subscriptionID)
	if err != nil {
		s.log.Error("subscription lookup failed",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Error(err),
		)
		s.metrics.RecordUsageQuery(ctx, "subscription", "subscription_lookup_failed")
		return []domain.RawUsageRecord{}
	}

	meterName, ok := s.resolver.MeterNameFor(ctx, subscriptionID)
	if !ok {
		s.log.Warn("subscription has no measure_name tag",
			zap.String("subscription_id", subscriptionID.String()),
		)
		s.metrics.RecordUsageQuery(ctx, "subscription", "untagged_subscription")
		return []domain.RawUsageRecord{}
	}

	account, err := s.billing.Account(ctx, subscription.AccountID)
	if err != nil {
		s.log.Error("account lookup failed",
			zap.String("account_id", subscription.AccountID.String()),
			zap.Error(err),
		)
		s.metrics.RecordUsageQuery(ctx, "subscription", "account_lookup_failed")
		return []domain.RawUsageRecord{}
	}

	fetcher, ok := s.fetcherFor(ctx, account)
	if !ok {
		s.metrics.RecordUsageQuery(ctx, "subscription", "unconfigured_tenant")
		return []domain.RawUsageRecord{}
	}

	rows := fetcher.FetchSubscriptionUsage(ctx, account.ExternalKey, meterName, start, end)
	records := s.reconciler.ReconcileSubscription(ctx, rows, subscriptionID)

	s.metrics.RecordUsageQuery(ctx, "subscription", "ok")
	return records
}

func (s *Service) fetcherFor(ctx context.Context, account *billingdomain.Account) (usageFetcher, bool) {
	_ = ctx
	creds := s.tenants.For(account.TenantID)
	if !creds.Configured() {
		s.log.Error("tenant has no metering credentials",
			zap.String("tenant_id", account.TenantID.String()),
		)
		return nil, false
	}
	return s.newFetcher(metering.Config{BaseURL: creds.BaseURL, APIKey: creds.APIKey}), true
}
