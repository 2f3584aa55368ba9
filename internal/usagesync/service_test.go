package usagesync

import (
	"context"
	"testing"
	"time"

	billingdomain "github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/billingbridge/usagebridge/internal/clock"
	"github.com/billingbridge/usagebridge/internal/customfield"
	"github.com/billingbridge/usagebridge/internal/metering"
	"github.com/billingbridge/usagebridge/internal/tenantconfig"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2023, 4, 15, 13, 45, 30, 0, time.UTC)

func newTestService(t *testing.T, billing *billingMock, fields *fieldsMock, stub *fetcherStub) *Service {
	t.Helper()
	t.Setenv(tenantconfig.EnvAPIKey, "test-api-key")

	tenants, err := tenantconfig.NewStore("", zap.NewNop())
	require.NoError(t, err)

	svc := New(Params{
		Billing: billing,
		Fields:  fields,
		Tenants: tenants,
		Clock:   clock.NewFakeClock(testNow),
		Log:     zap.NewNop(),
	}).(*Service)
	svc.newFetcher = func(cfg metering.Config) usageFetcher { return stub }
	return svc
}

func testAccount(id int64) *billingdomain.Account {
	return &billingdomain.Account{
		ID:          snowflake.ID(id),
		TenantID:    uuid.MustParse("6a1f8e60-0000-4000-8000-000000000001"),
		ExternalKey: "acct-external-key",
		Name:        "Acme",
		Currency:    "USD",
	}
}

func TestGetUsageForAccountNilDatesReturnEmpty(t *testing.T) {
	stub := &fetcherStub{}
	svc := newTestService(t, &billingMock{}, &fieldsMock{}, stub)

	end := testNow
	records := svc.GetUsageForAccount(context.Background(), 1, nil, &end)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	start := testNow.Add(-24 * time.Hour)
	records = svc.GetUsageForAccount(context.Background(), 1, &start, nil)
	assert.Empty(t, records)

	assert.Zero(t, stub.accountCalls)
}

func TestGetUsageForAccountInvertedWindowReturnsEmpty(t *testing.T) {
	stub := &fetcherStub{}
	svc := newTestService(t, &billingMock{}, &fieldsMock{}, stub)

	start := testNow
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForAccount(context.Background(), 1, &start, &end)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, stub.accountCalls)
}

func TestGetUsageForAccountAttributesRowsByMeterTag(t *testing.T) {
	ctx := context.Background()
	accountID := snowflake.ID(1)
	account := testAccount(1)

	billing := &billingMock{}
	billing.On("Account", ctx, accountID).Return(account, nil)
	billing.On("SubscriptionsForAccount", ctx, accountID).Return([]billingdomain.Subscription{
		subscription(10, accountID),
	}, nil)

	fields := &fieldsMock{}
	fields.On("Get", ctx, snowflake.ID(10), customfield.ObjectTypeSubscription).
		Return(map[string]string{"measure_name": "BulletsAPI"}, nil)

	stub := &fetcherStub{rows: []metering.UsageRow{
		{ExternalAccountID: "acct-external-key", MeterName: "BulletsAPI", MeasureValue: 12, SourceTimeMillis: 1681566330000, SourceTimeText: "1681566330000"},
		{ExternalAccountID: "acct-external-key", MeterName: "RocksApi", MeasureValue: 7, SourceTimeMillis: 1681566331000, SourceTimeText: "1681566331000"},
	}}
	svc := newTestService(t, billing, fields, stub)

	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForAccount(ctx, accountID, &start, &end)

	require.Len(t, records, 1)
	assert.Equal(t, snowflake.ID(10), records[0].SubscriptionID)
	assert.Equal(t, "BulletsAPI", records[0].UnitType)
	assert.Equal(t, 12.0, records[0].Amount)

	assert.Equal(t, 1, stub.accountCalls)
	assert.Equal(t, "acct-external-key", stub.gotExternalKey)
	assert.Equal(t, start, stub.gotStart)
	assert.Equal(t, end, stub.gotEnd)
}

func TestGetUsageForAccountClampsFutureWindow(t *testing.T) {
	ctx := context.Background()
	accountID := snowflake.ID(1)

	billing := &billingMock{}
	billing.On("Account", ctx, accountID).Return(testAccount(1), nil)
	billing.On("SubscriptionsForAccount", ctx, accountID).
		Return([]billingdomain.Subscription{}, nil)

	stub := &fetcherStub{}
	svc := newTestService(t, billing, &fieldsMock{}, stub)

	start := testNow.Add(time.Hour)
	end := testNow.Add(48 * time.Hour)
	records := svc.GetUsageForAccount(ctx, accountID, &start, &end)

	assert.Empty(t, records)
	assert.Equal(t, 1, stub.accountCalls)
	assert.Equal(t, time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), stub.gotStart)
	assert.Equal(t, testNow, stub.gotEnd)
}

func TestGetUsageForAccountLookupFailureReturnsEmpty(t *testing.T) {
	ctx := context.Background()

	billing := &billingMock{}
	billing.On("Account", ctx, snowflake.ID(1)).Return(nil, billingdomain.ErrAccountNotFound)

	stub := &fetcherStub{}
	svc := newTestService(t, billing, &fieldsMock{}, stub)

	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForAccount(ctx, 1, &start, &end)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, stub.accountCalls)
}

func TestGetUsageForAccountUnconfiguredTenantReturnsEmpty(t *testing.T) {
	ctx := context.Background()

	billing := &billingMock{}
	billing.On("Account", ctx, snowflake.ID(1)).Return(testAccount(1), nil)

	stub := &fetcherStub{}
	svc := newTestService(t, billing, &fieldsMock{}, stub)
	// Blank out the env fallback that newTestService installs.
	t.Setenv(tenantconfig.EnvAPIKey, "")

	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForAccount(ctx, 1, &start, &end)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, stub.accountCalls)
}

func TestGetUsageForSubscriptionScopesFetchToTaggedMeter(t *testing.T) {
	ctx := context.Background()
	accountID := snowflake.ID(1)
	sub := subscription(10, accountID)

	billing := &billingMock{}
	billing.On("Subscription", ctx, snowflake.ID(10)).Return(&sub, nil)
	billing.On("Account", ctx, accountID).Return(testAccount(1), nil)

	fields := &fieldsMock{}
	fields.On("Get", ctx, snowflake.ID(10), customfield.ObjectTypeSubscription).
		Return(map[string]string{"measure_name": "BulletsAPI"}, nil)

	stub := &fetcherStub{rows: []metering.UsageRow{
		{MeterName: "BulletsAPI", MeasureValue: 12, SourceTimeMillis: 1681566330000, SourceTimeText: "1681566330000"},
		{MeterName: "BulletsAPI", MeasureValue: 3, SourceTimeMillis: 1681566331000, SourceTimeText: "1681566331000"},
	}}
	svc := newTestService(t, billing, fields, stub)

	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForSubscription(ctx, 10, &start, &end)

	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, snowflake.ID(10), record.SubscriptionID)
		assert.Equal(t, "BulletsAPI", record.UnitType)
	}

	assert.Equal(t, 1, stub.subscriptionCalls)
	assert.Equal(t, "BulletsAPI", stub.gotMeterName)
	assert.Equal(t, "acct-external-key", stub.gotExternalKey)
}

func TestGetUsageForSubscriptionUntaggedReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	sub := subscription(10, 1)

	billing := &billingMock{}
	billing.On("Subscription", ctx, snowflake.ID(10)).Return(&sub, nil)

	fields := &fieldsMock{}
	fields.On("Get", ctx, snowflake.ID(10), customfield.ObjectTypeSubscription).
		Return(map[string]string{}, nil)

	stub := &fetcherStub{}
	svc := newTestService(t, billing, fields, stub)

	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)
	records := svc.GetUsageForSubscription(ctx, 10, &start, &end)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, stub.subscriptionCalls)
}

func TestGetUsageForSubscriptionNilDatesReturnEmpty(t *testing.T) {
	stub := &fetcherStub{}
	svc := newTestService(t, &billingMock{}, &fieldsMock{}, stub)

	records := svc.GetUsageForSubscription(context.Background(), 10, nil, nil)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, stub.subscriptionCalls)
}
