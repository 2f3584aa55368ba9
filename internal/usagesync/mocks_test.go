package usagesync

import (
	"context"
	"time"

	billingdomain "github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/billingbridge/usagebridge/internal/customfield"
	"github.com/billingbridge/usagebridge/internal/metering"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/mock"
)

// -- Mocks --

type billingMock struct {
	mock.Mock
}

func (m *billingMock) Account(ctx context.Context, id snowflake.ID) (*billingdomain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingdomain.Account), args.Error(1)
}

func (m *billingMock) Subscription(ctx context.Context, id snowflake.ID) (*billingdomain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingdomain.Subscription), args.Error(1)
}

func (m *billingMock) SubscriptionsForAccount(ctx context.Context, accountID snowflake.ID) ([]billingdomain.Subscription, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingdomain.Subscription), args.Error(1)
}

type fieldsMock struct {
	mock.Mock
}

func (m *fieldsMock) Get(ctx context.Context, objectID snowflake.ID, objectType customfield.ObjectType) (map[string]string, error) {
	args := m.Called(ctx, objectID, objectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// fetcherStub returns canned rows and records what it was asked for.
type fetcherStub struct {
	rows []metering.UsageRow

	accountCalls      int
	subscriptionCalls int
	gotExternalKey    string
	gotMeterName      string
	gotStart          time.Time
	gotEnd            time.Time
}

func (f *fetcherStub) FetchAccountUsage(ctx context.Context, externalKey string, start, end time.Time) []metering.UsageRow {
	f.accountCalls++
	f.gotExternalKey = externalKey
	f.gotStart = start
	f.gotEnd = end
	return f.rows
}

func (f *fetcherStub) FetchSubscriptionUsage(ctx context.Context, externalKey, meterName string, start, end time.Time) []metering.UsageRow {
	f.subscriptionCalls++
	f.gotExternalKey = externalKey
	f.gotMeterName = meterName
	f.gotStart = start
	f.gotEnd = end
	return f.rows
}
