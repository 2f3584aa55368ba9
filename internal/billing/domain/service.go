package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Account returns the billing account, including the external key the
	// metering provider identifies it by.
	Account(ctx context.Context, id snowflake.ID) (*Account, error)
	// Subscription returns a single subscription by id.
	Subscription(ctx context.Context, id snowflake.ID) (*Subscription, error)
	// SubscriptionsForAccount enumerates every bundle of the account and
	// flattens their subscriptions into one list.
	SubscriptionsForAccount(ctx context.Context, accountID snowflake.ID) ([]Subscription, error)
}

var (
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
