package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindAccountByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindSubscriptionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	BundlesForAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Bundle, error)
	SubscriptionsForBundle(ctx context.Context, db *gorm.DB, bundleID snowflake.ID) ([]Subscription, error)
}
