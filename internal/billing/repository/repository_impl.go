package repository

import (
	"context"

	"github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the gorm-backed billing repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FindAccountByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	if err := db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindSubscriptionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	if err := db.WithContext(ctx).First(&subscription, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) BundlesForAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]domain.Bundle, error) {
	var bundles []domain.Bundle
	if err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *repository) SubscriptionsForBundle(ctx context.Context, db *gorm.DB, bundleID snowflake.ID) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	if err := db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Order("id").
		Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}
