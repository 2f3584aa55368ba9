package service

import (
	"context"
	"errors"

	"github.com/billingbridge/usagebridge/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("billing.service"),
		repo: p.Repo,
	}
}

func (s *Service) Account(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) Subscription(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	subscription, err := s.repo.FindSubscriptionByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return subscription, nil
}

func (s *Service) SubscriptionsForAccount(ctx context.Context, accountID snowflake.ID) ([]domain.Subscription, error) {
	bundles, err := s.repo.BundlesForAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	subscriptions := make([]domain.Subscription, 0, len(bundles))
	for _, bundle := range bundles {
		batch, err := s.repo.SubscriptionsForBundle(ctx, s.db, bundle.ID)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, batch...)
	}
	return subscriptions, nil
}
