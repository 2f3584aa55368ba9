// Package domain contains read models for the billing entities this service
// reconciles usage against. The billing engine owns these tables; this side
// only reads them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Account is a billing account. ExternalKey is the identifier the metering
// provider knows this account by (sent upstream as customerId).
type Account struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	ExternalKey string       `gorm:"type:text;not null;uniqueIndex"`
	Name        string       `gorm:"type:text;not null"`
	Currency    string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Bundle groups the subscriptions of one purchased plan line.
type Bundle struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AccountID   snowflake.ID `gorm:"not null;index"`
	ExternalKey string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Bundle) TableName() string { return "bundles" }

// Subscription is one entitlement inside a bundle.
type Subscription struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	BundleID  snowflake.ID      `gorm:"not null;index"`
	AccountID snowflake.ID      `gorm:"not null;index"`
	PlanName  string            `gorm:"type:text"`
	State     string            `gorm:"type:text;not null"`
	StartAt   time.Time         `gorm:"not null"`
	EndAt     *time.Time        `gorm:""`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
