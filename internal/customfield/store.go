// Package customfield exposes the key/value tags the billing engine attaches
// to its objects. Usage attribution reads the meter name for a subscription
// from here; the tagging mechanism itself belongs to the billing engine.
package customfield

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ObjectType scopes a tag to one kind of billing object.
type ObjectType string

const (
	ObjectTypeAccount      ObjectType = "ACCOUNT"
	ObjectTypeSubscription ObjectType = "SUBSCRIPTION"
)

// Store reads the tags attached to a billing object.
type Store interface {
	// Get returns every field attached to the object as a name -> value map.
	Get(ctx context.Context, objectID snowflake.ID, objectType ObjectType) (map[string]string, error)
}

// CustomField is one tag row.
type CustomField struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ObjectID   snowflake.ID `gorm:"not null;index:idx_custom_fields_object,priority:1"`
	ObjectType ObjectType   `gorm:"type:text;not null;index:idx_custom_fields_object,priority:2"`
	FieldName  string       `gorm:"type:text;not null"`
	FieldValue string       `gorm:"type:text;not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CustomField) TableName() string { return "custom_fields" }
