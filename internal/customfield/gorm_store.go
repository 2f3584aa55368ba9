package customfield

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// New builds the gorm-backed custom field store.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, objectID snowflake.ID, objectType ObjectType) (map[string]string, error) {
	var fields []CustomField
	if err := s.db.WithContext(ctx).
		Where("object_id = ? AND object_type = ?", objectID, objectType).
		Order("id").
		Find(&fields).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field.FieldName] = field.FieldValue
	}
	return values, nil
}

// Module wires the custom field store.
var Module = fx.Module("customfield",
	fx.Provide(New),
)
