// Package sql stores slots as rows of a SQL table through gorm.
package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aretw0/itt/pkg/core"
)

// Slot is the gorm model of one slot.
type Slot struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	Version   int64  `gorm:"column:version;not null"`
	UpdatedAt time.Time
}

// TableName overrides the default table name.
func (Slot) TableName() string {
	return "kv_slots"
}

// KV implements core.Versioned on the kv_slots table.
type KV struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenPostgres opens a gorm connection to the postgres database at dsn.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// NewKV creates a KV on db.
func NewKV(db *gorm.DB, logger *slog.Logger) *KV {
	return &KV{db: db, logger: logger}
}

// Initialize creates or migrates the kv_slots table.
func (k *KV) Initialize(ctx context.Context) error {
	if err := k.db.WithContext(ctx).AutoMigrate(&Slot{}); err != nil {
		return fmt.Errorf("failed to migrate kv_slots: %w", err)
	}
	return nil
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, _, found, err := k.GetVersioned(ctx, key)
	return value, found, err
}

// Set writes value unconditionally and bumps the version.
func (k *KV) Set(ctx context.Context, key, value string) error {
	slot := Slot{Key: key, Value: value, Version: 1, UpdatedAt: time.Now().UTC()}
	result := k.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"version":    gorm.Expr("kv_slots.version + 1"),
			"updated_at": slot.UpdatedAt,
		}),
	}).Create(&slot)
	if result.Error != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, result.Error)
	}
	return nil
}

func (k *KV) GetVersioned(ctx context.Context, key string) (string, int64, bool, error) {
	var slot Slot
	result := k.db.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&slot)
	if result.Error != nil {
		return "", 0, false, fmt.Errorf("failed to read slot %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", 0, false, nil
	}
	return slot.Value, slot.Version, true, nil
}

// CompareAndSet inserts the row when version is 0 and otherwise updates it
// only while its stored version still equals version.
func (k *KV) CompareAndSet(ctx context.Context, key, value string, version int64) error {
	now := time.Now().UTC()
	db := k.db.WithContext(ctx)

	if version == 0 {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Slot{Key: key, Value: value, Version: 1, UpdatedAt: now})
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return core.ErrConflict
			}
			return fmt.Errorf("failed to insert slot %s: %w", key, result.Error)
		}
		if result.RowsAffected == 0 {
			return core.ErrConflict
		}
		return nil
	}

	result := db.Model(&Slot{}).
		Where("key = ? AND version = ?", key, version).
		Updates(map[string]interface{}{
			"value":      value,
			"version":    version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update slot %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		if k.logger != nil {
			k.logger.Debug("stale slot version", "key", key, "version", version)
		}
		return core.ErrConflict
	}
	return nil
}

// ComponentType implements introspection.Component.
func (k *KV) ComponentType() string {
	return "postgres"
}

var (
	_ core.Versioned   = (*KV)(nil)
	_ core.Initializer = (*KV)(nil)
)
