package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

// GormMutationStore is the database-backed mutation queue.
type GormMutationStore struct {
	db *gorm.DB
}

func NewGormMutationStore(db *gorm.DB) *GormMutationStore {
	return &GormMutationStore{db: db}
}

func (s *GormMutationStore) Append(m *models.PendingMutation) error {
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("appending mutation: %w", err)
	}
	return nil
}

func (s *GormMutationStore) RemoveMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.Model(&models.PendingMutation{}).
		Where("id IN ? AND synced_at IS NULL", ids).
		Update("synced_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("resolving mutations: %w", err)
	}
	return nil
}

func (s *GormMutationStore) ListAll() ([]models.PendingMutation, error) {
	var pending []models.PendingMutation
	err := s.db.Where("synced_at IS NULL").Order("seq ASC").Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending mutations: %w", err)
	}
	return pending, nil
}

func (s *GormMutationStore) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := s.db.Where("synced_at IS NOT NULL AND synced_at < ?", cutoff).
		Delete(&models.PendingMutation{})
	if res.Error != nil {
		return 0, fmt.Errorf("pruning resolved mutations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GormKV is the database-backed snapshot cache.
type GormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

func (s *GormKV) Get(key string, dest interface{}) (bool, error) {
	var entry models.CacheEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache %q: %w", key, err)
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return false, fmt.Errorf("decoding cache %q: %w", key, err)
	}
	return true, nil
}

func (s *GormKV) Put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache %q: %w", key, err)
	}
	entry := models.CacheEntry{
		Key:       key,
		Value:     datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("writing cache %q: %w", key, err)
	}
	return nil
}

func (s *GormKV) Delete(key string) error {
	if err := s.db.Delete(&models.CacheEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("deleting cache %q: %w", key, err)
	}
	return nil
}
