package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexibridge/internal/dictionary"
	"lexibridge/internal/globaltime"
	"lexibridge/internal/translation"
)

// Sync states for a history record.
const (
	SyncStatusSynced    = "synced"
	SyncStatusLocalOnly = "local_only"
)

// maxRecords caps the stored history. Oldest entries fall off first.
const maxRecords = 100

var ErrIndexOutOfRange = errors.New("history index out of range")

// Record is one stored translation lookup.
type Record struct {
	ID           int64              `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RecordUUID   string             `gorm:"column:record_uuid;type:uuid;not null;unique" json:"id"`
	Original     string             `gorm:"column:original;type:text;not null" json:"original"`
	Translation  string             `gorm:"column:translation;type:text;not null" json:"translation"`
	SourceLang   string             `gorm:"column:source_lang;type:text;not null" json:"sourceLang"`
	TargetLang   string             `gorm:"column:target_lang;type:text;not null" json:"targetLang"`
	Translations []translation.Unit `gorm:"column:translations;type:text;serializer:json" json:"translations,omitempty"`
	Dictionary   *dictionary.Entry  `gorm:"column:dictionary_data;type:text;serializer:json" json:"dictionaryData,omitempty"`
	Count        int                `gorm:"column:count;not null;default:1" json:"count"`
	SyncStatus   string             `gorm:"column:sync_status;type:text;not null;default:local_only" json:"syncStatus"`
	Timestamp    time.Time          `gorm:"column:timestamp;not null" json:"timestamp"`
	CreatedAt    time.Time          `gorm:"column:created_at;not null" json:"-"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;not null" json:"-"`
}

func (Record) TableName() string { return "translation_history" }

// Store persists history records.
type Store struct {
	gdb *gorm.DB
}

func NewStore(gdb *gorm.DB) (*Store, error) {
	if gdb == nil {
		return nil, fmt.Errorf("gorm handle is nil")
	}
	if err := gdb.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("auto-migrate history schema: %w", err)
	}
	return &Store{gdb: gdb}, nil
}

// AddParams describes a lookup to record.
type AddParams struct {
	Original     string
	Translation  string
	SourceLang   string
	TargetLang   string
	Translations []translation.Unit
	Dictionary   *dictionary.Entry
	SyncStatus   string
}

// Add records a lookup. A record with the same original text is merged:
// its count grows, its translation and timestamp refresh, and it moves
// to the front of the listing. New records past the cap evict the
// oldest entries.
func (s *Store) Add(ctx context.Context, params AddParams) (*Record, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}

	original := strings.TrimSpace(params.Original)
	translation := strings.TrimSpace(params.Translation)
	if original == "" || translation == "" {
		return nil, fmt.Errorf("original and translation are required")
	}

	syncStatus := params.SyncStatus
	if syncStatus != SyncStatusSynced {
		syncStatus = SyncStatusLocalOnly
	}
	now := globaltime.UTC()

	var record Record
	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("original = ?", original).First(&record).Error
		switch {
		case err == nil:
			record.Count++
			record.Translation = translation
			record.SourceLang = params.SourceLang
			record.TargetLang = params.TargetLang
			record.Translations = params.Translations
			record.Dictionary = params.Dictionary
			record.SyncStatus = syncStatus
			record.Timestamp = now
			record.UpdatedAt = now
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("update history record: %w", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = Record{
				RecordUUID:   uuid.NewString(),
				Original:     original,
				Translation:  translation,
				SourceLang:   params.SourceLang,
				TargetLang:   params.TargetLang,
				Translations: params.Translations,
				Dictionary:   params.Dictionary,
				Count:        1,
				SyncStatus:   syncStatus,
				Timestamp:    now,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("insert history record: %w", err)
			}
			return trimToCap(tx)
		default:
			return fmt.Errorf("look up history record: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func trimToCap(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&Record{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count history records: %w", err)
	}
	if count <= maxRecords {
		return nil
	}

	var stale []int64
	err := tx.Model(&Record{}).
		Order("timestamp DESC, id DESC").
		Limit(int(count) - maxRecords).
		Offset(maxRecords).
		Pluck("id", &stale).Error
	if err != nil {
		return fmt.Errorf("list stale history records: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	if err := tx.Delete(&Record{}, stale).Error; err != nil {
		return fmt.Errorf("evict stale history records: %w", err)
	}
	return nil
}

// List returns records most recent first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}
	var records []Record
	err := s.gdb.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return records, nil
}

// LocalOnly returns records that have not reached the remote store yet.
func (s *Store) LocalOnly(ctx context.Context) ([]Record, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("history store is not initialized")
	}
	var records []Record
	err := s.gdb.WithContext(ctx).
		Where("sync_status = ?", SyncStatusLocalOnly).
		Order("timestamp ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list unsynced history records: %w", err)
	}
	return records, nil
}

// MarkSynced flips a record to the synced state.
func (s *Store) MarkSynced(ctx context.Context, recordUUID string) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("history store is not initialized")
	}
	res := s.gdb.WithContext(ctx).
		Model(&Record{}).
		Where("record_uuid = ?", recordUUID).
		Update("sync_status", SyncStatusSynced)
	if res.Error != nil {
		return fmt.Errorf("mark history record synced: %w", res.Error)
	}
	return nil
}

// DeleteAt removes the record at position index in the most-recent-first
// listing.
func (s *Store) DeleteAt(ctx context.Context, index int) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("history store is not initialized")
	}
	if index < 0 {
		return ErrIndexOutOfRange
	}

	var record Record
	err := s.gdb.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(1).
		Offset(index).
		Find(&record).Error
	if err == nil && record.ID == 0 {
		return ErrIndexOutOfRange
	}
	if err != nil {
		return fmt.Errorf("resolve history record at index %d: %w", index, err)
	}

	if err := s.gdb.WithContext(ctx).Delete(&Record{}, record.ID).Error; err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	return nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("history store is not initialized")
	}
	if err := s.gdb.WithContext(ctx).Where("1 = 1").Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("clear history records: %w", err)
	}
	return nil
}
