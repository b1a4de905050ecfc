// Package review schedules saved words for spaced-repetition review.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexibridge/internal/globaltime"
	"lexibridge/internal/history"
)

// Memory levels run 0..8. Each level maps onto a review interval; a
// correct answer climbs one level, a wrong answer drops one.
const (
	MinMemoryLevel = 0
	MaxMemoryLevel = 8
)

// reviewIntervals holds the wait before the next review, indexed by the
// memory level reached after answering. Level 0 has no entry: a word at
// level 0 is due immediately.
var reviewIntervals = []time.Duration{
	5 * time.Minute,
	30 * time.Minute,
	12 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	96 * time.Hour,
	7 * 24 * time.Hour,
	15 * 24 * time.Hour,
}

var ErrWordNotFound = errors.New("review word not found")

// Word is one spaced-repetition entry.
type Word struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	WordUUID       string     `gorm:"column:word_uuid;type:uuid;not null;unique" json:"id"`
	SourceText     string     `gorm:"column:source_text;type:text;not null;uniqueIndex:idx_review_source_target" json:"sourceText"`
	Translation    string     `gorm:"column:translation;type:text;not null" json:"translation"`
	SourceLang     string     `gorm:"column:source_lang;type:text;not null" json:"sourceLang"`
	TargetLanguage string     `gorm:"column:target_language;type:text;not null;uniqueIndex:idx_review_source_target" json:"targetLanguage"`
	MemoryLevel    int        `gorm:"column:memory_level;not null;default:0" json:"memoryLevel"`
	ReviewCount    int        `gorm:"column:review_count;not null;default:0" json:"reviewCount"`
	LastReviewedAt *time.Time `gorm:"column:last_reviewed_at" json:"lastReviewedAt,omitempty"`
	NextReviewAt   *time.Time `gorm:"column:next_review_at" json:"nextReviewAt,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null" json:"-"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null" json:"-"`
}

func (Word) TableName() string { return "review_words" }

// Queue manages the review word list.
type Queue struct {
	gdb *gorm.DB
}

func NewQueue(gdb *gorm.DB) (*Queue, error) {
	if gdb == nil {
		return nil, fmt.Errorf("gorm handle is nil")
	}
	if err := gdb.AutoMigrate(&Word{}); err != nil {
		return nil, fmt.Errorf("auto-migrate review schema: %w", err)
	}
	return &Queue{gdb: gdb}, nil
}

// UpsertParams describes a word to add or refresh.
type UpsertParams struct {
	SourceText     string
	Translation    string
	SourceLang     string
	TargetLanguage string
}

// Upsert adds a word keyed by (source text, target language). An
// existing word keeps its review progress; only the translation is
// refreshed.
func (q *Queue) Upsert(ctx context.Context, params UpsertParams) (*Word, error) {
	if q == nil || q.gdb == nil {
		return nil, fmt.Errorf("review queue is not initialized")
	}

	sourceText := strings.TrimSpace(params.SourceText)
	translation := strings.TrimSpace(params.Translation)
	if sourceText == "" || translation == "" {
		return nil, fmt.Errorf("source text and translation are required")
	}

	now := globaltime.UTC()
	var word Word
	err := q.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("source_text = ? AND target_language = ?", sourceText, params.TargetLanguage).
			First(&word).Error
		switch {
		case err == nil:
			word.Translation = translation
			word.SourceLang = params.SourceLang
			word.UpdatedAt = now
			if err := tx.Save(&word).Error; err != nil {
				return fmt.Errorf("refresh review word: %w", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			word = Word{
				WordUUID:       uuid.NewString(),
				SourceText:     sourceText,
				Translation:    translation,
				SourceLang:     params.SourceLang,
				TargetLanguage: params.TargetLanguage,
				MemoryLevel:    MinMemoryLevel,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Create(&word).Error; err != nil {
				return fmt.Errorf("insert review word: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("look up review word: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// ImportFromHistory copies up to limit recent history records into the
// review queue. Already imported words keep their progress.
func (q *Queue) ImportFromHistory(ctx context.Context, store *history.Store, limit int) (int, error) {
	if q == nil || q.gdb == nil {
		return 0, fmt.Errorf("review queue is not initialized")
	}
	if store == nil {
		return 0, fmt.Errorf("history store is required")
	}
	if limit <= 0 {
		limit = 20
	}

	records, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load history for import: %w", err)
	}
	if len(records) > limit {
		records = records[:limit]
	}

	imported := 0
	for _, record := range records {
		params := UpsertParams{
			SourceText:     record.Original,
			Translation:    record.Translation,
			SourceLang:     record.SourceLang,
			TargetLanguage: record.TargetLang,
		}
		if _, err := q.Upsert(ctx, params); err != nil {
			return imported, fmt.Errorf("import %q: %w", record.Original, err)
		}
		imported++
	}
	return imported, nil
}

// DueWords returns up to limit words ready for review: overdue words
// oldest first, then words that were never reviewed.
func (q *Queue) DueWords(ctx context.Context, limit int) ([]Word, error) {
	if q == nil || q.gdb == nil {
		return nil, fmt.Errorf("review queue is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	now := globaltime.UTC()

	var due []Word
	err := q.gdb.WithContext(ctx).
		Where("next_review_at IS NOT NULL AND next_review_at <= ?", now).
		Order("next_review_at ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue review words: %w", err)
	}

	if len(due) < limit {
		var fresh []Word
		err := q.gdb.WithContext(ctx).
			Where("next_review_at IS NULL").
			Order("created_at ASC").
			Limit(limit - len(due)).
			Find(&fresh).Error
		if err != nil {
			return nil, fmt.Errorf("list unreviewed words: %w", err)
		}
		due = append(due, fresh...)
	}
	return due, nil
}

// RecordAnswer applies a review outcome. Correct answers raise the
// memory level, wrong ones lower it; the next review time follows the
// interval for the resulting level.
func (q *Queue) RecordAnswer(ctx context.Context, wordUUID string, correct bool) (*Word, error) {
	if q == nil || q.gdb == nil {
		return nil, fmt.Errorf("review queue is not initialized")
	}

	now := globaltime.UTC()
	var word Word
	err := q.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("word_uuid = ?", wordUUID).First(&word).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWordNotFound
		}
		if err != nil {
			return fmt.Errorf("look up review word: %w", err)
		}

		if correct {
			word.MemoryLevel = min(word.MemoryLevel+1, MaxMemoryLevel)
		} else {
			word.MemoryLevel = max(word.MemoryLevel-1, MinMemoryLevel)
		}
		word.ReviewCount++
		word.LastReviewedAt = &now
		next := now.Add(intervalForLevel(word.MemoryLevel))
		word.NextReviewAt = &next
		word.UpdatedAt = now

		if err := tx.Save(&word).Error; err != nil {
			return fmt.Errorf("update review word: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &word, nil
}

// List returns every word, newest first.
func (q *Queue) List(ctx context.Context) ([]Word, error) {
	if q == nil || q.gdb == nil {
		return nil, fmt.Errorf("review queue is not initialized")
	}
	var words []Word
	err := q.gdb.WithContext(ctx).Order("created_at DESC, id DESC").Find(&words).Error
	if err != nil {
		return nil, fmt.Errorf("list review words: %w", err)
	}
	return words, nil
}

// Delete removes a word.
func (q *Queue) Delete(ctx context.Context, wordUUID string) error {
	if q == nil || q.gdb == nil {
		return fmt.Errorf("review queue is not initialized")
	}
	res := q.gdb.WithContext(ctx).Where("word_uuid = ?", wordUUID).Delete(&Word{})
	if res.Error != nil {
		return fmt.Errorf("delete review word: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWordNotFound
	}
	return nil
}

func intervalForLevel(level int) time.Duration {
	if level <= MinMemoryLevel {
		return 0
	}
	if level > len(reviewIntervals) {
		level = len(reviewIntervals)
	}
	return reviewIntervals[level-1]
}
