package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lexibridge/internal/dictionary"
	"lexibridge/internal/globaltime"
	"lexibridge/internal/translation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	})
	store, err := NewStore(gdb)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	return store
}

func TestStoreAdd_MergesDuplicateOriginal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	globaltime.SetMockTime(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	first, err := store.Add(ctx, AddParams{Original: "hello", Translation: "你好", SourceLang: "en", TargetLang: "zh"})
	if err != nil {
		t.Fatalf("Add first: %v", err)
	}
	if first.Count != 1 {
		t.Fatalf("first count = %d, want 1", first.Count)
	}

	if _, err := store.Add(ctx, AddParams{Original: "world", Translation: "世界", SourceLang: "en", TargetLang: "zh"}); err != nil {
		t.Fatalf("Add second: %v", err)
	}

	globaltime.SetMockTime(time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC))

	merged, err := store.Add(ctx, AddParams{Original: "hello", Translation: "您好", SourceLang: "en", TargetLang: "zh"})
	if err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if merged.Count != 2 {
		t.Fatalf("merged count = %d, want 2", merged.Count)
	}
	if merged.Translation != "您好" {
		t.Fatalf("merged translation = %q, want %q", merged.Translation, "您好")
	}
	if merged.RecordUUID != first.RecordUUID {
		t.Fatalf("merge created a new record")
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Original != "hello" {
		t.Fatalf("merged record not first, got %q", records[0].Original)
	}
}

func TestStoreAdd_KeepsTranslationsAndDictionary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	units := []translation.Unit{
		{Source: "deepl", SourceName: "DeepL", Text: "你好"},
		{Source: "tencent", SourceName: "腾讯云", Text: "您好"},
	}
	entry := &dictionary.Entry{
		Word:         "hello",
		Meanings:     []dictionary.Meaning{{PartOfSpeech: "int", Definitions: []dictionary.Definition{{Definition: "你好"}}}},
		Translations: []string{"你好", "喂"},
	}

	if _, err := store.Add(ctx, AddParams{
		Original:     "hello",
		Translation:  "你好",
		SourceLang:   "en",
		TargetLang:   "zh",
		Translations: units,
		Dictionary:   entry,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	got := records[0]
	if len(got.Translations) != 2 || got.Translations[0].Source != "deepl" || got.Translations[1].Text != "您好" {
		t.Fatalf("translations = %+v", got.Translations)
	}
	if got.Dictionary == nil || got.Dictionary.Word != "hello" || len(got.Dictionary.Translations) != 2 {
		t.Fatalf("dictionary = %+v", got.Dictionary)
	}

	if _, err := store.Add(ctx, AddParams{
		Original:     "hello",
		Translation:  "您好",
		SourceLang:   "en",
		TargetLang:   "zh",
		Translations: units[1:],
	}); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	records, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List after merge: %v", err)
	}
	if len(records[0].Translations) != 1 || records[0].Translations[0].Source != "tencent" {
		t.Fatalf("merged translations = %+v", records[0].Translations)
	}
	if records[0].Dictionary != nil {
		t.Fatalf("merged dictionary = %+v, want refreshed to nil", records[0].Dictionary)
	}
}

func TestStoreAdd_EvictsOldestPastCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	defer globaltime.ResetTime()

	for i := 0; i < maxRecords+5; i++ {
		globaltime.SetMockTime(base.Add(time.Duration(i) * time.Minute))
		params := AddParams{
			Original:    fmt.Sprintf("word-%03d", i),
			Translation: fmt.Sprintf("译文-%03d", i),
			SourceLang:  "en",
			TargetLang:  "zh",
		}
		if _, err := store.Add(ctx, params); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != maxRecords {
		t.Fatalf("len(records) = %d, want %d", len(records), maxRecords)
	}
	if records[0].Original != "word-104" {
		t.Fatalf("newest record = %q, want word-104", records[0].Original)
	}
	if records[len(records)-1].Original != "word-005" {
		t.Fatalf("oldest kept record = %q, want word-005", records[len(records)-1].Original)
	}
}

func TestStoreDeleteAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	defer globaltime.ResetTime()

	for i, word := range []string{"alpha", "beta", "gamma"} {
		globaltime.SetMockTime(base.Add(time.Duration(i) * time.Minute))
		if _, err := store.Add(ctx, AddParams{Original: word, Translation: "x" + word, SourceLang: "en", TargetLang: "zh"}); err != nil {
			t.Fatalf("Add %q: %v", word, err)
		}
	}

	if err := store.DeleteAt(ctx, 1); err != nil {
		t.Fatalf("DeleteAt(1): %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Original != "gamma" || records[1].Original != "alpha" {
		t.Fatalf("unexpected survivors: %q, %q", records[0].Original, records[1].Original)
	}

	if err := store.DeleteAt(ctx, 5); err != ErrIndexOutOfRange {
		t.Fatalf("DeleteAt(5) = %v, want ErrIndexOutOfRange", err)
	}
	if err := store.DeleteAt(ctx, -1); err != ErrIndexOutOfRange {
		t.Fatalf("DeleteAt(-1) = %v, want ErrIndexOutOfRange", err)
	}
}

func TestStoreSyncLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	defer globaltime.ResetTime()
	globaltime.SetMockTime(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	record, err := store.Add(ctx, AddParams{Original: "pending", Translation: "待同步", SourceLang: "en", TargetLang: "zh"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if record.SyncStatus != SyncStatusLocalOnly {
		t.Fatalf("sync status = %q, want %q", record.SyncStatus, SyncStatusLocalOnly)
	}

	pending, err := store.LocalOnly(ctx)
	if err != nil {
		t.Fatalf("LocalOnly: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}

	if err := store.MarkSynced(ctx, record.RecordUUID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = store.LocalOnly(ctx)
	if err != nil {
		t.Fatalf("LocalOnly after sync: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("len(pending) = %d, want 0", len(pending))
	}
}
