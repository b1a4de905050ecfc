package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lexibridge/internal/supabase"
)

// DefaultSyncSchedule pushes unsynced records every five minutes.
const DefaultSyncSchedule = "*/5 * * * *"

// Syncer periodically pushes local_only records to the remote store.
type Syncer struct {
	store    *Store
	remote   *supabase.Client
	token    func() string
	schedule string
	logger   zerolog.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewSyncer builds a syncer. token supplies the current user JWT and is
// called on every sync pass so refreshed sessions are picked up.
func NewSyncer(store *Store, remote *supabase.Client, token func() string, schedule string, logger zerolog.Logger) (*Syncer, error) {
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if remote == nil {
		return nil, fmt.Errorf("supabase client is required")
	}
	if token == nil {
		token = func() string { return "" }
	}
	if schedule == "" {
		schedule = DefaultSyncSchedule
	}
	return &Syncer{
		store:    store,
		remote:   remote,
		token:    token,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}, nil
}

// Start schedules periodic sync passes until ctx is cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("history sync pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule history sync %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	s.logger.Info().Str("schedule", s.schedule).Msg("history sync scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info().Msg("history sync scheduler stopped")
}

// RunOnce pushes every pending record. The first remote failure stops
// the pass; remaining records stay local_only and retry next run.
func (s *Syncer) RunOnce(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("syncer is not initialized")
	}

	pending, err := s.store.LocalOnly(ctx)
	if err != nil {
		return fmt.Errorf("load pending history records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	token := s.token()
	for _, record := range pending {
		row := supabase.HistoryRow{
			SourceText:     record.Original,
			TranslatedText: record.Translation,
			SourceLanguage: record.SourceLang,
			TargetLanguage: record.TargetLang,
		}
		if err := s.remote.InsertHistory(ctx, token, row); err != nil {
			return fmt.Errorf("push history record %s: %w", record.RecordUUID, err)
		}
		if err := s.store.MarkSynced(ctx, record.RecordUUID); err != nil {
			return fmt.Errorf("mark history record %s synced: %w", record.RecordUUID, err)
		}
	}

	s.logger.Debug().Int("records", len(pending)).Msg("history records synced")
	return nil
}
