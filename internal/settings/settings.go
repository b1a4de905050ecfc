// Package settings stores user preferences and provider credentials.
// Credentials are encrypted before they touch the database and are
// redacted in every export.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"lexibridge/internal/globaltime"
	"lexibridge/internal/secrets"
	"lexibridge/internal/translation"
)

const (
	preferencesKey       = "preferences"
	credentialKeyPrefix  = "credential:"
	redactedPlaceholder  = "********"
	redactedSuffixLength = 4
)

// Preferences are the user-tunable translation defaults.
type Preferences struct {
	TargetLang          string   `json:"targetLang"`
	SourceLang          string   `json:"sourceLang"`
	DictionaryExclusive bool     `json:"dictionaryExclusive"`
	PriorityOrder       []string `json:"priorityOrder,omitempty"`
	EnabledProviders    []string `json:"enabledProviders,omitempty"`
}

// DefaultPreferences translate into Chinese with automatic source
// detection and every configured provider enabled.
func DefaultPreferences() Preferences {
	return Preferences{
		TargetLang: "zh",
		SourceLang: translation.SourceAuto,
	}
}

type settingRow struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (settingRow) TableName() string { return "settings" }

// Store persists preferences and encrypted credentials.
type Store struct {
	gdb       *gorm.DB
	encryptor *secrets.Encryptor
}

func NewStore(gdb *gorm.DB, encryptor *secrets.Encryptor) (*Store, error) {
	if gdb == nil {
		return nil, fmt.Errorf("gorm handle is nil")
	}
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	if err := gdb.AutoMigrate(&settingRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate settings schema: %w", err)
	}
	return &Store{gdb: gdb, encryptor: encryptor}, nil
}

func (s *Store) put(ctx context.Context, key, value string) error {
	row := settingRow{Key: key, Value: value, UpdatedAt: globaltime.UTC()}
	err := s.gdb.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var row settingRow
	err := s.gdb.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load setting %q: %w", key, err)
	}
	return row.Value, true, nil
}

// SavePreferences replaces the stored preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs Preferences) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("settings store is not initialized")
	}
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return s.put(ctx, preferencesKey, string(encoded))
}

// Preferences returns the stored preferences, or the defaults when none
// were saved yet.
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	if s == nil || s.gdb == nil {
		return Preferences{}, fmt.Errorf("settings store is not initialized")
	}
	value, found, err := s.get(ctx, preferencesKey)
	if err != nil {
		return Preferences{}, err
	}
	if !found {
		return DefaultPreferences(), nil
	}
	var prefs Preferences
	if err := json.Unmarshal([]byte(value), &prefs); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// SaveCredential stores a provider credential encrypted at rest.
func (s *Store) SaveCredential(ctx context.Context, provider string, cred translation.Credential) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("settings store is not initialized")
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return fmt.Errorf("provider name is required")
	}

	encoded, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	sealed, err := s.encryptor.Encrypt(string(encoded))
	if err != nil {
		return fmt.Errorf("encrypt credential for %s: %w", provider, err)
	}
	return s.put(ctx, credentialKeyPrefix+provider, sealed)
}

// Credential returns the decrypted credential for provider. The second
// return is false when none is stored.
func (s *Store) Credential(ctx context.Context, provider string) (translation.Credential, bool, error) {
	if s == nil || s.gdb == nil {
		return translation.Credential{}, false, fmt.Errorf("settings store is not initialized")
	}
	provider = strings.ToLower(strings.TrimSpace(provider))

	sealed, found, err := s.get(ctx, credentialKeyPrefix+provider)
	if err != nil || !found {
		return translation.Credential{}, false, err
	}
	opened, err := s.encryptor.Decrypt(sealed)
	if err != nil {
		return translation.Credential{}, false, fmt.Errorf("decrypt credential for %s: %w", provider, err)
	}
	var cred translation.Credential
	if err := json.Unmarshal([]byte(opened), &cred); err != nil {
		return translation.Credential{}, false, fmt.Errorf("unmarshal credential for %s: %w", provider, err)
	}
	return cred, true, nil
}

// Credentials returns every stored credential keyed by provider name.
func (s *Store) Credentials(ctx context.Context) (map[string]translation.Credential, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("settings store is not initialized")
	}

	var rows []settingRow
	err := s.gdb.WithContext(ctx).
		Where("key LIKE ?", credentialKeyPrefix+"%").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	creds := make(map[string]translation.Credential, len(rows))
	for _, row := range rows {
		provider := strings.TrimPrefix(row.Key, credentialKeyPrefix)
		opened, err := s.encryptor.Decrypt(row.Value)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential for %s: %w", provider, err)
		}
		var cred translation.Credential
		if err := json.Unmarshal([]byte(opened), &cred); err != nil {
			return nil, fmt.Errorf("unmarshal credential for %s: %w", provider, err)
		}
		creds[provider] = cred
	}
	return creds, nil
}

// DeleteCredential removes a stored credential. Missing credentials are
// not an error.
func (s *Store) DeleteCredential(ctx context.Context, provider string) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("settings store is not initialized")
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	err := s.gdb.WithContext(ctx).
		Where("key = ?", credentialKeyPrefix+provider).
		Delete(&settingRow{}).Error
	if err != nil {
		return fmt.Errorf("delete credential for %s: %w", provider, err)
	}
	return nil
}

// Export is the redacted settings snapshot handed to clients.
type Export struct {
	Preferences Preferences                       `json:"preferences"`
	Credentials map[string]translation.Credential `json:"credentials"`
}

// ExportRedacted returns preferences plus credentials with every secret
// masked down to its last characters.
func (s *Store) ExportRedacted(ctx context.Context) (*Export, error) {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return nil, err
	}
	creds, err := s.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	redacted := make(map[string]translation.Credential, len(creds))
	for provider, cred := range creds {
		cred.SecretID = redactSecret(cred.SecretID)
		cred.SecretKey = redactSecret(cred.SecretKey)
		cred.APIKey = redactSecret(cred.APIKey)
		redacted[provider] = cred
	}
	return &Export{Preferences: prefs, Credentials: redacted}, nil
}

func redactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= redactedSuffixLength {
		return redactedPlaceholder
	}
	return redactedPlaceholder + string(runes[len(runes)-redactedSuffixLength:])
}
