package settings

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lexibridge/internal/translation"
)

//go:embed schema.json
var importSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ImportPayload is the shape of an exported-settings file.
type ImportPayload struct {
	Preferences *Preferences                      `json:"preferences,omitempty"`
	Credentials map[string]translation.Credential `json:"credentials,omitempty"`
}

// ValidateImport checks raw against the settings schema and decodes it.
func ValidateImport(raw []byte) (*ImportPayload, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode settings JSON: %w", err)
	}

	schema, err := loadImportSchema()
	if err != nil {
		return nil, fmt.Errorf("load settings schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize settings JSON: %w", err)
	}
	var payload ImportPayload
	if err := json.Unmarshal(normalized, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	for provider := range payload.Credentials {
		if strings.TrimSpace(provider) == "" {
			return nil, fmt.Errorf("credential provider name must not be empty")
		}
	}
	return &payload, nil
}

// Import validates raw and applies it to the store. Credentials are
// merged per provider; preferences replace the stored set when present.
func (s *Store) Import(ctx context.Context, raw []byte) (*ImportPayload, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("settings store is not initialized")
	}

	payload, err := ValidateImport(raw)
	if err != nil {
		return nil, err
	}

	if payload.Preferences != nil {
		if err := s.SavePreferences(ctx, *payload.Preferences); err != nil {
			return nil, err
		}
	}
	for provider, cred := range payload.Credentials {
		if err := s.SaveCredential(ctx, provider, cred); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func loadImportSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("settings_import.schema.json", strings.NewReader(importSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("settings_import.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}
