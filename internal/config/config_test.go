package config

import (
	"reflect"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment: "local",
		LogLevel:    "info",
		ListenAddr:  ":8085",
		DBPath:      "lexibridge.db",
		TargetLang:  "zh",
		SourceLang:  "auto",
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = validConfig()
	cfg.ListenAddr = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank LISTEN_ADDR")
	}

	cfg = validConfig()
	cfg.DBPath = ""
	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when no database is configured")
	}

	cfg = validConfig()
	cfg.MinIntervalMS = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative MIN_INTERVAL_MS")
	}

	cfg = validConfig()
	cfg.TargetLang = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty TARGET_LANG")
	}

	cfg = validConfig()
	cfg.SupabaseURL = "https://example.supabase.co"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for SUPABASE_URL without anon key")
	}
	cfg.SupabaseAnonKey = "anon"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("supabase pair rejected: %v", err)
	}
}

func TestPriorityOrderList(t *testing.T) {
	cfg := validConfig()
	cfg.PriorityOrder = " DeepL, tencent ,, deepl , gpt "
	got := cfg.PriorityOrderList()
	want := []string{"deepl", "tencent", "gpt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PriorityOrderList = %v, want %v", got, want)
	}

	cfg.PriorityOrder = ""
	if got := cfg.PriorityOrderList(); len(got) != 0 {
		t.Fatalf("empty priority order = %v", got)
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	cfg := validConfig()
	cfg.CORSAllowedOrigins = "https://a.example, https://b.example,https://a.example"
	got := cfg.CORSAllowedOriginsList()
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CORSAllowedOriginsList = %v, want %v", got, want)
	}
}
