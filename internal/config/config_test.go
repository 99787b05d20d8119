package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "REQUEST_TIMEOUT", "MAX_QUESTION_LENGTH", "CLIENT_MASKED_ENTITIES", "SERVICE_CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8501" {
		t.Fatalf("unexpected default addr: %q", cfg.Server.Addr)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected default base URL: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Backend.RequestTimeout)
	}
	if cfg.Assistant.MaxQuestionLength != 2000 {
		t.Fatalf("unexpected default question length: %d", cfg.Assistant.MaxQuestionLength)
	}
	if len(cfg.Assistant.ClientMaskedTypes) != 1 || cfg.Assistant.ClientMaskedTypes[0] != "NRIC" {
		t.Fatalf("unexpected default client-masked types: %v", cfg.Assistant.ClientMaskedTypes)
	}
	if len(cfg.Assistant.SuggestedQuestions) == 0 {
		t.Fatal("expected default suggested questions")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("API_BASE_URL", "https://assistant.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("CLIENT_MASKED_ENTITIES", "NRIC, PHONE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("host:port values should pass through, got %q", cfg.Server.Addr)
	}
	if cfg.Backend.BaseURL != "https://assistant.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Backend.RequestTimeout)
	}
	if len(cfg.Assistant.ClientMaskedTypes) != 2 || cfg.Assistant.ClientMaskedTypes[1] != "PHONE" {
		t.Fatalf("unexpected client-masked types: %v", cfg.Assistant.ClientMaskedTypes)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric REQUEST_TIMEOUT")
	}

	t.Setenv("REQUEST_TIMEOUT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero REQUEST_TIMEOUT")
	}

	t.Setenv("REQUEST_TIMEOUT", "30")
	t.Setenv("PORT", "80 80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}
