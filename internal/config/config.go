package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the gateway consumes.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Assistant AssistantConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Backend: backend, Assistant: assistant}, nil
}

// ServerConfig describes the gateway HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8501"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8501" or "127.0.0.1:8501" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BackendConfig describes the documentation-assistant API the gateway talks to.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

func loadBackendConfig() (BackendConfig, error) {
	baseURL := strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:8000"), "/")

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("REQUEST_TIMEOUT"); err != nil {
		return BackendConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return BackendConfig{}, fmt.Errorf("REQUEST_TIMEOUT must be at least 1 second, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return BackendConfig{
		BaseURL:        baseURL,
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AssistantConfig carries the question, masking and caching settings.
type AssistantConfig struct {
	MaxQuestionLength  int
	ClientMaskedTypes  []string
	ServiceCacheTTL    time.Duration
	SuggestedQuestions []string
	ServiceDisplay     map[string]string
	ServiceColors      map[string]string
	DefaultColor       string
}

func loadAssistantConfig() (AssistantConfig, error) {
	maxLen := 2000
	if override, err := parseOptionalIntEnv("MAX_QUESTION_LENGTH"); err != nil {
		return AssistantConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AssistantConfig{}, fmt.Errorf("MAX_QUESTION_LENGTH must be positive, got %d", *override)
		}
		maxLen = *override
	}

	cacheSeconds := 300
	if override, err := parseOptionalIntEnv("SERVICE_CACHE_TTL"); err != nil {
		return AssistantConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return AssistantConfig{}, fmt.Errorf("SERVICE_CACHE_TTL must not be negative, got %d", *override)
		}
		cacheSeconds = *override
	}

	return AssistantConfig{
		MaxQuestionLength:  maxLen,
		ClientMaskedTypes:  parseListEnv("CLIENT_MASKED_ENTITIES", []string{"NRIC"}),
		ServiceCacheTTL:    time.Duration(cacheSeconds) * time.Second,
		SuggestedQuestions: defaultSuggestedQuestions(),
		ServiceDisplay:     defaultServiceDisplay(),
		ServiceColors:      defaultServiceColors(),
		DefaultColor:       "#6B7B8D",
	}, nil
}

// defaultSuggestedQuestions seeds the starter prompts shown on an empty
// conversation.
func defaultSuggestedQuestions() []string {
	return []string{
		"How do I deploy a model on SAP AI Core?",
		"How does the orchestration service work in Generative AI Hub?",
		"What SAP products support Joule as a copilot?",
		"How do I store and query vector embeddings in SAP HANA Cloud?",
	}
}

// defaultServiceDisplay is the fallback name map used when the backend's
// service list is unavailable.
func defaultServiceDisplay() map[string]string {
	return map[string]string{
		"ai_core":             "SAP AI Core",
		"genai_hub":           "Generative AI Hub",
		"ai_launchpad":        "SAP AI Launchpad",
		"joule":               "SAP Joule",
		"hana_cloud_vector":   "SAP HANA Cloud Vector Engine",
		"document_processing": "Document Information Extraction",
	}
}

func defaultServiceColors() map[string]string {
	return map[string]string{
		"ai_core":             "#0A6ED1",
		"genai_hub":           "#E78C07",
		"ai_launchpad":        "#1A9898",
		"joule":               "#945ECF",
		"hana_cloud_vector":   "#D04A02",
		"document_processing": "#188918",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
