package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the engine configuration - all settings from .env
type Config struct {
	Port string `json:"port"`

	// Model configuration (.env configurable)
	GeminiAPIKey string `json:"-"`
	GeminiModel  string `json:"gemini_model"`

	// Transport retry settings
	MaxTransportAttempts int           `json:"max_transport_attempts"`
	RetryBaseDelay       time.Duration `json:"retry_base_delay"`
	CallTimeout          time.Duration `json:"call_timeout"`

	// Observability
	LogDir string `json:"log_dir"`

	// Enum synonym overrides (loaded from synonyms_override.yaml)
	SynonymOverrides map[string][]string `json:"synonym_overrides"`
}

// GetDefaultConfig returns a default configuration for testing
func GetDefaultConfig() *Config {
	return &Config{
		Port:                 "8085",
		GeminiModel:          "gemini-2.0-flash",
		MaxTransportAttempts: 3,
		RetryBaseDelay:       500 * time.Millisecond,
		CallTimeout:          60 * time.Second,
		LogDir:               "logs",
		SynonymOverrides:     make(map[string][]string),
	}
}

// LoadConfigWithEnv loads configuration from .env file only
func LoadConfigWithEnv() (*Config, error) {
	envVars, err := loadEnvFile()
	if err != nil {
		return nil, fmt.Errorf(".env file is required for configuration: %v", err)
	}

	cfg := GetDefaultConfig()

	if apiKey, exists := envVars["GEMINI_API_KEY"]; exists && apiKey != "" {
		cfg.GeminiAPIKey = apiKey
		log.Printf("🔧 Configured GEMINI_API_KEY: %s", maskAPIKey(apiKey))
	} else {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set in .env file")
	}

	if model, exists := envVars["GEMINI_MODEL"]; exists && model != "" {
		cfg.GeminiModel = model
		log.Printf("🔧 Configured GEMINI_MODEL: %s", model)
	}

	if port, exists := envVars["PORT"]; exists && port != "" {
		cfg.Port = port
		log.Printf("🔧 Configured PORT: %s", port)
	}

	if raw, exists := envVars["MAX_TRANSPORT_ATTEMPTS"]; exists && raw != "" {
		attempts, err := strconv.Atoi(raw)
		if err != nil || attempts < 1 {
			log.Printf("⚠️  Warning: Invalid MAX_TRANSPORT_ATTEMPTS '%s', using default %d", raw, cfg.MaxTransportAttempts)
		} else {
			cfg.MaxTransportAttempts = attempts
			log.Printf("🔧 Configured MAX_TRANSPORT_ATTEMPTS: %d", attempts)
		}
	}

	if raw, exists := envVars["RETRY_BASE_DELAY_MS"]; exists && raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			log.Printf("⚠️  Warning: Invalid RETRY_BASE_DELAY_MS '%s', using default %v", raw, cfg.RetryBaseDelay)
		} else {
			cfg.RetryBaseDelay = time.Duration(ms) * time.Millisecond
			log.Printf("🔧 Configured RETRY_BASE_DELAY_MS: %d", ms)
		}
	}

	if raw, exists := envVars["CALL_TIMEOUT_SECONDS"]; exists && raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			log.Printf("⚠️  Warning: Invalid CALL_TIMEOUT_SECONDS '%s', using default %v", raw, cfg.CallTimeout)
		} else {
			cfg.CallTimeout = time.Duration(secs) * time.Second
			log.Printf("🔧 Configured CALL_TIMEOUT_SECONDS: %d", secs)
		}
	}

	if logDir, exists := envVars["LOG_DIR"]; exists && logDir != "" {
		cfg.LogDir = logDir
		log.Printf("🔧 Configured LOG_DIR: %s", logDir)
	}

	// Load enum synonym overrides from YAML file
	overrides, err := LoadSynonymOverrides()
	if err != nil {
		log.Printf("⚠️  Warning: Failed to load synonym overrides from synonyms_override.yaml: %v", err)
		// Continue with built-in synonyms instead of failing
	} else {
		cfg.SynonymOverrides = overrides
	}

	return cfg, nil
}

// maskAPIKey masks an API key for safe logging
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}

// loadEnvFile loads environment variables from .env file in current directory
func loadEnvFile() (map[string]string, error) {
	envVars := make(map[string]string)

	file, err := os.Open(".env")
	if err != nil {
		return envVars, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE format
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove comments from value
		if commentIndex := strings.Index(value, "#"); commentIndex != -1 {
			value = strings.TrimSpace(value[:commentIndex])
		}

		envVars[key] = value
	}

	return envVars, scanner.Err()
}

// SynonymsYAML represents the structure of synonyms_override.yaml
type SynonymsYAML struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadSynonymOverrides loads enum synonym overrides from synonyms_override.yaml
// Returns empty map if file doesn't exist (no error)
func LoadSynonymOverrides() (map[string][]string, error) {
	file, err := os.Open("synonyms_override.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist - return empty map, no error
			log.Printf("📝 synonyms_override.yaml not found, using built-in synonym dictionary")
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("failed to open synonyms_override.yaml: %v", err)
	}
	defer file.Close()

	var yamlData SynonymsYAML
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms_override.yaml: %v", err)
	}

	if yamlData.Synonyms == nil {
		yamlData.Synonyms = make(map[string][]string)
	}

	log.Printf("📝 Loaded %d synonym overrides from synonyms_override.yaml", len(yamlData.Synonyms))
	for term := range yamlData.Synonyms {
		log.Printf("   - %s: custom mapping loaded", term)
	}

	return yamlData.Synonyms, nil
}
