package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Evidence   EvidenceConfig   `yaml:"evidence" mapstructure:"evidence"`
	Reputation ReputationConfig `yaml:"reputation" mapstructure:"reputation"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig locates the relational store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database file
}

// LLMConfig configures the generative text service
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, huggingface, anthropic, ollama
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// GenerationConfig controls actor selection and the retry loop
type GenerationConfig struct {
	MaxAttempts          int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay           time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	MaxOrganizations     int           `yaml:"max_organizations" mapstructure:"max_organizations"`
	MaxCharacters        int           `yaml:"max_characters" mapstructure:"max_characters"`
	OrganizationCooldown time.Duration `yaml:"organization_cooldown" mapstructure:"organization_cooldown"`
	CharacterCooldown    time.Duration `yaml:"character_cooldown" mapstructure:"character_cooldown"`
}

// EvidenceConfig controls the evidence board
type EvidenceConfig struct {
	PanelCapacity int `yaml:"panel_capacity" mapstructure:"panel_capacity"`
}

// ReputationConfig tunes the outlet update after scoring
type ReputationConfig struct {
	Baseline       float64 `yaml:"baseline" mapstructure:"baseline"`
	Factor         float64 `yaml:"factor" mapstructure:"factor"`
	ReadersScale   float64 `yaml:"readers_scale" mapstructure:"readers_scale"`
	DefaultMediaID int64   `yaml:"default_media_id" mapstructure:"default_media_id"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
	Development bool   `yaml:"development" mapstructure:"development"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "infodemic.db",
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Timeout:           60,
			MaxTokens:         2048,
			Temperature:       0.7,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Generation: GenerationConfig{
			MaxAttempts:          3,
			RetryDelay:           2 * time.Second,
			MaxOrganizations:     3,
			MaxCharacters:        6,
			OrganizationCooldown: 7 * 24 * time.Hour,
			CharacterCooldown:    3 * 24 * time.Hour,
		},
		Evidence: EvidenceConfig{
			PanelCapacity: 10,
		},
		Reputation: ReputationConfig{
			Baseline:       5.0,
			Factor:         0.1,
			ReadersScale:   1000,
			DefaultMediaID: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
