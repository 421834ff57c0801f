package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string      `mapstructure:"port"`
	KnowledgeFile       string      `mapstructure:"knowledge_file"`
	AIProvider          string      `mapstructure:"ai_provider"`
	AIEndpoint          string      `mapstructure:"ai_endpoint"`
	OpenAIAPIKey        string      `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKey        string      `mapstructure:"GEMINI_API_KEY"`
	ModelTiers          []ModelTier `mapstructure:"model_tiers"`
	TierCooldownSeconds int         `mapstructure:"tier_cooldown_seconds"`
	ContextEntries      int         `mapstructure:"context_entries"`
	AdminUsername       string      `mapstructure:"admin_username"`
	AdminPassword       string      `mapstructure:"ADMIN_PASSWORD"`
}

// ModelTier is one step in the gateway's fallback list, highest quality
// first.
type ModelTier struct {
	Name  string `mapstructure:"name"`
	Label string `mapstructure:"label"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("knowledge_file", "data/knowledge.json")
	v.SetDefault("ai_provider", "gemini")
	v.SetDefault("tier_cooldown_seconds", 60)
	v.SetDefault("context_entries", 3)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("ADMIN_PASSWORD")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(config.ModelTiers) == 0 {
		return nil, errors.New("at least one model tier must be configured")
	}

	return &config, nil
}
