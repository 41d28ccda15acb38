package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the environment-backed settings for both binaries.
// Viewer runs only need HubURL; hub runs need the API keys.
type Config struct {
	DeepgramAPIKey string
	OpenAIAPIKey   string
	TranslateModel string
	Addr           string
	HubURL         string
}

// Load reads .env if present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}
	cfg := &Config{
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		TranslateModel: os.Getenv("TRANSLATE_MODEL"),
		Addr:           os.Getenv("HUB_ADDR"),
		HubURL:         os.Getenv("HUB_WS_URL"),
	}
	if cfg.TranslateModel == "" {
		cfg.TranslateModel = "gpt-4o-mini"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8765"
	}
	if cfg.HubURL == "" {
		cfg.HubURL = "ws://localhost:8765/stream"
	}
	return cfg
}

// ValidateHub checks the settings the hub binary cannot run without.
func (c *Config) ValidateHub() error {
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY must be set")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set")
	}
	return nil
}
