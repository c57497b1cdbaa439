package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

const (
	sheetEnvPrefix  = "SHEET_"
	sheetConfigFile = "SHEET_CONFIG"
)

// Config holds all configuration for the application
type Config struct {
	Discord DiscordConfig
	Storage StorageConfig
	Sheet   SheetConfig

	// ChatHistory caps the Redis chat log
	ChatHistory int

	// MetricsAddr is the /metrics listen address; empty disables it
	MetricsAddr string
}

// DiscordConfig holds Discord-specific configuration
type DiscordConfig struct {
	Token   string
	AppID   string
	GuildID string // Optional: for guild-specific commands
}

// StorageConfig picks the actor store. Redis wins over SQLite; with
// neither the bot keeps actors in memory.
type StorageConfig struct {
	RedisURL   string
	SQLitePath string
}

// SheetConfig overrides how the Pokémon sheet is offered. It is read from
// the YAML file named by SHEET_CONFIG and then SHEET_* variables.
type SheetConfig struct {
	Label       string `koanf:"label"`
	MakeDefault bool   `koanf:"make_default"`
	Width       int    `koanf:"width"`
	Height      int    `koanf:"height"`
}

// Presentation converts the overrides for the sheet
func (c SheetConfig) Presentation() pokemon.Presentation {
	return pokemon.Presentation{
		Label:       c.Label,
		MakeDefault: c.MakeDefault,
		Width:       c.Width,
		Height:      c.Height,
	}
}

// LoadDotEnv loads .env when present
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}
}

// Load loads the bot configuration from environment variables. Discord
// credentials are required.
func Load() (*Config, error) {
	cfg, err := LoadLocal()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.Discord.AppID == "" {
		return nil, fmt.Errorf("DISCORD_APP_ID is required")
	}

	return cfg, nil
}

// LoadLocal loads the configuration without requiring Discord credentials,
// for tools that only touch the stores
func LoadLocal() (*Config, error) {
	sheet, err := loadSheetConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Discord: DiscordConfig{
			Token:   os.Getenv("DISCORD_TOKEN"),
			AppID:   os.Getenv("DISCORD_APP_ID"),
			GuildID: os.Getenv("DISCORD_GUILD_ID"),
		},
		Storage: StorageConfig{
			RedisURL:   os.Getenv("REDIS_URL"),
			SQLitePath: os.Getenv("SQLITE_PATH"),
		},
		Sheet:       sheet,
		ChatHistory: getEnvAsIntOrDefault("CHAT_HISTORY", chat.DefaultHistory),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}, nil
}

// loadSheetConfig layers the optional YAML file under SHEET_* variables
func loadSheetConfig() (SheetConfig, error) {
	k := koanf.New(".")

	if path := os.Getenv(sheetConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return SheetConfig{}, fmt.Errorf("failed to load sheet config %s: %w", path, err)
		}
	}

	envProvider := env.Provider(sheetEnvPrefix, ".", func(s string) string {
		if s == sheetConfigFile {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, sheetEnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return SheetConfig{}, err
	}

	var cfg SheetConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return SheetConfig{}, fmt.Errorf("invalid sheet config: %w", err)
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return SheetConfig{}, fmt.Errorf("sheet width and height must not be negative")
	}
	return cfg, nil
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
