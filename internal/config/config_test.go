package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/config"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "DISCORD_APP_ID", "DISCORD_GUILD_ID", "REDIS_URL", "SQLITE_PATH",
		"CHAT_HISTORY", "METRICS_ADDR", "SHEET_CONFIG", "SHEET_LABEL", "SHEET_MAKE_DEFAULT",
		"SHEET_WIDTH", "SHEET_HEIGHT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_RequiresDiscord(t *testing.T) {
	clearEnv(t)

	_, err := config.Load()
	assert.EqualError(t, err, "DISCORD_TOKEN is required")

	t.Setenv("DISCORD_TOKEN", "token")
	_, err = config.Load()
	assert.EqualError(t, err, "DISCORD_APP_ID is required")
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_APP_ID", "app")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("CHAT_HISTORY", "50")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Discord.AppID)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Storage.RedisURL)
	assert.Equal(t, 50, cfg.ChatHistory)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, pokemon.Presentation{}, cfg.Sheet.Presentation())
}

func TestLoadLocal_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadLocal()
	require.NoError(t, err)

	assert.Empty(t, cfg.Discord.Token)
	assert.Equal(t, chat.DefaultHistory, cfg.ChatHistory)
	assert.Empty(t, cfg.Storage.SQLitePath)
}

func TestLoadLocal_SheetFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sheet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("label: Pokémon (Trainer)\nwidth: 1200\nmake_default: true\n"), 0o600))
	t.Setenv("SHEET_CONFIG", path)
	t.Setenv("SHEET_WIDTH", "1024")
	t.Setenv("SHEET_HEIGHT", "800")

	cfg, err := config.LoadLocal()
	require.NoError(t, err)

	assert.Equal(t, pokemon.Presentation{
		Label:       "Pokémon (Trainer)",
		MakeDefault: true,
		Width:       1024,
		Height:      800,
	}, cfg.Sheet.Presentation())
}

func TestLoadLocal_SheetErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEET_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.LoadLocal()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SHEET_HEIGHT", "-5")
	_, err = config.LoadLocal()
	assert.Error(t, err)
}
