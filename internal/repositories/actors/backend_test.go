package actors_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "actors.db")

	tests := []struct {
		name string
		cfg  actors.BackendConfig
		want string
	}{
		{name: "nothing configured", want: actors.BackendMemory},
		{name: "sqlite", cfg: actors.BackendConfig{SQLitePath: dbPath}, want: actors.BackendSQLite},
		{
			name: "unparseable redis url falls through",
			cfg:  actors.BackendConfig{RedisURL: "not a url", SQLitePath: dbPath},
			want: actors.BackendSQLite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := actors.OpenBackend(context.Background(), tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, backend.Close()) })

			assert.Equal(t, tt.want, backend.Name)
			assert.NotNil(t, backend.Repository)
			assert.Nil(t, backend.Redis)
		})
	}
}

func TestOpenBackend_BadSQLitePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := actors.OpenBackend(context.Background(), actors.BackendConfig{
		SQLitePath: filepath.Join(blocker, "actors.db"),
	})
	assert.Error(t, err)
}
