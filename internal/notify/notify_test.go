package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
)

func TestCollector(t *testing.T) {
	c := notify.NewCollector()
	ctx := context.Background()

	c.Info(ctx, "Pokémon sheet saved.")
	c.Warn(ctx, "No move found to use.")

	assert.Equal(t, []notify.Notification{
		{Level: notify.LevelInfo, Message: "Pokémon sheet saved."},
		{Level: notify.LevelWarn, Message: "No move found to use."},
	}, c.All())
	assert.Equal(t, []string{"No move found to use."}, c.Warnings())
	assert.Equal(t, []string{"Pokémon sheet saved."}, c.Infos())
}

func TestRouter_PrefersContextSink(t *testing.T) {
	fallback := notify.NewCollector()
	scoped := notify.NewCollector()
	router := notify.Router{Fallback: fallback}

	router.Warn(notify.WithSink(context.Background(), scoped), "scoped")
	router.Info(context.Background(), "unscoped")

	assert.Equal(t, []string{"scoped"}, scoped.Warnings())
	assert.Empty(t, scoped.Infos())
	assert.Equal(t, []string{"unscoped"}, fallback.Infos())
	assert.Empty(t, fallback.Warnings())
}

func TestRouter_NoSinkIsSilent(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.Router{}.Warn(context.Background(), "dropped")
	})
}
