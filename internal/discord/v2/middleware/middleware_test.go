package middleware_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCollector struct {
	counters   map[string][]map[string]string
	histograms map[string][]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string][]map[string]string),
		histograms: make(map[string][]float64),
	}
}

func (c *recordingCollector) IncrementCounter(name string, labels map[string]string) {
	c.counters[name] = append(c.counters[name], labels)
}

func (c *recordingCollector) ObserveHistogram(name string, value float64, _ map[string]string) {
	c.histograms[name] = append(c.histograms[name], value)
}

func failing(err error) core.Handler {
	return core.HandlerFunc(func(*core.InteractionContext) (*core.HandlerResult, error) {
		return nil, err
	})
}

func ok(content string) core.Handler {
	return core.HandlerFunc(func(*core.InteractionContext) (*core.HandlerResult, error) {
		return &core.HandlerResult{Response: core.NewResponse(content)}, nil
	})
}

func TestErrorMiddleware(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation error",
			err:  core.NewValidationError("Invalid input"),
			want: "❌ Invalid input",
		},
		{
			name: "coded not found",
			err:  sheeterr.NotFoundf("actor %s not found", "a-1"),
			want: "❌ actor a-1 not found",
		},
		{
			name: "plain error",
			err:  errors.New("redis: connection refused"),
			want: "❌ An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logged *core.HandlerError
			mw := middleware.ErrorMiddleware(&middleware.ErrorConfig{
				LogErrors: true,
				ErrorLogger: func(_ *core.InteractionContext, err *core.HandlerError) {
					logged = err
				},
			})

			ctx := core.NewTestInteractionContext().AsCommand("pokesheet", "show")
			result, err := mw(failing(tt.err)).Handle(ctx.InteractionContext)

			require.NoError(t, err)
			require.NotNil(t, result.Response)
			assert.True(t, result.Response.Ephemeral)
			assert.Equal(t, tt.want, result.Response.Content)
			require.NotNil(t, logged)
			assert.ErrorIs(t, logged, tt.err)
		})
	}
}

func TestErrorMiddleware_PassesSuccess(t *testing.T) {
	mw := middleware.ErrorMiddleware(nil)
	result, err := mw(ok("fine")).Handle(core.NewTestInteractionContext().AsCommand("pokesheet").InteractionContext)

	require.NoError(t, err)
	assert.Equal(t, "fine", result.Response.Content)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := core.HandlerFunc(func(*core.InteractionContext) (*core.HandlerResult, error) {
		panic("nil move table")
	})

	result, err := middleware.RecoveryMiddleware()(panicky).Handle(
		core.NewTestInteractionContext().AsComponent("pokesheet:roll:a-1:0").InteractionContext)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Response.Ephemeral)
	assert.EqualError(t, result.Context["error"].(error), "nil move table")
}

func TestLoggingMiddleware(t *testing.T) {
	var lines []string
	mw := middleware.LoggingMiddleware(&middleware.LogConfig{
		LogRequests: true,
		LogErrors:   true,
		Logf: func(format string, args ...interface{}) {
			lines = append(lines, fmt.Sprintf(format, args...))
		},
	})

	ctx := core.NewTestInteractionContext().WithUserID("u-7").AsComponent("pokesheet:roll:a-1:0")
	_, err := mw(failing(errors.New("dice jammed"))).Handle(ctx.InteractionContext)
	require.Error(t, err)

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component pokesheet:roll")
	assert.Contains(t, lines[0], "u-7")
	assert.Contains(t, lines[1], "Error in pokesheet:roll: dice jammed")
}

func TestMetricsMiddleware(t *testing.T) {
	collector := newRecordingCollector()
	mw := middleware.MetricsMiddleware(collector)

	ctx := core.NewTestInteractionContext().AsComponent("pokesheet:roll:a-1:0")
	_, _ = mw(ok("rolled")).Handle(ctx.InteractionContext)
	_, _ = mw(failing(sheeterr.InvalidArgument("bad index"))).Handle(ctx.InteractionContext)

	require.Len(t, collector.counters[middleware.MetricInteractions], 2)
	assert.Equal(t, map[string]string{"interaction_type": "component", "action": "roll"},
		collector.counters[middleware.MetricInteractions][0])
	assert.Len(t, collector.histograms[middleware.MetricInteractionDuration], 2)

	require.Len(t, collector.counters[middleware.MetricInteractionErrors], 1)
	assert.Equal(t, "400", collector.counters[middleware.MetricInteractionErrors][0]["error_code"])
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	next := core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
		seen = middleware.RequestID(ctx)
		return &core.HandlerResult{}, nil
	})

	mw := middleware.RequestIDMiddleware(uuid.NewSequenceGenerator("req"))
	_, err := mw(next).Handle(core.NewTestInteractionContext().AsCommand("pokesheet").InteractionContext)

	require.NoError(t, err)
	assert.Equal(t, "req-1", seen)
}

func TestRateLimitMiddleware_Memory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := middleware.NewMemoryRateLimitStore(func() time.Time { return now })

	mw := middleware.RateLimitMiddleware(&middleware.RateLimitConfig{
		MaxRequests: 2,
		Window:      10 * time.Second,
		KeyFunc:     middleware.ActionKey,
		Store:       store,
	})
	handler := mw(ok("rolled"))
	roll := core.NewTestInteractionContext().WithUserID("u-1").AsComponent("pokesheet:roll:a-1:0")

	for i := 0; i < 2; i++ {
		result, err := handler.Handle(roll.InteractionContext)
		require.NoError(t, err)
		assert.Equal(t, "rolled", result.Response.Content)
	}

	result, err := handler.Handle(roll.InteractionContext)
	require.NoError(t, err)
	assert.True(t, result.Response.Ephemeral)
	assert.Contains(t, result.Response.Content, "too fast")

	// a different action has its own budget
	save := core.NewTestInteractionContext().WithUserID("u-1").AsComponent("pokesheet:save:a-1")
	result, err = handler.Handle(save.InteractionContext)
	require.NoError(t, err)
	assert.Equal(t, "rolled", result.Response.Content)

	// the window resets
	now = now.Add(10 * time.Second)
	result, err = handler.Handle(roll.InteractionContext)
	require.NoError(t, err)
	assert.Equal(t, "rolled", result.Response.Content)
}

func TestRedisRateLimitStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := middleware.NewRedisRateLimitStore(client, "")

	mock.ExpectIncr("ratelimit:u-1").SetVal(1)
	mock.ExpectExpire("ratelimit:u-1", 5*time.Second).SetVal(true)
	mock.ExpectIncr("ratelimit:u-1").SetVal(2)
	mock.ExpectDel("ratelimit:u-1").SetVal(1)

	count, err := store.Increment(t.Context(), "u-1", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Increment(t.Context(), "u-1", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Reset(t.Context(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitMiddleware_StoreErrorAllows(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:u-1").SetErr(errors.New("redis down"))

	mw := middleware.RateLimitMiddleware(&middleware.RateLimitConfig{
		MaxRequests: 1,
		Window:      time.Second,
		Store:       middleware.NewRedisRateLimitStore(client, ""),
	})

	result, err := mw(ok("rolled")).Handle(core.NewTestInteractionContext().WithUserID("u-1").AsCommand("pokesheet").InteractionContext)
	require.NoError(t, err)
	assert.Equal(t, "rolled", result.Response.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
