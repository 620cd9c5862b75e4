package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "load rejected", err: ErrLoadRejected, expected: "load_rejected"},
		{name: "node not found", err: ErrNodeNotFound, expected: "not_found"},
		{name: "no match", err: ErrNoMatch, expected: "no_match"},
		{name: "no grounding", err: ErrNoGrounding, expected: "no_grounding"},
		{name: "store unavailable", err: ErrStoreUnavailable, expected: "store_unavailable"},
		{name: "not loaded", err: ErrNotLoaded, expected: "not_loaded"},
		{name: "wrapped taxonomy error", err: fmt.Errorf("outer: %w", ErrNoMatch), expected: "no_match"},
		{name: "classified taxonomy error", err: WrapInvalid(ErrLoadRejected, "Store", "Load", "dangling edge"), expected: "load_rejected"},
		{name: "unknown error", err: stderrors.New("boom"), expected: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Kind(tt.err))
		})
	}
}

func TestClassification(t *testing.T) {
	t.Run("store unavailable is transient", func(t *testing.T) {
		assert.True(t, IsTransient(ErrStoreUnavailable))
		assert.Equal(t, ErrorTransient, Classify(ErrStoreUnavailable))
	})

	t.Run("load rejected is invalid", func(t *testing.T) {
		assert.True(t, IsInvalid(ErrLoadRejected))
		assert.Equal(t, ErrorInvalid, Classify(ErrLoadRejected))
	})

	t.Run("missing config is fatal", func(t *testing.T) {
		assert.True(t, IsFatal(ErrMissingConfig))
	})

	t.Run("context cancellation is transient", func(t *testing.T) {
		assert.True(t, IsTransient(context.Canceled))
		assert.True(t, IsTransient(context.DeadlineExceeded))
	})

	t.Run("classified error wins over message patterns", func(t *testing.T) {
		err := WrapInvalid(stderrors.New("connection refused"), "Store", "Ping", "dial")
		assert.True(t, IsInvalid(err))
		assert.False(t, IsTransient(err))
	})
}

func TestWrap(t *testing.T) {
	base := stderrors.New("boom")

	t.Run("wrap formats context", func(t *testing.T) {
		err := Wrap(base, "Engine", "Load", "decode artifact")
		require.Error(t, err)
		assert.Equal(t, "Engine.Load: decode artifact failed: boom", err.Error())
		assert.True(t, stderrors.Is(err, base))
	})

	t.Run("wrap nil returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "Engine", "Load", "decode"))
		assert.NoError(t, WrapTransient(nil, "Engine", "Load", "decode"))
		assert.NoError(t, WrapInvalid(nil, "Engine", "Load", "decode"))
		assert.NoError(t, WrapFatal(nil, "Engine", "Load", "decode"))
	})

	t.Run("classified error unwraps to sentinel", func(t *testing.T) {
		err := WrapTransient(ErrStoreUnavailable, "Store", "Ping", "health check")
		assert.True(t, stderrors.Is(err, ErrStoreUnavailable))

		var ce *ClassifiedError
		require.True(t, stderrors.As(err, &ce))
		assert.Equal(t, ErrorTransient, ce.Class)
		assert.Equal(t, "Store", ce.Component)
	})
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}
