package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/x402-bazaar/x402-bazaar-go/internal/observability"
)

func TestNoopHandler(t *testing.T) {
	t.Parallel()

	h := observability.NewNoopHandler()

	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, h.Handle(context.Background(), slog.Record{}))
	assert.Same(t, h, h.WithAttrs([]slog.Attr{slog.String("k", "v")}))
	assert.Same(t, h, h.WithGroup("g"))
}

func TestOrNoop(t *testing.T) {
	t.Parallel()

	t.Run("passes - nil becomes no-op", func(t *testing.T) {
		t.Parallel()

		log := observability.OrNoop(nil)
		assert.NotNil(t, log)
		assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	})

	t.Run("passes - provided logger is kept", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := slog.New(slog.NewTextHandler(buf, nil))

		assert.Same(t, log, observability.OrNoop(log))
	})
}
