package match

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingLoopLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer SetLogger(nil)

	book := createTestOrderBook("50.00")
	require.NoError(t, book.Open())

	submit(t, book, Buy, "50.00", 5, 1)
	submit(t, book, Sell, "50.00", 5, 2)
	assert.Eventually(t, func() bool {
		return book.TradedVolume() == 5
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, book.Close(ctx))

	out := buf.String()
	assert.Contains(t, out, `"msg":"continuous trading start"`)
	assert.Contains(t, out, `"engine_version":"`+EngineVersion+`"`)
	assert.Contains(t, out, `"msg":"continuous trading finish"`)
	assert.Contains(t, out, `"total_volume":5`)
	// per-order events stay below the default level
	assert.NotContains(t, out, `"msg":"trade"`)
}
