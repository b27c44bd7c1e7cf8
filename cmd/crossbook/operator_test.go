package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	match "github.com/0x5487/crossbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorLoop(t *testing.T) {
	book := match.NewOrderBook("XYZ", decimal.RequireFromString("50.32"))

	input := strings.Join([]string{
		"1", "N", "Buy", "50.31", "100",
		"2", "N", "s", "50.33", "40",
		"1", "M", "1", "60",
		"3", "M", "1",
		"2", "X",
		"1", "N", "hold",
		"1", "E",
	}, "\n")
	var out bytes.Buffer

	require.NoError(t, newOperator(book, strings.NewReader(input), &out).loop())

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Bid: [-] Ask: [-]\n"))
	assert.Contains(t, text, "Bid: [100@50.31] Ask: [-]")
	assert.Contains(t, text, "Bid: [100@50.31] Ask: [40@50.33]")
	assert.Contains(t, text, "Trader [1] ids=[1]")
	assert.Contains(t, text, "Bid: [60@50.31] Ask: [40@50.33]")
	assert.Contains(t, text, "Trader [3] ids=[]")
	assert.Contains(t, text, "order: 1 not found")
	assert.Contains(t, text, "option X not recognised")
	assert.Contains(t, text, "unknown order side: hold")

	assert.Equal(t, int64(60), book.QuantityAt(match.Buy, decimal.RequireFromString("50.31")))
}

func TestOperatorEndOfInput(t *testing.T) {
	book := match.NewOrderBook("XYZ", decimal.RequireFromString("50.32"))
	var out bytes.Buffer

	require.NoError(t, newOperator(book, strings.NewReader("1 N Buy 50.31"), &out).loop())
	assert.Equal(t, int64(0), book.QuantityAt(match.Buy, decimal.RequireFromString("50.31")))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	replay := filepath.Join(dir, "replay.jsonl")
	payload := `{"side":2,"price":"50.40","quantity":25,"trader_id":9}`
	cmd := `{"type":51,"payload":"` + encodePayload(payload) + `"}`
	require.NoError(t, os.WriteFile(replay, []byte(cmd+"\n\n"), 0o644))

	var out bytes.Buffer
	err := run("XYZ", "50.32", "0.01", dir, "", "", replay, strings.NewReader("1 N Buy 50.30 10 1 E"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Ask: [25@50.4]")

	data, err := os.ReadFile(filepath.Join(dir, "XYZ_exec_report.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "TraderID=9")
	assert.Contains(t, lines[1], "TraderID=1")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer

	assert.Error(t, run("XYZ", "abc", "0.01", t.TempDir(), "", "", "", strings.NewReader(""), &out))
	assert.Error(t, run("XYZ", "50.32", "0.01", t.TempDir(), "", "", filepath.Join(t.TempDir(), "none.jsonl"), strings.NewReader(""), &out))
}

// encodePayload renders bytes the way encoding/json encodes a []byte field.
func encodePayload(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// closingSink records reports and fails on Close.
type closingSink struct {
	*match.MemoryPublishLog
	closed bool
}

var errFlush = errors.New("flush on close failed")

func (s *closingSink) Close() error {
	s.closed = true
	return errFlush
}

func TestServeClosesSink(t *testing.T) {
	book := match.NewOrderBook("XYZ", decimal.RequireFromString("50.32"))
	publisher := &closingSink{MemoryPublishLog: match.NewMemoryPublishLog()}
	var out bytes.Buffer

	err := serve(book, publisher, "", strings.NewReader("1 N Buy 50.30 10 1 E"), &out)
	assert.ErrorIs(t, err, errFlush)
	assert.True(t, publisher.closed)
	// reports were flushed before the sink was closed
	assert.Equal(t, 1, publisher.Count())
}
