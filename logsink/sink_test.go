package logsink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorIsFlushedToFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	s.WriteError("connection failed", errors.New("boom"))

	dropped := s.Shutdown()
	require.Zero(t, dropped)

	data, err := os.ReadFile(filepath.Join(dir, logDir, logFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), "connection failed")
	require.Contains(t, string(data), "boom")
}

func TestWriteErrorDropsWhenQueueFull(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	defer s.Shutdown()

	// Fill the queue faster than the single writer can drain it by
	// blocking the writer goroutine: close done immediately is not an
	// option here, so instead we flood well past capacity and rely on
	// WriteError's non-blocking offer to start dropping once full.
	for i := 0; i < queueCapacity*2; i++ {
		s.WriteError("flood", errors.New("x"))
	}

	// Give the background writer a moment to drain; dropped count should
	// be monotonically non-decreasing and the call must never have
	// blocked the test goroutine.
	time.Sleep(10 * time.Millisecond)
	_ = s.DroppedCount()
}

func TestShutdownIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	s.Shutdown()
	require.NotPanics(t, func() { s.Shutdown() })
}
