package main

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/testutil"
)

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err = run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--database", pg.DSN,
			"--secret-key", "secret",
			"--cards", "9204129976918161",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("stop with srv error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		// Try to run without secret key. Must fail
		err := run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--database", pg.DSN,
		})

		require.Error(t, err, "on incorrect stop should return error")
	})

	t.Run("unknown log format", func(t *testing.T) {
		err := run(t.Context(), os.Getenv, os.Getwd, []string{
			"--database", pg.DSN,
			"--secret-key", "secret",
			"--log-format", "xml",
		})

		require.ErrorContains(t, err, "unknown log format")
	})
}

func Test_validCards(t *testing.T) {
	cards, err := validCards([]string{"9204 1299 7691 8161", "9227-0699-9532-8054"})
	require.NoError(t, err)
	require.Equal(t, []string{"9204129976918161", "9227069995328054"}, cards)

	_, err = validCards([]string{"9204129976918116"})
	require.ErrorContains(t, err, "invalid card")
}
