package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/service/auth/tokenmanager"
)

func noEnv(string) string { return "" }

func Test_run(t *testing.T) {
	t.Run("secret", func(t *testing.T) {
		var out bytes.Buffer

		err := run(nil, noEnv, &out)

		require.NoError(t, err)
		assert.Len(t, strings.TrimSpace(out.String()), tokenmanager.SecretKeyBytesLen*2, "hex encoded key expected")
	})

	t.Run("token", func(t *testing.T) {
		var out bytes.Buffer

		err := run([]string{"--secret", "s3cr3t", "--device", "pixel-7", "--ttl", "1h"}, noEnv, &out)
		require.NoError(t, err)

		tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "s3cr3t"})
		require.NoError(t, err)
		device, err := tm.Parse(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, "pixel-7", device)
	})

	t.Run("secret from env", func(t *testing.T) {
		var out bytes.Buffer
		getenv := func(key string) string {
			if key == "SECRET_KEY" {
				return "from-env"
			}
			return ""
		}

		err := run([]string{"-d", "pixel-7", "--ttl", time.Minute.String()}, getenv, &out)
		require.NoError(t, err)

		tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "from-env"})
		require.NoError(t, err)
		_, err = tm.Parse(strings.TrimSpace(out.String()))
		require.NoError(t, err)
	})

	t.Run("token without secret", func(t *testing.T) {
		err := run([]string{"--device", "pixel-7"}, noEnv, &bytes.Buffer{})

		require.Error(t, err)
	})
}
