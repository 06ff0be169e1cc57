package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Container struct {
	// Address in the form the client expects: host:port for redis, nats://host:port for nats
	Addr      string
	Terminate func()
}

func startGeneric(t *testing.T, req testcontainers.ContainerRequest, proto string) Container {
	t.Helper()
	requireDocker(t)

	container, err := testcontainers.GenericContainer(t.Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Error happened when starting container %s", req.Image)

	addr, err := container.Endpoint(t.Context(), proto)
	require.NoError(t, err, "Error happened when getting endpoint of %s", req.Image)
	t.Logf("Container %s started, addr=%s", req.Image, addr)

	return Container{
		Addr: addr,
		Terminate: func() {
			testcontainers.CleanupContainer(t, container)
		},
	}
}

func StartRedisContainer(t *testing.T) Container {
	t.Helper()

	return startGeneric(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "")
}

// Start nats with JetStream enabled
func StartNATSContainer(t *testing.T) Container {
	t.Helper()

	return startGeneric(t, testcontainers.ContainerRequest{
		Image:        "nats:2.10-alpine",
		Cmd:          []string{"-js"},
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready"),
	}, "nats")
}
