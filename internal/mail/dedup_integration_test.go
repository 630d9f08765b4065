package mail

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisDeduperIntegration tests the job claims with a real Redis container
func TestRedisDeduperIntegration(t *testing.T) {
	// Skip if short test mode
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	d := NewRedisDeduper(client, time.Minute)

	ok, err := d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok, "first claim wins")

	ok, err = d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok, "second claim is a duplicate")

	ttl, err := client.TTL(ctx, "mail:job:job-1").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, d.Release(ctx, "job-1"))
	ok, err = d.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok, "claim is possible again after release")
}
