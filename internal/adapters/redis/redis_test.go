package redis_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	adaptredis "github.com/meli/ecommerce-orders-api/internal/adapters/redis"
)

var (
	testClient   *adaptredis.Client
	testEndpoint string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Fatalf("failed to start redis container: %v", err)
	}

	testEndpoint, err = container.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testClient, err = adaptredis.NewConnection(config.RedisConfig{
		URL:         testEndpoint,
		PoolSize:    5,
		DialTimeout: 5 * time.Second,
		KeyPrefix:   "test",
	})
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	code := m.Run()

	_ = testClient.Close()
	_ = container.Terminate(ctx)

	os.Exit(code)
}

func TestNewConnection_InvalidURL(t *testing.T) {
	if _, err := adaptredis.NewConnection(config.RedisConfig{URL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestClient_KeyPrefixIsolation(t *testing.T) {
	other, err := adaptredis.NewConnection(config.RedisConfig{URL: testEndpoint, KeyPrefix: "other"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer other.Close()
	ctx := context.Background()

	if err := testClient.Set(ctx, "shared", []byte("mine"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, found, err := other.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("a client with another prefix must not see the key")
	}

	value, found, err := testClient.Get(ctx, "shared")
	if err != nil || !found || string(value) != "mine" {
		t.Fatalf("expected own value, got %q found=%v err=%v", value, found, err)
	}
}

func TestClient_IncrWithTTL(t *testing.T) {
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := testClient.IncrWithTTL(ctx, "counter", 500*time.Millisecond)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	time.Sleep(800 * time.Millisecond)

	got, err := testClient.IncrWithTTL(ctx, "counter", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected counter to restart after expiry, got %d", got)
	}
}
