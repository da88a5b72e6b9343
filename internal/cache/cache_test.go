package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/models"
)

// MockRedisClient is a map-backed stand-in for redis operations.
type MockRedisClient struct {
	store map[string]string
	err   error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{store: make(map[string]string)}
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := new(redis.StringCmd)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	if val, exists := m.store[key]; exists {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := new(redis.StatusCmd)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.store[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *MockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	cmd := new(redis.BoolCmd)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	if _, exists := m.store[key]; !exists {
		m.store[key] = value.(string)
		cmd.SetVal(true)
	} else {
		cmd.SetVal(false)
	}
	return cmd
}

func TestUserCacheRoundTrip(t *testing.T) {
	c := New(NewMockRedisClient())
	ctx := context.Background()

	user := models.User{ID: 7, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, c.PutUser(ctx, user))

	got, err := c.GetUser(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user, *got)
}

func TestGetUserMissReturnsNil(t *testing.T) {
	c := New(NewMockRedisClient())

	got, err := c.GetUser(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetUserErrorSurfaces(t *testing.T) {
	client := NewMockRedisClient()
	client.err = errors.New("connection refused")
	c := New(client)

	_, err := c.GetUser(context.Background(), 7)
	assert.Error(t, err)
}

func TestMarkWebhookFirstThenDuplicate(t *testing.T) {
	c := New(NewMockRedisClient())
	ctx := context.Background()

	first, err := c.MarkWebhook(ctx, "event:42:UPDATE")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.MarkWebhook(ctx, "event:42:UPDATE")
	require.NoError(t, err)
	assert.False(t, again)

	// A different delivery key is independent.
	other, err := c.MarkWebhook(ctx, "event:43:UPDATE")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMarkWebhookErrorSurfaces(t *testing.T) {
	client := NewMockRedisClient()
	client.err = errors.New("connection refused")
	c := New(client)

	_, err := c.MarkWebhook(context.Background(), "event:42:UPDATE")
	assert.Error(t, err)
}
