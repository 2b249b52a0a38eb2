package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/pkg/logger"
)

type snapshot struct {
	TotalUsers int `json:"totalUsers"`
}

func newMockRedis(t *testing.T) (*Redis, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return New(client, 10*time.Minute, logger.Nop()), mock
}

func TestRedis_SetUsesDefaultTTL(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectSet("k", "v", 10*time.Minute).SetVal("OK")

	require.NoError(t, r.Set(context.Background(), "k", "v", 0))
}

func TestRedis_GetMissingKey(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectGet("missing").RedisNil()

	value, err := r.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestRedis_GetError(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectGet("k").SetErr(errors.New("connection reset"))

	_, err := r.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "connection reset")
}

func TestRedis_JSONRoundTrip(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectSet("analytics:overview", []byte(`{"totalUsers":42}`), time.Minute).SetVal("OK")
	mock.ExpectGet("analytics:overview").SetVal(`{"totalUsers":42}`)

	require.NoError(t, r.SetJSON(context.Background(), "analytics:overview", snapshot{TotalUsers: 42}, time.Minute))

	var got snapshot
	found, err := r.GetJSON(context.Background(), "analytics:overview", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, got.TotalUsers)
}

func TestRedis_GetJSONCorruptedEntry(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectGet("analytics:overview").SetVal(`not-json`)

	var got snapshot
	found, err := r.GetJSON(context.Background(), "analytics:overview", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_Lock(t *testing.T) {
	r, mock := newMockRedis(t)
	mock.ExpectSetNX("lock:analytics", 1, time.Minute).SetVal(true)
	mock.ExpectSetNX("lock:analytics", 1, time.Minute).SetVal(false)
	mock.ExpectDel("lock:analytics").SetVal(1)

	ok, err := r.GetLock(context.Background(), "lock:analytics", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.GetLock(context.Background(), "lock:analytics", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.ReleaseLock(context.Background(), "lock:analytics"))
}
