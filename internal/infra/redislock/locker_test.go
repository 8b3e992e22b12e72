package redislock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/repository"
)

// fakeRedis implements SET NX and the token-checked delete in memory.
type fakeRedis struct {
	mu     sync.Mutex
	keys   map[string]string
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return goredis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.keys[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keys[keys[0]] == args[0].(string) {
		delete(f.keys, keys[0])
		return goredis.NewCmdResult(int64(1), nil)
	}
	return goredis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

func TestLocker_AcquireRelease(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	l := New(rdb, Config{Prefix: "t:", Wait: 50 * time.Millisecond, RetryInterval: time.Millisecond}, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "card:1")
	require.NoError(t, err)
	assert.True(t, rdb.held("t:card:1"))

	_, err = l.Lock(context.Background(), "card:1")
	assert.ErrorIs(t, err, repository.ErrLockNotAcquired)

	other, err := l.Lock(context.Background(), "card:2")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, rdb.held("t:card:1"))

	again, err := l.Lock(context.Background(), "card:1")
	require.NoError(t, err)
	again()
}

func TestLocker_WaitsForRelease(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	l := New(rdb, Config{Wait: time.Second, RetryInterval: time.Millisecond}, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		unlock()
	}()

	second, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	second()
}

func TestLocker_ReleaseKeepsForeignToken(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	l := New(rdb, Config{Prefix: "p:"}, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// simulate expiry and takeover by another holder
	rdb.mu.Lock()
	rdb.keys["p:k"] = "someone-else"
	rdb.mu.Unlock()

	unlock()
	assert.True(t, rdb.held("p:k"))
}

func TestLocker_Errors(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	rdb.setErr = errors.New("connection refused")
	l := New(rdb, Config{}, zap.NewNop())

	_, err := l.Lock(context.Background(), "k")
	assert.ErrorContains(t, err, "connection refused")

	rdb2 := newFakeRedis()
	l2 := New(rdb2, Config{Wait: time.Minute, RetryInterval: time.Millisecond}, zap.NewNop())
	unlock, err := l2.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l2.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
