package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

type fakeKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.getErr != nil {
		cmd.SetErr(f.getErr)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	cmd.SetVal("OK")
	return cmd
}

func TestCache_MissThenHit(t *testing.T) {
	kv := newFakeKV()
	c := New(kv)
	ctx := context.Background()

	enc, ok, err := c.Get(ctx, "ref-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, enc)

	require.NoError(t, c.Set(ctx, "ref-1", model.FaceEncoding{0.1, -0.25, 3}, time.Hour))
	require.Equal(t, time.Hour, kv.ttls[keyPrefix+"ref-1"])

	enc, ok, err = c.Get(ctx, "ref-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.FaceEncoding{0.1, -0.25, 3}, enc)
}

func TestCache_Errors(t *testing.T) {
	kv := newFakeKV()
	c := New(kv)
	ctx := context.Background()

	kv.data[keyPrefix+"bad"] = "not json"
	_, _, err := c.Get(ctx, "bad")
	require.Error(t, err)

	kv.getErr = errors.New("conn refused")
	_, _, err = c.Get(ctx, "any")
	require.ErrorIs(t, err, kv.getErr)
}
