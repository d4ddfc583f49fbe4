package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// KV is the slice of a key-value server the result cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Close()
}

type valkeyKV struct {
	client valkey.Client
}

// DialValkey connects to a valkey (or redis) server at addr.
func DialValkey(addr string) (KV, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", addr, err)
	}
	return &valkeyKV{client: client}, nil
}

func (v *valkeyKV) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (v *valkeyKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return v.client.Do(ctx, v.client.B().Set().Key(key).Value(value).ExSeconds(secs).Build()).Error()
}

func (v *valkeyKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return v.client.Do(ctx, v.client.B().Del().Key(keys...).Build()).Error()
}

func (v *valkeyKV) Incr(ctx context.Context, key string) (int64, error) {
	return v.client.Do(ctx, v.client.B().Incr().Key(key).Build()).AsInt64()
}

func (v *valkeyKV) Close() { v.client.Close() }
