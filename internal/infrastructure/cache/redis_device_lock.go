package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLockKeyPrefix = "labelprint:device:"
	lockRetryInterval    = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDeviceLocker implements DeviceLocker using Redis, so several
// server instances can share one printer
type RedisDeviceLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDeviceLocker connects to Redis and creates a locker. ttl bounds
// how long a crashed holder keeps a device locked.
func NewRedisDeviceLocker(cfg RedisConfig, ttl, wait time.Duration, logger *zap.Logger) (*RedisDeviceLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDeviceLockerWithClient(client, "", ttl, wait, logger), nil
}

// NewRedisDeviceLockerWithClient creates a locker with an existing Redis client
func NewRedisDeviceLockerWithClient(client *redis.Client, keyPrefix string, ttl, wait time.Duration, logger *zap.Logger) *RedisDeviceLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDeviceLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		wait:      wait,
		logger:    logger,
	}
}

// Lock implements DeviceLocker with SET NX PX and a random token
func (l *RedisDeviceLocker) Lock(ctx context.Context, device string) (func(), error) {
	key := l.keyPrefix + device
	token := uuid.NewString()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("failed to lock device %s: %w", device, err)
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrDeviceBusy
			}
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}, nil
}

func (l *RedisDeviceLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		l.logger.Warn("failed to release device lock", zap.String("key", key), zap.Error(err))
		return
	}
	if n == 0 {
		l.logger.Warn("device lock expired before release", zap.String("key", key))
	}
}

// Close closes the Redis client
func (l *RedisDeviceLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisDeviceLocker) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisDeviceLocker implements DeviceLocker
var _ DeviceLocker = (*RedisDeviceLocker)(nil)
