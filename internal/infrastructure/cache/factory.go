package cache

import (
	"github.com/labelprint/labelprint/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDeviceLocker picks the device locker for the configuration. Redis is
// used when enabled; if it cannot be reached the server falls back to the
// in-process locker, which is only safe with a single server instance.
func NewDeviceLocker(redisCfg config.RedisConfig, printers config.PrintersConfig, logger *zap.Logger) DeviceLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !redisCfg.Enabled {
		logger.Info("using in-memory device locks")
		return NewInMemoryDeviceLocker(printers.LockWait)
	}

	locker, err := NewRedisDeviceLocker(RedisConfig{
		Host:     redisCfg.Host,
		Port:     redisCfg.Port,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}, redisCfg.LockTTL, printers.LockWait, logger)
	if err == nil {
		logger.Info("using Redis device locks", zap.String("addr", redisCfg.RedisAddr()))
		return locker
	}

	logger.Warn("Redis unavailable, falling back to in-memory device locks. "+
		"Several server instances may now write to the same printer at once.",
		zap.Error(err),
	)
	return NewInMemoryDeviceLocker(printers.LockWait)
}
