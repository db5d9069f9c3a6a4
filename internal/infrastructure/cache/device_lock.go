package cache

import (
	"context"
	"sync"
	"time"

	"github.com/labelprint/labelprint/internal/domain/shared"
)

// ErrDeviceBusy is returned when a device stays locked for longer than the
// configured wait
var ErrDeviceBusy = shared.NewDomainError("PRINTER_BUSY", "Printer is busy with another label, try again")

// DeviceLocker serializes access to printer devices: one job per device at
// a time. Lock blocks until the device is free, the wait elapses or ctx is
// done. The returned release function must be called exactly once.
type DeviceLocker interface {
	Lock(ctx context.Context, device string) (release func(), err error)
}

// InMemoryDeviceLocker locks devices within this process
type InMemoryDeviceLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewInMemoryDeviceLocker creates an in-process locker. A zero wait blocks
// until ctx is done.
func NewInMemoryDeviceLocker(wait time.Duration) *InMemoryDeviceLocker {
	return &InMemoryDeviceLocker{
		wait:  wait,
		slots: make(map[string]chan struct{}),
	}
}

// Lock implements DeviceLocker
func (l *InMemoryDeviceLocker) Lock(ctx context.Context, device string) (func(), error) {
	slot := l.slot(device)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrDeviceBusy
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

func (l *InMemoryDeviceLocker) slot(device string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[device]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[device] = s
	}
	return s
}

// Ensure InMemoryDeviceLocker implements DeviceLocker
var _ DeviceLocker = (*InMemoryDeviceLocker)(nil)
