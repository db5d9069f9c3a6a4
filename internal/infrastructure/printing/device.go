package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strings"
	"time"
)

// ErrBluetoothUnsupported is returned for Bluetooth RFCOMM device addresses
var ErrBluetoothUnsupported = errors.New("bluetooth printers are not supported, bind the printer to a serial device (rfcomm bind) and configure its path")

var bluetoothAddr = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// DeviceOpener opens a connection to a printer device
type DeviceOpener interface {
	Open(ctx context.Context, target string) (io.WriteCloser, error)
}

// DeviceDialer opens printer targets:
//   - a character device or file path, e.g. /dev/phomemo or /dev/rfcomm0
//   - file:///path/to/out.bin
//   - tcp://host:port for network printers
type DeviceDialer struct {
	Timeout time.Duration
}

// Open implements DeviceOpener
func (d DeviceDialer) Open(ctx context.Context, target string) (io.WriteCloser, error) {
	switch {
	case target == "":
		return nil, errors.New("printer device is not configured")
	case strings.HasPrefix(target, "bt://"), bluetoothAddr.MatchString(target):
		return nil, ErrBluetoothUnsupported
	case strings.HasPrefix(target, "tcp://"):
		return d.dial(ctx, strings.TrimPrefix(target, "tcp://"))
	case strings.HasPrefix(target, "file://"):
		return openFile(strings.TrimPrefix(target, "file://"))
	}
	return openFile(target)
}

func (d DeviceDialer) dial(ctx context.Context, addr string) (io.WriteCloser, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to printer %s: %w", addr, err)
	}
	if d.Timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(d.Timeout))
	}
	return conn, nil
}

func openFile(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open printer device %s: %w", path, err)
	}
	return f, nil
}
