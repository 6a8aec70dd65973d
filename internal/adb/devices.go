package adb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const devicePollInterval = 1 * time.Second

var (
	// ErrNoDevice indicates no authorized device is connected.
	ErrNoDevice = errors.New("no authorized devices connected")
	// ErrDeviceNotFound indicates the requested serial is not connected.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrMultipleDevices indicates a serial must be chosen explicitly.
	ErrMultipleDevices = errors.New("multiple devices connected, specify a serial")
)

// Device is one row of `adb devices -l`.
type Device struct {
	Serial      string `json:"serial"`
	State       string `json:"state"`
	Model       string `json:"model,omitempty"`
	Product     string `json:"product,omitempty"`
	DeviceName  string `json:"device,omitempty"`
	TransportID string `json:"transport_id,omitempty"`
}

// Authorized reports whether the device accepted this host's debugging key.
func (d Device) Authorized() bool {
	return d.State == "device"
}

func (d Device) String() string {
	model := d.Model
	if model == "" {
		model = "Unknown"
	}
	return fmt.Sprintf("%s (%s) - %s", d.Serial, model, d.State)
}

// Devices lists all connected devices, authorized or not.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	res := c.run(ctx, "devices", "-l")
	if !res.Ok() {
		return nil, fmt.Errorf("adb devices failed: %s", firstNonEmpty(res.Stderr, res.Stdout))
	}
	return parseDevices(res.Stdout), nil
}

// parseDevices parses `adb devices -l` output. Daemon startup messages
// may precede the "List of devices attached" header.
func parseDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		d := Device{Serial: fields[0], State: fields[1]}
		for _, field := range fields[2:] {
			key, value, found := strings.Cut(field, ":")
			if !found {
				continue
			}
			switch key {
			case "model":
				d.Model = value
			case "product":
				d.Product = value
			case "device":
				d.DeviceName = value
			case "transport_id":
				d.TransportID = value
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// SelectDevice resolves the device to operate on. An explicit serial must
// be connected and authorized. Without one, a single attached device is
// selected automatically; several require ErrMultipleDevices handling.
func (c *Client) SelectDevice(ctx context.Context, serial string) (Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return Device{}, err
	}

	var authorized []Device
	for _, d := range devices {
		if d.Authorized() {
			authorized = append(authorized, d)
		}
	}
	if len(authorized) == 0 {
		return Device{}, ErrNoDevice
	}

	if serial != "" {
		for _, d := range authorized {
			if d.Serial == serial {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}

	if len(authorized) == 1 {
		return authorized[0], nil
	}
	return Device{}, ErrMultipleDevices
}

// WaitForDevice blocks until the given device (or any device when serial
// is empty) is connected and authorized, or the timeout elapses.
func (c *Client) WaitForDevice(ctx context.Context, serial string, timeout time.Duration) error {
	attempts := uint(timeout / devicePollInterval)
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(func() error {
		devices, err := c.Devices(ctx)
		if err != nil {
			return err
		}
		for _, d := range devices {
			if d.Authorized() && (serial == "" || d.Serial == serial) {
				return nil
			}
		}
		return ErrNoDevice
	}, retry.Attempts(attempts), retry.Delay(devicePollInterval), retry.MaxDelay(devicePollInterval))
	if err != nil {
		return fmt.Errorf("device not ready after %v: %w", timeout, err)
	}
	return nil
}
