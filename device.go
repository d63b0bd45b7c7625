// go-cr95hf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr95hf.
//
// go-cr95hf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr95hf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr95hf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package cr95hf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-cr95hf/detection"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// WakePulse is the duration of the null-byte wake burst at bring-up
	WakePulse time.Duration
	// BringUpTimeout bounds each bring-up exchange (echo, identify,
	// protocol select)
	BringUpTimeout time.Duration
	// ExchangeTimeout bounds each RF exchange during tag discovery
	ExchangeTimeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		WakePulse:       100 * time.Millisecond,
		BringUpTimeout:  100 * time.Millisecond,
		ExchangeTimeout: 50 * time.Millisecond,
	}
}

// Validate checks the configuration for usable values
func (c *DeviceConfig) Validate() error {
	if c == nil {
		return ErrInvalidParameter
	}
	if c.WakePulse <= 0 || c.BringUpTimeout <= 0 || c.ExchangeTimeout <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidParameter)
	}
	return nil
}

// Device represents a CR95HF NFC/RFID transceiver
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. The
// underlying transport is assumed to be privately owned by this instance
// for its entire lifetime.
type Device struct {
	transport   Transport
	config      *DeviceConfig
	deviceName  string
	lastATQA    [2]byte
	initialized bool
}

// New creates a new CR95HF device with the given transport.
// The device is not usable until Init succeeds.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if err := device.config.Validate(); err != nil {
		return nil, err
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Init runs the bring-up state machine: wake pulse, echo self-test,
// identification query, ISO14443-A protocol selection. Each phase is a hard
// precondition for the next; any fault aborts with an InitError naming the
// phase. Init is meant to run once per device lifetime and has no retries.
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext runs bring-up with context support
func (d *Device) InitContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("init cancelled: %w", err)
	}

	if timingFor(d.transport).NeedsWakePulse {
		if err := d.transport.WakeUp(d.config.WakePulse); err != nil {
			return &InitError{Phase: InitPhaseWake, Err: err}
		}
	}

	if err := d.transport.SetTimeout(d.config.BringUpTimeout); err != nil {
		return &InitError{Phase: InitPhaseEcho, Err: err}
	}

	if err := d.transport.Echo(); err != nil {
		return &InitError{Phase: InitPhaseEcho, Err: err}
	}

	name, err := d.identify(ctx)
	if err != nil {
		return &InitError{Phase: InitPhaseIdentify, Err: err}
	}
	d.deviceName = name

	if err := d.selectISO14443A(ctx); err != nil {
		return &InitError{Phase: InitPhaseProtocol, Err: err}
	}

	d.initialized = true
	debugf("initialized device %q", d.deviceName)
	return nil
}

// identify sends the IDN command and extracts the device identity string.
// The identification payload is at least 13 bytes; the printable prefix up
// to the first null byte is the name.
func (d *Device) identify(ctx context.Context) (string, error) {
	resp, err := AsTransportContext(d.transport).SendCommandContext(ctx, cmdIDN, nil)
	if err != nil {
		return "", fmt.Errorf("identification query failed: %w", err)
	}
	if len(resp) < 1 || resp[0] != rspSuccess {
		return "", fmt.Errorf("%w: identification result code 0x%02X", ErrInvalidResponse, responseCode(resp))
	}
	payload := resp[1:]
	if len(payload) < 13 {
		return "", fmt.Errorf("%w: identification payload %d bytes, want at least 13", ErrInvalidResponse, len(payload))
	}
	return parseDeviceName(payload[:13]), nil
}

// parseDeviceName extracts the printable ASCII prefix up to the first null
func parseDeviceName(raw []byte) string {
	name := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0 {
			break
		}
		if b >= 32 && b <= 126 {
			name = append(name, b)
		}
	}
	return string(name)
}

// selectISO14443A configures the chip for ISO14443-A with default timing
func (d *Device) selectISO14443A(ctx context.Context) error {
	resp, err := AsTransportContext(d.transport).SendCommandContext(ctx, cmdProtocolSelect, []byte{protoISO14443A, 0x00})
	if err != nil {
		return fmt.Errorf("protocol selection failed: %w", err)
	}
	if len(resp) < 1 || resp[0] != rspSuccess {
		return fmt.Errorf("%w: protocol selection result code 0x%02X", ErrInvalidResponse, responseCode(resp))
	}
	return nil
}

// responseCode returns the result code of a response, or 0xFF for an empty one
func responseCode(resp []byte) byte {
	if len(resp) == 0 {
		return 0xFF
	}
	return resp[0]
}

// DeviceName returns the identity string captured at bring-up,
// e.g. "NFC FS2JAST4". Empty until Init succeeds.
func (d *Device) DeviceName() string {
	return d.deviceName
}

// LastATQA returns the most recent ATQA observed during discovery. The value
// persists across failed attempts and is idempotently overwritten by each
// attempt that receives an ATQA.
func (d *Device) LastATQA() [2]byte {
	return d.lastATQA
}

// FieldOff de-energizes the RF field by selecting the "off" protocol.
// Best effort: the response is read but not required to succeed.
func (d *Device) FieldOff() error {
	resp, err := d.transport.SendCommand(cmdProtocolSelect, []byte{protoFieldOff, 0x00})
	if err != nil {
		debugf("field off: %v", err)
		return nil
	}
	if len(resp) > 0 && resp[0] != rspSuccess {
		debugf("field off: result code 0x%02X", resp[0])
	}
	return nil
}

// SetTimeout sets the per-exchange timeout for discovery operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidParameter
	}
	d.config.ExchangeTimeout = timeout
	return nil
}

// Close turns the RF field off (best effort) and closes the transport
func (d *Device) Close() error {
	if d.transport == nil {
		return nil
	}
	if d.initialized {
		_ = d.FieldOff()
	}
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for device connection
type connectConfig struct {
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	deviceOptions          []Option
	timeout                time.Duration
	autoDetect             bool
}

// WithAutoDetection enables automatic device detection instead of using a specific path
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout sets the per-exchange timeout applied after connection
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	return config, nil
}

func createTransport(path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		return createAutoDetectedTransport(config.transportDeviceFactory)
	}
	return createManualTransport(path, config.transportFactory)
}

func setupDevice(transport Transport, config *connectConfig) (*Device, error) {
	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	if config.timeout > 0 {
		if err := device.SetTimeout(config.timeout); err != nil {
			return nil, fmt.Errorf("failed to set timeout: %w", err)
		}
	}

	return device, nil
}

// ConnectDevice creates and initializes a CR95HF device from a path or
// auto-detection. This is a high-level convenience function that handles
// transport creation and bring-up.
//
// Example usage:
//
//	// Connect to a specific serial device
//	device, err := cr95hf.ConnectDevice("/dev/ttyUSB0",
//	    cr95hf.WithTransportFactory(func(path string) (cr95hf.Transport, error) {
//	        return uart.New(path)
//	    }))
//
//	// Auto-detect a reader
//	device, err := cr95hf.ConnectDevice("", cr95hf.WithAutoDetection(), ...)
func ConnectDevice(path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to apply connect options: %w", err)
	}

	transport, err := createTransport(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	device, err := setupDevice(transport, config)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	return device, nil
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport handles auto-detection of devices
func createAutoDetectedTransport(factory TransportFromDeviceFactory) (Transport, error) {
	opts := detection.DefaultOptions()
	opts.Mode = detection.Safe

	devices, err := detection.DetectAll(&opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, errors.New("no CR95HF devices found")
	}

	device := devices[0]
	if factory == nil {
		return nil, errors.New("transport device factory not provided")
	}
	return factory(device)
}
