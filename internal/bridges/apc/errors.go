package apc

import "errors"

// Domain errors for the cooker bridge package.
var (
	// ErrNotConnected is returned when an operation requires a relay
	// connection but the client is not connected.
	ErrNotConnected = errors.New("apc: not connected to relay")

	// ErrConnectionFailed is returned when the connection to the relay
	// cannot be established.
	ErrConnectionFailed = errors.New("apc: connection to relay failed")

	// ErrConnectionLost is returned to callers whose requests were in
	// flight when the relay connection dropped.
	ErrConnectionLost = errors.New("apc: connection to relay lost")

	// ErrShuttingDown is returned when an operation is attempted on a
	// client that is shutting down.
	ErrShuttingDown = errors.New("apc: client shutting down")

	// ErrRequestTimeout is returned when the relay does not answer a
	// command within the configured deadline.
	ErrRequestTimeout = errors.New("apc: no response from relay within deadline")

	// ErrDiscoveryTimeout is returned when no cooker is announced within
	// the discovery deadline.
	ErrDiscoveryTimeout = errors.New("apc: no cooker discovered within deadline")

	// ErrDeviceUnresolved is returned when an operation needs a cooker
	// identity but none has been announced since the last (re)connect.
	ErrDeviceUnresolved = errors.New("apc: cooker not yet discovered")

	// ErrDeviceBusy is returned when the cooker rejects a start because
	// a cook is already running.
	ErrDeviceBusy = errors.New("apc: cooker is already cooking")

	// ErrNoActiveCook is returned when the cooker rejects a stop because
	// nothing is running.
	ErrNoActiveCook = errors.New("apc: no active cook")

	// ErrCommandRejected is returned when the relay rejects a command
	// for a reason without a dedicated sentinel.
	ErrCommandRejected = errors.New("apc: command rejected by relay")

	// ErrInvalidMessage is returned when a relay message cannot be
	// decoded.
	ErrInvalidMessage = errors.New("apc: invalid relay message")

	// ErrDuplicateRequest is returned when a request identifier is
	// already registered and awaiting a response.
	ErrDuplicateRequest = errors.New("apc: duplicate request id")
)
