// Package simulator provides an in-process stand-in for the vendor
// cloud relay.
//
// It speaks the relay's websocket protocol from the server side:
// token-checked upgrades, a device list followed by a state snapshot on
// every new connection, request/response command handling, and periodic
// state broadcasts driven by a simple physics model (water heats toward
// target, the timer counts down at temperature).
//
// The server implements http.Handler, so it can be mounted on an
// httptest.Server in bridge tests or served standalone by cmd/cookersim
// for manual development against a fake relay.
//
// Test hooks:
//   - SetSilent makes the relay swallow commands, for timeout paths
//   - DropClients severs every connection, for reconnect paths
//   - WrapEvents delivers traffic inside carrier envelopes
package simulator
