// Package apc implements the cooker protocol bridge for Cooker Core.
//
// This package maintains a persistent authenticated websocket connection
// to the vendor's cloud relay and translates between blocking Go calls
// and the relay's asynchronous message stream.
//
// # Architecture
//
// The relay is the only path to the appliance: commands travel up to the
// cloud and down to the cooker over wifi, and state flows back the same
// way.
//
//	┌──────────────┐  websocket  ┌──────────────┐  wifi  ┌──────────┐
//	│  Cooker Core │◄───────────►│ Vendor Relay │◄──────►│  Cooker  │
//	│  (this pkg)  │             │   (cloud)    │        │          │
//	└──────────────┘             └──────────────┘        └──────────┘
//
// # Key Responsibilities
//
//   - Authenticate and maintain the relay connection with auto-reconnect
//   - Correlate command requests with their asynchronous responses
//   - Track the cookers announced on the account and select one
//   - Cache the latest cooker state for non-blocking status reads
//   - Surface relay rejections as typed domain errors
//
// # Request Correlation
//
// Every command carries a unique requestId. The relay answers each with
// a RESPONSE bearing the same id, in any order relative to other
// traffic. The client parks each caller on a pending-request entry and
// resolves it exactly once: by matching response, by deadline, or by
// connection loss. Responses arriving after resolution are discarded
// silently.
//
// # Readiness
//
// A connected websocket is not a usable bridge: the relay must first
// announce the account's cookers. WaitUntilReady blocks until that
// announcement and is the authoritative readiness signal. Status reads
// never block; they serve the cached snapshot or fail fast.
//
// # Security
//
// The account token is presented only as a query parameter during
// connection establishment. It never appears in message payloads, and
// relay URLs are logged with the query string stripped.
//
// # Usage
//
//	client, err := apc.Connect(ctx, apc.Config{
//	    URL:   "wss://relay.example.com/ws",
//	    Token: os.Getenv("COOKERD_RELAY_TOKEN"),
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Shutdown()
//
//	if _, err := client.WaitUntilReady(ctx); err != nil {
//	    return err
//	}
//	if err := client.StartCook(ctx, 62.5, 90*time.Minute); err != nil {
//	    return err
//	}
package apc
