// Package timeouts defines shared timeout constants used by the server and CLI.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 10 * time.Second

// Upstream caps a single request to the Clash Royale API.
const Upstream = 10 * time.Second

// Store caps one storage round trip issued from a request handler.
const Store = 5 * time.Second
