// Package timeouts defines shared timeout constants used by the commands.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Idle closes keep-alive connections that sit unused.
const Idle = 2 * time.Minute

// StoreOpen bounds the startup store checks.
const StoreOpen = 10 * time.Second
