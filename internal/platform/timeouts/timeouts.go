// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// Delivery caps a single recipient send attempt during a campaign launch.
const Delivery = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
