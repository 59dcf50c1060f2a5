// Package timeouts defines shared timeout constants used across the service.
package timeouts

import "time"

// InitialResponse is how long the interactions endpoint waits for a command
// to reply before deferring on its behalf. The platform rejects initial
// replies after three seconds.
const InitialResponse = 2500 * time.Millisecond

// DiscordRequest caps a single REST call to the platform API.
const DiscordRequest = 15 * time.Second

// Invocation caps the total run time of one command chain.
const Invocation = 14 * time.Minute

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// StoreWrite caps a single audit write.
const StoreWrite = 5 * time.Second

// Sync caps one catalog reconciliation, which makes at most two API calls.
const Sync = 30 * time.Second
