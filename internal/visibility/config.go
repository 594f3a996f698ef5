package visibility

import "time"

// Config holds configuration for event stream connections
type Config struct {
	// KeepAliveInterval is how often a ping is sent to each client.
	// A client that misses two consecutive pongs is dropped.
	KeepAliveInterval time.Duration

	// SendBuffer is the number of events queued per client before it is
	// considered too slow and disconnected
	SendBuffer int

	// WriteTimeout bounds a single frame write
	WriteTimeout time.Duration

	// AllowedOrigins lists origins allowed to open the stream. Empty allows any.
	AllowedOrigins []string
}

// DefaultConfig returns the default event stream configuration.
// 10 seconds is safe for most proxies.
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		SendBuffer:        16,
		WriteTimeout:      5 * time.Second,
	}
}
