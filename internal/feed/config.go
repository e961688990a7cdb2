package feed

// Config holds configuration for the feed server.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string
	// SubscriberBuffer is the per-websocket-subscriber message buffer.
	SubscriberBuffer int
	// CORSOrigin is the value served in Access-Control-Allow-Origin.
	CORSOrigin string
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":8080",
		SubscriberBuffer: 32,
		CORSOrigin:       "*",
	}
}
