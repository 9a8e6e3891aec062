package server

const (
	// DefaultPort is the loopback TCP listening port.
	DefaultPort = 10800
	// DefaultMaxClients bounds concurrent connections.
	DefaultMaxClients = 8
)
