package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sessionSweepInterval is how often abandoned placement sessions are
	// swept from memory.
	sessionSweepInterval = 10 * time.Minute

	// sessionMaxAge is how long an untouched placement session survives.
	sessionMaxAge = time.Hour
)
