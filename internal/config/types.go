package config

import "time"

type Config struct {
	Port           string
	Environment    string
	FrontendURL    string
	AllowedOrigins []string

	// idle time after which a session becomes reclaimable
	SessionTimeout time.Duration

	// absolute age cap for a session, regardless of activity
	MaxSessionAge time.Duration

	// how often the reclamation pass runs
	CleanupInterval time.Duration
}
