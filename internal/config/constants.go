package config

import "tabclean/pkg/contracts"

// Application constants
const (
	AppName    = "tabclean"
	AppVersion = contracts.Version

	// Server
	DefaultPort        = 8080
	DefaultMaxPageSize = 500

	// Rate Limiting
	DefaultRateLimit = 50 // requests per second
	DefaultBurstSize = 100

	// Pipeline
	DefaultBatchConcurrency = 4

	// File Paths (relative to the working directory)
	DefaultOutputDir = "out"
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/tabclean.log"

	// Log Settings
	DefaultLogLevel = "info"
)

// API routes
const (
	APIBasePath     = "/api"
	DatasetEndpoint = "/api/dataset"
	HealthEndpoint  = "/healthz"
	MetricsEndpoint = "/metrics"
)
