package config

// Config is the top-level configuration.
type Config struct {
	// Workers is the allow-list of worker names tasks may be bound to.
	Workers []string `json:"workers,omitempty"`

	// ControllerWorker makes plan decisions and synthesizes results.
	ControllerWorker string `json:"controller_worker,omitempty"`

	// MaxConcurrent caps simultaneous in-flight worker calls.
	MaxConcurrent int `json:"max_concurrent,omitempty"`

	// DefaultTimeoutSeconds bounds one worker call.
	DefaultTimeoutSeconds int `json:"default_timeout_seconds,omitempty"`

	// CachePath locates the response cache database; empty disables caching.
	CachePath string `json:"cache_path,omitempty"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `json:"listen_addr,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`  // debug, info, warn, error
	LogFormat string `json:"log_format,omitempty"` // text, json
}
