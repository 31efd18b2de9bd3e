package config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: []string{
			"llama-3.3-70b-versatile", // best quality
			"llama-3.1-8b-instant",    // fastest
		},
		ControllerWorker:      "llama-3.1-8b-instant",
		MaxConcurrent:         3,
		DefaultTimeoutSeconds: 30,
		CachePath:             "",
		ListenAddr:            ":8080",
		LogLevel:              "info",
		LogFormat:             "text",
	}
}
