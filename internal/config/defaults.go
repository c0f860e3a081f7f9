package config

const (
	defaultAPIBaseURL            = "http://127.0.0.1:7490"
	defaultAPITimeoutSeconds     = 30
	defaultCacheEnabled          = true
	defaultGenerateCount         = 5
	defaultPollIntervalSeconds   = 5
	defaultServerBind            = "127.0.0.1:7490"
	defaultServerDataDir         = "~/.local/share/studyhall"
	defaultTokenTTLHours         = 24 * 30
	defaultGenerateRatePerMinute = 6
	defaultMaxUploadMiB          = 10
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds     = 90
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogDir                = "~/.local/share/studyhall/logs"
	defaultLogRetentionDays      = 30

	minGenerateCount = 1
	maxGenerateCount = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Cache: Cache{
			Enabled: defaultCacheEnabled,
			Path:    defaultCachePath(),
		},
		Review: Review{
			GenerateCount: defaultGenerateCount,
		},
		Documents: Documents{
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Server: Server{
			Bind:                  defaultServerBind,
			DataDir:               defaultServerDataDir,
			TokenTTLHours:         defaultTokenTTLHours,
			GenerateRatePerMinute: defaultGenerateRatePerMinute,
			MaxUploadMiB:          defaultMaxUploadMiB,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Dir:           defaultLogDir,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
