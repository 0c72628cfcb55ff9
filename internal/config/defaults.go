package config

const (
	defaultDataDir          = "~/.local/share/docket"
	defaultLogDir           = "~/.local/share/docket/logs"
	defaultInboxDir         = "~/docket/inbox"
	defaultAPIBind          = "127.0.0.1:7319"
	defaultMaxConcurrent    = 3
	defaultMaxRetries       = 3
	defaultRetryDelayMS     = 1000
	defaultDispatchMS       = 10
	defaultPollSeconds      = 5
	defaultScanSeconds      = 5
	defaultExtractorTimeout = 120
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".heic", ".docx", ".txt"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			InboxDir: defaultInboxDir,
			APIBind:  defaultAPIBind,
		},
		Queue: Queue{
			MaxConcurrent:    defaultMaxConcurrent,
			MaxRetries:       defaultMaxRetries,
			RetryDelay:       defaultRetryDelayMS,
			DispatchInterval: defaultDispatchMS,
			PollInterval:     defaultPollSeconds,
		},
		Intake: Intake{
			Enabled:      true,
			ScanInterval: defaultScanSeconds,
			Extensions:   defaultExtensions(),
		},
		Extractor: Extractor{
			TimeoutSeconds: defaultExtractorTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
