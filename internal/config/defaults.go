package config

const (
	defaultBackendURL           = "http://localhost:8000"
	defaultRequestTimeout       = 30
	defaultUploadTimeout        = 600
	defaultPollIntervalSeconds  = 2
	defaultLanguage             = "en"
	defaultStateDir             = "~/.local/share/vid2manga"
	defaultLogDir               = "~/.local/share/vid2manga/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNotifyRequestTimeout = 10
	defaultConfigPath           = "~/.config/vid2manga/config.toml"
	projectConfigName           = "vid2manga.toml"
	backendURLEnv               = "VID2MANGA_BACKEND_URL"
	ntfyTopicEnv                = "VID2MANGA_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			BaseURL:        defaultBackendURL,
			RequestTimeout: defaultRequestTimeout,
			UploadTimeout:  defaultUploadTimeout,
		},
		Polling: Polling{
			IntervalSeconds: defaultPollIntervalSeconds,
		},
		Conversion: Conversion{
			Language: defaultLanguage,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
