package config

const (
	defaultProjectDir     = "~/.local/share/cutroom"
	defaultLogDir         = "~/.local/share/cutroom/logs"
	defaultPreviewDir     = "~/.local/share/cutroom/previews"
	defaultServiceBaseURL = "http://127.0.0.1:7878"
	defaultRequestTimeout = 30
	defaultPollIntervalMS = 500
	defaultRenderFormat   = "mp4"
	defaultRenderCodec    = "h264"
	defaultRenderQuality  = "high"
	defaultHistoryLimit   = 50
	defaultSimulatorBind  = "127.0.0.1:7878"
	defaultSimulatorTick  = 40
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			LogDir:     defaultLogDir,
			PreviewDir: defaultPreviewDir,
		},
		Service: Service{
			BaseURL:        defaultServiceBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Render: Render{
			PollIntervalMS: defaultPollIntervalMS,
			Format:         defaultRenderFormat,
			Codec:          defaultRenderCodec,
			Quality:        defaultRenderQuality,
		},
		Editor: Editor{
			HistoryLimit: defaultHistoryLimit,
		},
		Simulator: Simulator{
			Bind:   defaultSimulatorBind,
			TickMS: defaultSimulatorTick,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
