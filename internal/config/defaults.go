package config

const (
	defaultStateDir        = "~/.local/share/rumormill"
	defaultLogDir          = "~/.local/share/rumormill/logs"
	defaultRumorsFileName  = "rumors.json"
	defaultBind            = "0.0.0.0:8080"
	defaultNetworkHint     = "RumourMill"
	defaultTriggerSource   = TriggerSourceGPIO
	defaultGPIOChip        = "gpiochip0"
	defaultGPIOLine        = 4
	defaultPollIntervalMS  = 50
	defaultCooldownSeconds = 15
	defaultQueueCapacity   = 4
	defaultBaudRate        = 9600
	defaultFeedLines       = 10
	defaultWakeDelayMS     = 1000
	defaultNotifyTimeout   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Server: Server{
			Bind:        defaultBind,
			NetworkHint: defaultNetworkHint,
		},
		Trigger: Trigger{
			Source:          defaultTriggerSource,
			GPIOChip:        defaultGPIOChip,
			GPIOLine:        defaultGPIOLine,
			PollIntervalMS:  defaultPollIntervalMS,
			CooldownSeconds: defaultCooldownSeconds,
			QueueCapacity:   defaultQueueCapacity,
		},
		Printer: Printer{
			BaudRate:    defaultBaudRate,
			FeedLines:   defaultFeedLines,
			WakeDelayMS: defaultWakeDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Prints:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
