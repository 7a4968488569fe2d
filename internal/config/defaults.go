package config

const (
	defaultConfigPath       = "~/.config/cyclerprep/config.toml"
	projectConfigName       = "cyclerprep.toml"
	defaultLogDir           = "~/.local/share/cyclerprep/logs"
	defaultLedgerPath       = "~/.local/share/cyclerprep/ledger.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultEncoding         = "utf-8"
	defaultMinFreeMiB       = 16
	defaultWatchPattern     = "*.csv"
	defaultSettleSeconds    = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Prepare: Prepare{
			AddState:    true,
			AddProtocol: true,
			Encoding:    defaultEncoding,
			MinFreeMiB:  defaultMinFreeMiB,
		},
		Watch: Watch{
			Pattern:       defaultWatchPattern,
			SettleSeconds: defaultSettleSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
