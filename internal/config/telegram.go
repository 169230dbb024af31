package config

type TelegramConfig struct {
	ApiToken    string `yaml:"token"`
	MetricsAddr string `yaml:"metrics-listen"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

// MetricsListen is where the bot exposes /metrics. Empty disables it.
func (t *TelegramConfig) MetricsListen() string {
	return t.MetricsAddr
}
