package config

type AppConfig struct {
	DefaultCurrencyCode string `yaml:"default-currency"`
	MaxRangeDays        int    `yaml:"max-range-days"`
	SignIn              string `yaml:"sign-in-url"`
}

func (s *AppConfig) DefaultCurrency() string {
	return s.DefaultCurrencyCode
}

func (s *AppConfig) MaxDateRangeDays() int {
	return s.MaxRangeDays
}

func (s *AppConfig) SignInURL() string {
	return s.SignIn
}
