package config

import "time"

type HTTPConfig struct {
	ListenAddr            string `yaml:"listen"`
	ReadTimeoutSeconds    int    `yaml:"read-timeout-seconds"`
	WriteTimeoutSeconds   int    `yaml:"write-timeout-seconds"`
	ShutdownTimeoutSecond int    `yaml:"shutdown-timeout-seconds"`
}

func (s *HTTPConfig) Addr() string {
	return s.ListenAddr
}

func (s *HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s *HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s *HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSecond) * time.Second
}
