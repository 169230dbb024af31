package config

import (
	"fmt"
	"strings"
)

const (
	dsnTemplate      = "user=%s password=%s host=%s dbname=%s sslmode=%s"
	sqliteDSNOptions = "_time_format=sqlite&_pragma=busy_timeout(5000)"
)

type DatabaseConfig struct {
	DriverName string `yaml:"driver"`
	Hostname   string `yaml:"host"`
	Db         string `yaml:"db"`
	User       string `yaml:"username"`
	Pswd       string `yaml:"password"`
	SSLMode    string `yaml:"sslmode"`
	File       string `yaml:"file"`
}

func (s *DatabaseConfig) Driver() string {
	return s.DriverName
}

// DSN returns the connection string for the configured driver.
func (s *DatabaseConfig) DSN() string {
	if s.DriverName == "sqlite" {
		if strings.Contains(s.File, "?") {
			return s.File
		}
		return s.File + "?" + sqliteDSNOptions
	}
	return fmt.Sprintf(dsnTemplate, s.User, s.Pswd, s.Hostname, s.Db, s.SSLMode)
}
