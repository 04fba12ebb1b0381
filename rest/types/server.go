package types

import (
	"time"
)

const (
	// DefaultLoginTimeout is used when a server does not set login_timeout.
	DefaultLoginTimeout = 60 * time.Second

	// DefaultCharset is the client character set requested from the server.
	DefaultCharset = "UTF-8"
)

// ServerConfig represents a single connection profile from the servers map.
type ServerConfig struct {
	// Engine selects the SQL dialect and driver.
	// Example: mssql
	Engine string `json:"db_engine" yaml:"db_engine"`

	// Server is the database host, or the database file for embedded engines.
	// Example: db.example.com
	Server string `json:"server" yaml:"server"`

	// Port overrides the dialect default port.
	// Example: 1433
	Port string `json:"port,omitempty" yaml:"port,omitempty"`

	// DBName is the database selected on connect.
	DBName string `json:"dbname" yaml:"dbname"`

	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password"`

	// Charset defaults to UTF-8.
	Charset string `json:"charset,omitempty" yaml:"charset,omitempty"`

	// LoginTimeout is the connect timeout in seconds. Zero selects the default of 60 seconds.
	LoginTimeout int `json:"login_timeout,omitempty" yaml:"login_timeout,omitempty"`

	// QueryTimeout is the per statement timeout in seconds. Zero waits forever.
	QueryTimeout int `json:"query_timeout,omitempty" yaml:"query_timeout,omitempty"`

	// AppName is reported to servers that support it.
	AppName string `json:"appname,omitempty" yaml:"appname,omitempty"`
}

// LoginTimeoutDuration returns the connect timeout.
func (s ServerConfig) LoginTimeoutDuration() time.Duration {
	if s.LoginTimeout <= 0 {
		return DefaultLoginTimeout
	}

	return time.Duration(s.LoginTimeout) * time.Second
}

// QueryTimeoutDuration returns the per statement timeout, zero meaning none.
func (s ServerConfig) QueryTimeoutDuration() time.Duration {
	if s.QueryTimeout <= 0 {
		return 0
	}

	return time.Duration(s.QueryTimeout) * time.Second
}

// CharsetOrDefault returns the configured charset or UTF-8.
func (s ServerConfig) CharsetOrDefault() string {
	if s.Charset == "" {
		return DefaultCharset
	}

	return s.Charset
}

// Redacted returns a copy of the config without its password.
func (s ServerConfig) Redacted() ServerConfig {
	s.Password = ""

	return s
}
