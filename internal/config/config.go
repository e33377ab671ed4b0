package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	IRCAddr           string        `mapstructure:"irc_addr" yaml:"irc_addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	ServerName        string `mapstructure:"server_name" yaml:"server_name"`
	CommandPrefix     string `mapstructure:"command_prefix" yaml:"command_prefix"`
	MaxLineBytes      int    `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
	CommandsPerMinute int    `mapstructure:"commands_per_minute" yaml:"commands_per_minute"`

	ConsoleEnabled     bool          `mapstructure:"console_enabled" yaml:"console_enabled"`
	ConsoleChannel     string        `mapstructure:"console_channel" yaml:"console_channel"`
	ConsoleSettleDelay time.Duration `mapstructure:"console_settle_delay" yaml:"console_settle_delay"`

	JWTSecret         string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" yaml:"admin_password_hash"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		IRCAddr:            ":6667",
		HTTPAddr:           ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		DatabasePath:       "wiregate.db",
		LogLevel:           "info",
		ServerName:         "wiregate",
		CommandPrefix:      "/",
		MaxLineBytes:       8192,
		CommandsPerMinute:  0,
		ConsoleEnabled:     true,
		ConsoleChannel:     "terminal",
		ConsoleSettleDelay: 500 * time.Millisecond,
		JWTSecret:          "change-me",
		JWTIssuer:          "wiregate",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans cannot be told apart from their zero value and are left alone.
func (c *Config) UpdateFrom(other Config) {
	if other.IRCAddr != "" {
		c.IRCAddr = other.IRCAddr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ServerName != "" {
		c.ServerName = other.ServerName
	}
	if other.CommandPrefix != "" {
		c.CommandPrefix = other.CommandPrefix
	}
	if other.MaxLineBytes != 0 {
		c.MaxLineBytes = other.MaxLineBytes
	}
	if other.CommandsPerMinute != 0 {
		c.CommandsPerMinute = other.CommandsPerMinute
	}
	if other.ConsoleChannel != "" {
		c.ConsoleChannel = other.ConsoleChannel
	}
	if other.ConsoleSettleDelay != 0 {
		c.ConsoleSettleDelay = other.ConsoleSettleDelay
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.AdminPasswordHash != "" {
		c.AdminPasswordHash = other.AdminPasswordHash
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.IRCAddr == "" {
		errs = append(errs, errors.New("irc_addr is required"))
	}
	if c.CommandPrefix == "" {
		errs = append(errs, errors.New("command_prefix is required"))
	}
	if c.MaxLineBytes <= 0 {
		errs = append(errs, errors.New("max_line_bytes must be positive"))
	}
	if c.CommandsPerMinute < 0 {
		errs = append(errs, errors.New("commands_per_minute must not be negative"))
	}
	if c.ConsoleSettleDelay < 0 {
		errs = append(errs, errors.New("console_settle_delay must not be negative"))
	}
	return errors.Join(errs...)
}
