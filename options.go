package pgwire

import (
	"log/slog"
	"time"
)

// OptionFn configures a Connection before it dials. Mirrors the functional
// options pattern used throughout the example pack for server construction,
// inverted here to configure a client.
type OptionFn func(*Config)

// WithLogger sets the logger a Connection emits wire trace messages to.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) OptionFn {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithDialTimeout bounds how long Connect waits for the TCP handshake.
func WithDialTimeout(d time.Duration) OptionFn {
	return func(cfg *Config) {
		cfg.DialTimeout = d
	}
}

// WithReadTimeout sets a read deadline refreshed before every socket read. A
// deadline firing mid-message poisons the connection (spec.md §5).
func WithReadTimeout(d time.Duration) OptionFn {
	return func(cfg *Config) {
		cfg.ReadTimeout = d
	}
}

// WithDatabase sets the database named in the StartupMessage.
func WithDatabase(database string) OptionFn {
	return func(cfg *Config) {
		cfg.Database = database
	}
}

// WithPassword sets the cleartext password used to answer a Cleartext or
// MD5 authentication request.
func WithPassword(password string) OptionFn {
	return func(cfg *Config) {
		cfg.Password = password
	}
}

// WithRuntimeParameters adds extra key/value pairs to the StartupMessage
// beyond "user" and "database".
func WithRuntimeParameters(params map[string]string) OptionFn {
	return func(cfg *Config) {
		cfg.RuntimeParameters = params
	}
}

// WithNoticeObserver registers a callback invoked for every NoticeResponse
// the server sends, independent of any in-flight request (ParameterStatus
// goes to the WithParameterObserver callback instead) (spec.md §9, "an observer callback must not call back into the
// Connection synchronously").
func WithNoticeObserver(observer NoticeObserver) OptionFn {
	return func(cfg *Config) {
		cfg.Notices = observer
	}
}

// WithParameterObserver registers a callback invoked whenever the server
// reports a changed runtime parameter.
func WithParameterObserver(observer ParameterObserver) OptionFn {
	return func(cfg *Config) {
		cfg.Parameters = observer
	}
}

// Config holds the connection parameters an embedder supplies explicitly.
// This module never reads environment variables or config files for these
// values itself; the one exception is the password lookup enabled by
// WithPgpass/WithDefaultPgpass, which consults a .pgpass file on the
// caller's behalf.
type Config struct {
	Host     string
	Port     int
	User     string
	Database string
	Password string

	RuntimeParameters map[string]string

	DialTimeout time.Duration
	ReadTimeout time.Duration

	Logger *slog.Logger

	Notices    NoticeObserver
	Parameters ParameterObserver

	pgpassPath string
}

// NoticeObserver receives every NoticeResponse the server sends.
type NoticeObserver func(notice NoticeEvent)

// ParameterObserver receives every ParameterStatus the server reports.
type ParameterObserver func(name, value string)

// NewConfig builds a Config the way Connect does internally, without
// dialing. Intended for callers using Open directly (pgtest's fake server,
// custom dialers, connection pools).
func NewConfig(host string, port int, user string, opts ...OptionFn) *Config {
	return newConfig(host, port, user, opts)
}

func newConfig(host string, port int, user string, opts []OptionFn) *Config {
	cfg := &Config{
		Host:        host,
		Port:        port,
		User:        user,
		DialTimeout: 10 * time.Second,
		Logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
