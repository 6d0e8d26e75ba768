package cli

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds the application configuration from CLI flags
type Config struct {
	Host      string
	Port      int
	RateLimit float64
	LogLevel  string
	LogFormat string

	// Advertise announces the API over mDNS as Instance.
	Advertise bool
	Instance  string

	// Timeout bounds the wait for the initial enumeration in list, show and
	// watch. Zero waits forever.
	Timeout time.Duration
	// Duration stops watch after the given time. Zero watches until
	// interrupted.
	Duration time.Duration
	// Output is text, json or plist.
	Output string
}

func defaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      60106,
		RateLimit: 20,
		LogLevel:  "info",
		LogFormat: "text",
		Timeout:   10 * time.Second,
		Output:    "text",
	}
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Host: %s, Port: %d, RateLimit: %g, LogLevel: %s, LogFormat: %s",
		c.Host, c.Port, c.RateLimit, c.LogLevel, c.LogFormat)
}

// ConfigureLogging applies the log level and format to the standard logger.
// Log output goes to w.
func ConfigureLogging(c *Config, w io.Writer) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	switch c.LogFormat {
	case "text":
		log.SetFormatter(&log.TextFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FullTimestamp:   true,
		})
	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		return fmt.Errorf("invalid log format %q, expected text or json", c.LogFormat)
	}

	log.SetLevel(level)
	log.SetOutput(w)
	return nil
}
