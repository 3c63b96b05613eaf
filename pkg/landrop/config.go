package landrop

import (
	"errors"
	"time"

	"github.com/rescp17/landrop/pkg/filepicker"
	"github.com/rescp17/landrop/pkg/notify"
)

// Config holds the tunables of the orchestration layer.
type Config struct {
	// PollInterval is the gap between device polls while discovery is on.
	PollInterval time.Duration

	// NotificationTTL is how long each notification stays in the feed.
	NotificationTTL time.Duration

	// PreviewLength is the number of characters of received text shown in
	// a notification before it is cut with "...".
	PreviewLength int

	// TeardownTimeout bounds the best-effort backend calls made on Close.
	TeardownTimeout time.Duration

	// DefaultFilter is handed to the file picker when SendFile has no path.
	DefaultFilter filepicker.Filter
}

// DefaultConfig returns the configuration the desktop client ships with.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:    2 * time.Second,
		NotificationTTL: notify.DefaultTTL,
		PreviewLength:   50,
		TeardownTimeout: 3 * time.Second,
		DefaultFilter:   filepicker.AllFiles,
	}
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.NotificationTTL <= 0 {
		return errors.New("notification_ttl must be positive")
	}
	if c.PreviewLength < 0 {
		return errors.New("preview_length cannot be negative")
	}
	if c.TeardownTimeout <= 0 {
		return errors.New("teardown_timeout must be positive")
	}
	return nil
}
