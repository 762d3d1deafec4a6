package client

import (
	"strconv"
	"time"

	"github.com/medsync-health/medsync-app/conf"
	"github.com/medsync-health/medsync-app/medsync/constants"
)

// Config is a point-in-time client configuration. Snapshots are immutable:
// UpdateConfig produces a new snapshot, and every call reads the snapshot
// captured when it started, so a config change never affects in-flight
// requests.
type Config struct {
	BaseURL        string
	OrganizationID string
	Headers        map[string]string
	Timeout        time.Duration

	// Retry settings govern only the offline monitor's capability probe.
	// The request executor is strictly single-attempt.
	RetryMax  int
	RetryWait time.Duration
}

// ConfigUpdate is a partial config; nil fields keep their current value.
// Headers, when set, replace the header map wholesale.
type ConfigUpdate struct {
	BaseURL        *string
	OrganizationID *string
	Headers        map[string]string
	Timeout        *time.Duration
	RetryMax       *int
	RetryWait      *time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = constants.DefaultTimeoutMS * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = constants.DefaultRetryMax
	}
	if c.RetryWait <= 0 {
		c.RetryWait = constants.DefaultRetryWaitMS * time.Millisecond
	}
	return c
}

// merge builds the next snapshot from the current one and a partial update.
func (c Config) merge(u ConfigUpdate) Config {
	next := c
	if u.BaseURL != nil {
		next.BaseURL = *u.BaseURL
	}
	if u.OrganizationID != nil {
		next.OrganizationID = *u.OrganizationID
	}
	if u.Headers != nil {
		next.Headers = copyHeaders(u.Headers)
	}
	if u.Timeout != nil {
		next.Timeout = *u.Timeout
	}
	if u.RetryMax != nil {
		next.RetryMax = *u.RetryMax
	}
	if u.RetryWait != nil {
		next.RetryWait = *u.RetryWait
	}
	return next.withDefaults()
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	dup := make(map[string]string, len(h))
	for k, v := range h {
		dup[k] = v
	}
	return dup
}

// ConfigFromEnv builds a Config from conf-managed environment settings.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:        conf.GetEnv(constants.EnvServerURL),
		OrganizationID: conf.GetEnv(constants.EnvOrgID),
	}
	if ms, err := strconv.Atoi(conf.GetEnv(constants.EnvTimeoutMS)); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	if token := conf.GetEnv(constants.EnvAuthToken); token != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return cfg.withDefaults()
}
