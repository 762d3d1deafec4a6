package offline

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/medsync-health/medsync-app/log"
	"github.com/medsync-health/medsync-app/medsync/client"
	"github.com/medsync-health/medsync-app/medsync/constants"
)

// Monitor watches server reachability for an offline.Client. While online
// it heartbeats at a fixed interval; once offline it probes the capability
// endpoint under exponential backoff and flips the wrapper back online on
// the first success, which triggers queue replay.
type Monitor struct {
	wrapper  *Client
	cfg      client.Config
	probeURL string
	probe    *retryablehttp.Client

	// Heartbeat interval while online.
	Interval time.Duration
}

func NewMonitor(wrapper *Client, cfg client.Config) *Monitor {
	probe := retryablehttp.NewClient()
	probe.RetryMax = cfg.RetryMax
	probe.RetryWaitMin = cfg.RetryWait
	probe.RetryWaitMax = 4 * cfg.RetryWait
	probe.HTTPClient.Timeout = cfg.Timeout
	probe.Logger = nil

	return &Monitor{
		wrapper:  wrapper,
		cfg:      cfg,
		probeURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/" + constants.MetadataPath,
		probe:    probe,
		Interval: 30 * time.Second,
	}
}

// Watch blocks until ctx is done, keeping the wrapper's connectivity state
// current. Run it in its own goroutine.
func (m *Monitor) Watch(ctx context.Context) {
	// Initial state determination.
	m.check(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.RetryWait
	b.MaxElapsedTime = 0 // keep probing until reconnect
	b.Reset()

	for {
		wait := m.Interval
		if !m.wrapper.Online() {
			wait = b.NextBackOff()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		wasOnline := m.wrapper.Online()
		if m.check(ctx) {
			b.Reset()
		} else if wasOnline {
			// Fresh transition; restart the backoff schedule.
			b.Reset()
		}
	}
}

// check probes once and pushes the result into the wrapper.
func (m *Monitor) check(ctx context.Context) bool {
	if m.probeOnce(ctx) {
		m.wrapper.SetOnline(ctx)
		return true
	}
	m.wrapper.SetOffline(nil)
	return false
}

// probeOnce GETs the capability endpoint through the retryable client, so
// one dropped packet does not flap the connectivity state.
func (m *Monitor) probeOnce(ctx context.Context) bool {
	req, err := retryablehttp.NewRequest(http.MethodGet, m.probeURL, nil)
	if err != nil {
		log.Offline.WithError(err).Error("Failed to build probe request")
		return false
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", constants.FHIRJSONContentType)

	resp, err := m.probe.Do(req)
	if resp != nil {
		defer func() {
			_, _ = io.Copy(ioutil.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	if err != nil {
		return false
	}
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}
