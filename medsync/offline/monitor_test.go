package offline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medsync-health/medsync-app/medsync/client"
	"github.com/medsync-health/medsync-app/medsync/testUtils"
)

func monitorForServer(baseURL string) (*Monitor, *fakeAPI) {
	api := newFakeAPI()
	wrapper := Wrap(api, Callbacks{})
	m := NewMonitor(wrapper, client.Config{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		RetryMax:  0,
		RetryWait: 10 * time.Millisecond,
	})
	return m, api
}

func TestMonitorCheckReachableServer(t *testing.T) {
	server := testUtils.NewFHIRServer()
	defer server.Close()

	m, _ := monitorForServer(server.URL)
	assert.True(t, m.check(context.Background()))
	assert.True(t, m.wrapper.Online())

	reqs := server.Requests()
	assert.NotEmpty(t, reqs)
	assert.Equal(t, "/metadata", reqs[0].Path)
}

func TestMonitorCheckUnreachableServer(t *testing.T) {
	server := testUtils.NewFHIRServer()
	server.Close()

	m, _ := monitorForServer(server.URL)
	assert.False(t, m.check(context.Background()))
	assert.False(t, m.wrapper.Online())
}

func TestMonitorReconnectReplaysQueue(t *testing.T) {
	server := testUtils.NewFHIRServer()
	defer server.Close()

	m, api := monitorForServer(server.URL)
	m.wrapper.SetOffline(nil)
	_, err := m.wrapper.Delete(context.Background(), "Patient", "pat-1")
	assert.Nil(t, err)
	assert.Len(t, m.wrapper.Pending(), 1)

	assert.True(t, m.check(context.Background()))
	assert.Empty(t, m.wrapper.Pending())
	assert.Len(t, api.recorded(), 1)
}
