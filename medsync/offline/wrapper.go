package offline

import (
	"context"
	"sync"

	"github.com/medsync-health/medsync-app/log"
	"github.com/medsync-health/medsync-app/medsync/client"
	customErrors "github.com/medsync-health/medsync-app/medsync/errors"
	"github.com/medsync-health/medsync-app/medsync/models/fhir"
)

// FHIRAPI is the slice of the FHIR client the offline layer decorates.
// *client.FHIRClient satisfies it.
type FHIRAPI interface {
	Search(ctx context.Context, resourceType string, params *client.SearchParams) (*fhir.Bundle, error)
	Get(ctx context.Context, resourceType, id string) (*fhir.Resource, error)
	Create(ctx context.Context, resourceType string, payload *fhir.Resource) (*fhir.Resource, error)
	Update(ctx context.Context, resourceType, id string, payload *fhir.Resource) (*fhir.Resource, error)
	Delete(ctx context.Context, resourceType, id string) error
	Batch(ctx context.Context, bundle *fhir.Bundle) (*fhir.Bundle, error)
	Transaction(ctx context.Context, bundle *fhir.Bundle) (*fhir.Bundle, error)
	CheckConnection(ctx context.Context) bool
	GetCapabilityStatement(ctx context.Context) (*fhir.Resource, error)
}

var _ FHIRAPI = (*client.FHIRClient)(nil)

// Callbacks let a UI collaborator observe connectivity transitions and
// replay progress. All fields are optional.
type Callbacks struct {
	OnOffline      func(err error)
	OnOnline       func()
	OnReplayed     func(op Operation)
	OnReplayFailed func(op Operation, err error)
}

type WriteStatus int

const (
	// StatusConfirmed means the server acknowledged the write.
	StatusConfirmed WriteStatus = iota
	// StatusQueued means the write is deferred in the offline queue and
	// will be replayed on reconnect.
	StatusQueued
)

// WriteResult is the outcome of a mutating call. Resource is set only for
// confirmed create/update calls; Bundle only for confirmed batch and
// transaction submissions.
type WriteResult struct {
	Status   WriteStatus
	Resource *fhir.Resource
	Bundle   *fhir.Bundle
	Op       Operation // populated when Status == StatusQueued
}

func (r *WriteResult) Queued() bool { return r.Status == StatusQueued }

// Client decorates a FHIR client with offline resilience. Read calls pass
// through untouched; mutating calls made while the server is unreachable
// resolve optimistically into the queue instead of failing.
type Client struct {
	api FHIRAPI
	q   *queue
	cb  Callbacks

	mu        sync.Mutex
	offline   bool
	replaying bool
}

// Wrap builds the resilience wrapper around api. The wrapper starts in the
// online state; use CheckNow or a Monitor for the initial determination.
func Wrap(api FHIRAPI, cb Callbacks) *Client {
	return &Client{api: api, q: &queue{}, cb: cb}
}

// Online reports the current connectivity state.
func (c *Client) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.offline
}

// Pending returns the queued operations in replay order.
func (c *Client) Pending() []Operation {
	return c.q.snapshot()
}

// SetOffline transitions to the offline state. err, when non-nil, is the
// failure that triggered the transition and is passed to OnOffline.
func (c *Client) SetOffline(err error) {
	c.mu.Lock()
	if c.offline {
		c.mu.Unlock()
		return
	}
	c.offline = true
	c.mu.Unlock()

	log.Offline.WithField("pending", c.q.len()).Warn("Connection lost; queueing writes")
	if c.cb.OnOffline != nil {
		c.cb.OnOffline(err)
	}
}

// SetOnline transitions to the online state and replays the queue. A
// replay pass already in progress absorbs the signal; no second pass is
// started.
func (c *Client) SetOnline(ctx context.Context) {
	c.mu.Lock()
	wasOffline := c.offline
	c.offline = false
	c.mu.Unlock()

	if wasOffline {
		log.Offline.WithField("pending", c.q.len()).Info("Connection restored")
		if c.cb.OnOnline != nil {
			c.cb.OnOnline()
		}
	}
	c.replay(ctx)
}

// CheckNow probes the server and updates the connectivity state. Used for
// the initial state determination and for manual "retry connection"
// requests. Never returns an error.
func (c *Client) CheckNow(ctx context.Context) bool {
	if c.api.CheckConnection(ctx) {
		c.SetOnline(ctx)
		return true
	}
	c.SetOffline(nil)
	return false
}

// Read operations: straight delegation, never queued.

func (c *Client) Search(ctx context.Context, resourceType string, params *client.SearchParams) (*fhir.Bundle, error) {
	return c.api.Search(ctx, resourceType, params)
}

func (c *Client) Get(ctx context.Context, resourceType, id string) (*fhir.Resource, error) {
	return c.api.Get(ctx, resourceType, id)
}

func (c *Client) GetCapabilityStatement(ctx context.Context) (*fhir.Resource, error) {
	return c.api.GetCapabilityStatement(ctx)
}

// Mutating operations.

func (c *Client) Create(ctx context.Context, resourceType string, payload *fhir.Resource) (*WriteResult, error) {
	op := Operation{Method: MethodCreate, ResourceType: resourceType, Resource: payload}
	if !c.Online() {
		return c.enqueue(op), nil
	}
	res, err := c.api.Create(ctx, resourceType, payload)
	if err != nil {
		return c.queueOrFail(op, err)
	}
	return &WriteResult{Status: StatusConfirmed, Resource: res}, nil
}

func (c *Client) Update(ctx context.Context, resourceType, id string, payload *fhir.Resource) (*WriteResult, error) {
	op := Operation{Method: MethodUpdate, ResourceType: resourceType, ResourceID: id, Resource: payload}
	if !c.Online() {
		return c.enqueue(op), nil
	}
	res, err := c.api.Update(ctx, resourceType, id, payload)
	if err != nil {
		return c.queueOrFail(op, err)
	}
	return &WriteResult{Status: StatusConfirmed, Resource: res}, nil
}

func (c *Client) Delete(ctx context.Context, resourceType, id string) (*WriteResult, error) {
	op := Operation{Method: MethodDelete, ResourceType: resourceType, ResourceID: id}
	if !c.Online() {
		return c.enqueue(op), nil
	}
	if err := c.api.Delete(ctx, resourceType, id); err != nil {
		return c.queueOrFail(op, err)
	}
	return &WriteResult{Status: StatusConfirmed}, nil
}

func (c *Client) Batch(ctx context.Context, bundle *fhir.Bundle) (*WriteResult, error) {
	op := Operation{Method: MethodBatch, ResourceType: fhir.TypeBundle, Bundle: bundle}
	if !c.Online() {
		return c.enqueue(op), nil
	}
	resp, err := c.api.Batch(ctx, bundle)
	if err != nil {
		return c.queueOrFail(op, err)
	}
	return &WriteResult{Status: StatusConfirmed, Bundle: resp}, nil
}

func (c *Client) Transaction(ctx context.Context, bundle *fhir.Bundle) (*WriteResult, error) {
	op := Operation{Method: MethodTransaction, ResourceType: fhir.TypeBundle, Bundle: bundle}
	if !c.Online() {
		return c.enqueue(op), nil
	}
	resp, err := c.api.Transaction(ctx, bundle)
	if err != nil {
		return c.queueOrFail(op, err)
	}
	return &WriteResult{Status: StatusConfirmed, Bundle: resp}, nil
}

func (c *Client) enqueue(op Operation) *WriteResult {
	queued := c.q.push(op)
	log.Offline.WithFields(map[string]interface{}{
		"method":        string(queued.Method),
		"resource_type": queued.ResourceType,
		"queue_depth":   c.q.len(),
	}).Info("Queued offline write")
	return &WriteResult{Status: StatusQueued, Op: queued}
}

// queueOrFail converts connectivity-class failures into queued work and
// lets protocol failures propagate to the caller untouched.
func (c *Client) queueOrFail(op Operation, err error) (*WriteResult, error) {
	if !customErrors.IsConnectivity(err) {
		return nil, err
	}
	c.SetOffline(err)
	return c.enqueue(op), nil
}

// replay drains the queue head-first. It stops on the first failure,
// leaving the failed operation and everything behind it queued for the
// next reconnect. Only one pass runs at a time.
func (c *Client) replay(ctx context.Context) {
	c.mu.Lock()
	if c.replaying {
		c.mu.Unlock()
		return
	}
	c.replaying = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.replaying = false
		c.mu.Unlock()
	}()

	for {
		op, ok := c.q.peek()
		if !ok {
			return
		}

		if err := c.apply(ctx, op); err != nil {
			log.Offline.WithFields(map[string]interface{}{
				"method":        string(op.Method),
				"resource_type": op.ResourceType,
				"queue_depth":   c.q.len(),
			}).WithError(err).Warn("Replay halted")

			if customErrors.IsConnectivity(err) {
				c.SetOffline(err)
			}
			if c.cb.OnReplayFailed != nil {
				c.cb.OnReplayFailed(op, err)
			}
			return
		}

		c.q.shift()
		if c.cb.OnReplayed != nil {
			c.cb.OnReplayed(op)
		}
	}
}

func (c *Client) apply(ctx context.Context, op Operation) error {
	var err error
	switch op.Method {
	case MethodCreate:
		_, err = c.api.Create(ctx, op.ResourceType, op.Resource)
	case MethodUpdate:
		_, err = c.api.Update(ctx, op.ResourceType, op.ResourceID, op.Resource)
	case MethodDelete:
		err = c.api.Delete(ctx, op.ResourceType, op.ResourceID)
	case MethodBatch:
		_, err = c.api.Batch(ctx, op.Bundle)
	case MethodTransaction:
		_, err = c.api.Transaction(ctx, op.Bundle)
	}
	return err
}
