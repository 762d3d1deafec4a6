// offline decorates the FHIR client with connectivity tracking and a
// durable in-memory queue of mutating operations, replayed in order once
// the server is reachable again.
package offline

import (
	"sync"
	"time"

	"github.com/pborman/uuid"

	"github.com/medsync-health/medsync-app/medsync/models/fhir"
)

type Method string

const (
	MethodCreate      Method = "create"
	MethodUpdate      Method = "update"
	MethodDelete      Method = "delete"
	MethodBatch       Method = "batch"
	MethodTransaction Method = "transaction"
)

// Operation is one deferred mutating call. Resource carries the payload
// for create/update; Bundle carries it for batch/transaction.
type Operation struct {
	ID           string
	Method       Method
	ResourceType string
	ResourceID   string
	Resource     *fhir.Resource
	Bundle       *fhir.Bundle
	EnqueuedAt   time.Time
}

// queue is an append-only FIFO until replayed. It is owned exclusively by
// the wrapping Client; nothing else enqueues or dequeues.
type queue struct {
	mu  sync.Mutex
	ops []Operation
}

func (q *queue) push(op Operation) Operation {
	op.ID = uuid.NewRandom().String()
	op.EnqueuedAt = time.Now()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
	return op
}

// peek returns the head without removing it.
func (q *queue) peek() (Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) == 0 {
		return Operation{}, false
	}
	return q.ops[0], true
}

// shift removes the head. Called only after the head replayed successfully.
func (q *queue) shift() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) > 0 {
		q.ops = q.ops[1:]
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

func (q *queue) snapshot() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Operation, len(q.ops))
	copy(out, q.ops)
	return out
}
