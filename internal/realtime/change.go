package realtime

import (
	"context"
	"time"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpBatch  Op = "batch"
)

// Change announces that a document (or, for OpBatch, several documents) of a
// collection was written. Origin identifies the process that wrote it.
type Change struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	ID         string    `json:"id,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Bus fans changes out to subscribers. The returned cancel func stops the
// subscription.
type Bus interface {
	Publisher
	Subscribe(ctx context.Context, handler func(Change)) (cancel func(), err error)
}
