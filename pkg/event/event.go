// Package event defines inlay lifecycle events and a bus to deliver them.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

// Type identifies an inlay lifecycle event.
type Type int

const (
	// TypeInlayAdded is raised when an inlay enters the collection,
	// including once per stored inlay during hydration.
	TypeInlayAdded Type = iota
	// TypeInlayNavigated is raised when an inlay should (re)load its URL.
	TypeInlayNavigated
	// TypeInlayDebugged is raised when dev tools are requested for an inlay.
	TypeInlayDebugged
	// TypeInlayRemoved is raised before an inlay leaves the collection.
	TypeInlayRemoved
)

func (t Type) String() string {
	switch t {
	case TypeInlayAdded:
		return "InlayAdded"
	case TypeInlayNavigated:
		return "InlayNavigated"
	case TypeInlayDebugged:
		return "InlayDebugged"
	case TypeInlayRemoved:
		return "InlayRemoved"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Event is a lifecycle notification about a single inlay. Inlay is a copy
// taken when the event was raised.
type Event struct {
	ctx       context.Context //nolint:containedctx // Carries the trace of the operation.
	Timestamp time.Time
	Inlay     inlays.Inlay
	Type      Type
}

// New creates a new [Event] for a copy of inlay.
func New(ctx context.Context, t Type, inlay *inlays.Inlay) Event {
	return Event{
		ctx:       ctx,
		Type:      t,
		Inlay:     *inlay,
		Timestamp: time.Now(),
	}
}

// Context returns the context of the operation that raised the event.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}

	return e.ctx
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Type, e.Inlay.ID)
}
