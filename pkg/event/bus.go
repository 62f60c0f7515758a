package event

import (
	"log/slog"
	"sync"

	"github.com/macropower/browserhost/pkg/log"
)

// Handler receives events from a [Bus].
type Handler func(Event)

// Bus delivers events synchronously, in subscription order.
// It is safe for concurrent use. Handlers may publish or subscribe.
type Bus struct {
	handlers []Handler
	mu       sync.RWMutex
}

// NewBus creates a new [Bus].
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn to receive every subsequent event.
func (b *Bus) Subscribe(fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, fn)
}

// SubscribeChan registers ch to receive every subsequent event. Sends block,
// so ch must be drained.
func (b *Bus) SubscribeChan(ch chan<- Event) {
	b.Subscribe(func(evt Event) {
		ch <- evt
	})
}

// Publish delivers evt to all subscribers.
func (b *Bus) Publish(evt Event) {
	ctx := evt.Context()

	log.WithContext(ctx).DebugContext(ctx, "broadcasting event",
		slog.String("event", evt.Type.String()),
		slog.String("inlay", evt.Inlay.ID),
	)

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// LogHandler returns a [Handler] that logs every event at info level.
func LogHandler(logger *slog.Logger) Handler {
	return func(evt Event) {
		ctx := evt.Context()

		logger.InfoContext(ctx, evt.Type.String(),
			slog.String("id", evt.Inlay.ID),
			slog.String("name", evt.Inlay.Name),
			slog.String("url", evt.Inlay.URL),
			slog.Bool("locked", evt.Inlay.EffectiveLocked()),
			slog.Bool("clickThrough", evt.Inlay.ClickThrough),
		)
	}
}
