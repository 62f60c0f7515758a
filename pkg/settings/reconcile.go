package settings

import (
	"context"
	"log/slog"

	"github.com/aymanbagabas/go-udiff"
	"go.opentelemetry.io/otel/attribute"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/log"
)

// Reconcile replaces the collection with c, which was changed outside of
// this process. Events are published as if the changes had been made here:
// [event.TypeInlayRemoved] for inlays that are gone, then
// [event.TypeInlayAdded] for new inlays, then [event.TypeInlayNavigated] for
// inlays whose URL changed. The events are published once the collection
// has been replaced. A scheduled save is dropped, since it would overwrite
// the external change.
func (m *Manager) Reconcile(ctx context.Context, c *inlays.Config) error {
	cur, err := m.loaded()
	if err != nil {
		return err
	}

	ctx, span := m.tracer.Start(ctx, "reconcile")
	defer span.End()

	logger := log.WithContext(ctx)

	next := c.Clone()
	next.EnsureDefaults()

	m.saver.Cancel()

	// Diff and swap under one lock.
	m.mu.Lock()

	prev := cur.Clone()

	var removed, added, navigated []*inlays.Inlay

	for _, old := range prev.Inlays {
		if inlay, _ := next.Find(old.ID); inlay == nil {
			removed = append(removed, old)
		}
	}

	for _, inlay := range next.Inlays {
		old, _ := prev.Find(inlay.ID)

		switch {
		case old == nil:
			added = append(added, inlay.Clone())
		case old.URL != inlay.URL:
			inlay.NormalizeURL()
			navigated = append(navigated, inlay.Clone())
		}
	}

	cur.Inlays = next.Inlays
	after := cur.Clone()

	m.mu.Unlock()

	for _, inlay := range removed {
		m.bus.Publish(event.New(ctx, event.TypeInlayRemoved, inlay))
	}

	for _, inlay := range added {
		m.bus.Publish(event.New(ctx, event.TypeInlayAdded, inlay))
	}

	for _, inlay := range navigated {
		m.bus.Publish(event.New(ctx, event.TypeInlayNavigated, inlay))
	}

	span.SetAttributes(
		attribute.Int("removed", len(removed)),
		attribute.Int("added", len(added)),
		attribute.Int("navigated", len(navigated)),
	)

	logger.InfoContext(ctx, "reloaded inlay configuration",
		slog.Int("removed", len(removed)),
		slog.Int("added", len(added)),
		slog.Int("navigated", len(navigated)),
	)

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.DebugContext(ctx, "inlay configuration diff",
			slog.String("diff", diffConfigs(prev, after)),
		)
	}

	return nil
}

func diffConfigs(a, b *inlays.Config) string {
	ab, err := a.MarshalYAML()
	if err != nil {
		return err.Error()
	}

	bb, err := b.MarshalYAML()
	if err != nil {
		return err.Error()
	}

	return udiff.Unified("before", "after", string(ab), string(bb))
}
