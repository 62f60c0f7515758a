package settings_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/settings"
)

func TestManager_Reconcile(t *testing.T) {
	t.Parallel()

	m, _, rec := newManager(t, stored("a", "b", "c"))
	rec.reset()

	next := stored("b", "c", "d")
	next.Inlays[0].Name = "Renamed"
	next.Inlays[1].URL = ""

	require.NoError(t, m.Reconcile(t.Context(), next))

	assert.Equal(t, []string{
		"InlayRemoved(a)",
		"InlayAdded(d)",
		"InlayNavigated(c)",
	}, rec.strings())
	assert.Equal(t, "about:blank", rec.last().Inlay.URL)

	got := m.Inlays()
	require.Len(t, got, 3)
	assert.Equal(t, "Renamed", got[0].Name)
	assert.Equal(t, "about:blank", got[1].URL)
	assert.Equal(t, "d", got[2].ID)

	// The caller keeps ownership of its config.
	next.Inlays[0].Name = "Changed again"
	inlay, err := m.Inlay("b")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", inlay.Name)
}

func TestManager_ReconcileDropsScheduledSave(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a"), settings.WithSaveDelay(20*time.Millisecond))

	require.NoError(t, m.RenameInlay(t.Context(), "a", "Local"))
	assert.True(t, m.SavePending())

	require.NoError(t, m.Reconcile(t.Context(), stored("a")))
	assert.False(t, m.SavePending())

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, s.Saves())

	inlay, err := m.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, "Inlay a", inlay.Name)
}

func TestManager_ReconcileNotReady(t *testing.T) {
	t.Parallel()

	m := settings.NewManager(nil)
	err := m.Reconcile(t.Context(), stored())
	require.ErrorIs(t, err, settings.ErrNotReady)
}

func TestManager_ReconcileKeepsConcurrentAdd(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a", "b"))

	var added inlays.Inlay

	m.Bus().Subscribe(func(evt event.Event) {
		if evt.Type != event.TypeInlayRemoved {
			return
		}

		var err error

		added, err = m.AddInlay(evt.Context())
		assert.NoError(t, err)
	})

	require.NoError(t, m.Reconcile(t.Context(), stored("b")))
	require.NotEmpty(t, added.ID)

	_, err := m.Inlay(added.ID)
	require.NoError(t, err)

	got := m.Inlays()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, added.ID, got[1].ID)
	assert.Len(t, s.Snapshot().Inlays, 2)
}
