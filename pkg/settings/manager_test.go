package settings_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/settings"
	"github.com/macropower/browserhost/pkg/store"
)

type recorder struct {
	events []event.Event
	mu     sync.Mutex
}

func (r *recorder) handle(evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)
}

func (r *recorder) strings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.String())
	}

	return out
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		n++

		return fmt.Sprintf("id-%d", n)
	}
}

func stored(ids ...string) *inlays.Config {
	c := inlays.NewConfig()
	for _, id := range ids {
		inlay := inlays.New(id)
		inlay.Name = "Inlay " + id
		inlay.URL = "https://example.com/" + id
		c.Inlays = append(c.Inlays, inlay)
	}

	return c
}

// newManager returns a ready manager backed by a memory store holding c.
func newManager(t *testing.T, c *inlays.Config, opts ...settings.Opt) (*settings.Manager, *store.MemoryStore, *recorder) {
	t.Helper()

	s := store.NewMemoryStore(c)
	rec := &recorder{}
	bus := event.NewBus()
	bus.Subscribe(rec.handle)

	opts = append([]settings.Opt{
		settings.WithBus(bus),
		settings.WithIDGenerator(sequentialIDs()),
	}, opts...)

	m := settings.NewManager(s, opts...)
	t.Cleanup(m.Dispose)

	m.Initialise(t.Context())
	require.NoError(t, m.WaitReady(t.Context()))

	return m, s, rec
}

// blockingStore blocks loads until release is closed.
type blockingStore struct {
	*store.MemoryStore

	release chan struct{}
}

func (s *blockingStore) Load(ctx context.Context) (*inlays.Config, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return s.MemoryStore.Load(ctx)
}

func TestManager_Hydrate(t *testing.T) {
	t.Parallel()

	m, s, rec := newManager(t, stored("a", "b", "c"))

	assert.Equal(t, []string{
		"InlayAdded(a)",
		"InlayAdded(b)",
		"InlayAdded(c)",
	}, rec.strings())

	got := m.Inlays()
	require.Len(t, got, 3)
	assert.Equal(t, "Inlay b", got[1].Name)
	assert.Zero(t, s.Saves(), "hydration does not save")
}

func TestManager_HydrateFallsBackToEmpty(t *testing.T) {
	t.Parallel()

	tcs := map[string]func(s *store.MemoryStore){
		"not found":  func(*store.MemoryStore) {},
		"load error": func(s *store.MemoryStore) { s.SetLoadError(errors.New("corrupt")) },
	}

	for name, setup := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := store.NewMemoryStore(nil)
			setup(s)

			rec := &recorder{}
			bus := event.NewBus()
			bus.Subscribe(rec.handle)

			m := settings.NewManager(s, settings.WithBus(bus))
			m.Initialise(t.Context())
			require.NoError(t, m.WaitReady(t.Context()))

			assert.Empty(t, m.Inlays())
			assert.Empty(t, rec.strings())

			_, err := m.AddInlay(t.Context())
			require.NoError(t, err)
			assert.Len(t, m.Inlays(), 1)
		})
	}
}

func TestManager_NotReady(t *testing.T) {
	t.Parallel()

	bs := &blockingStore{
		MemoryStore: store.NewMemoryStore(stored("a")),
		release:     make(chan struct{}),
	}

	m := settings.NewManager(bs)
	m.Initialise(t.Context())

	select {
	case <-m.Ready():
		t.Fatal("ready before load completed")
	default:
	}

	_, err := m.AddInlay(t.Context())
	require.ErrorIs(t, err, settings.ErrNotReady)
	require.ErrorIs(t, m.NavigateInlay(t.Context(), "a"), settings.ErrNotReady)
	require.ErrorIs(t, m.RemoveInlay(t.Context(), "a"), settings.ErrNotReady)
	require.ErrorIs(t, m.Save(t.Context()), settings.ErrNotReady)
	assert.Nil(t, m.Inlays())

	close(bs.release)
	require.NoError(t, m.WaitReady(t.Context()))
	require.NoError(t, m.NavigateInlay(t.Context(), "a"))
}

func TestManager_InitialiseOnce(t *testing.T) {
	t.Parallel()

	m, _, rec := newManager(t, stored("a"))

	m.Initialise(t.Context())
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"InlayAdded(a)"}, rec.strings())
}

func TestManager_AddInlayUniqueIDs(t *testing.T) {
	t.Parallel()

	m := settings.NewManager(store.NewMemoryStore(nil))
	t.Cleanup(m.Dispose)

	m.Initialise(t.Context())
	require.NoError(t, m.WaitReady(t.Context()))

	seen := map[string]bool{}

	for range 5 {
		inlay, err := m.AddInlay(t.Context())
		require.NoError(t, err)
		assert.Len(t, inlay.ID, 36)
		assert.False(t, seen[inlay.ID], "ids must be unique")

		seen[inlay.ID] = true
	}
}

func TestManager_AddInlayDefaults(t *testing.T) {
	t.Parallel()

	m, s, rec := newManager(t, stored("a"))
	rec.reset()

	inlay, err := m.AddInlay(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "id-1", inlay.ID)
	assert.Equal(t, "New inlay", inlay.Name)
	assert.Equal(t, "about:blank", inlay.URL)
	assert.False(t, inlay.Locked)
	assert.False(t, inlay.ClickThrough)

	assert.Equal(t, []string{"InlayAdded(id-1)"}, rec.strings())

	require.Equal(t, 1, s.Saves(), "adds are saved immediately")
	snap := s.Snapshot()
	require.Len(t, snap.Inlays, 2)
	assert.Equal(t, "id-1", snap.Inlays[1].ID)
	assert.False(t, m.LastSaved().IsZero())
}

func TestManager_RemoveInlay(t *testing.T) {
	t.Parallel()

	m, s, rec := newManager(t, stored("a", "b"))
	rec.reset()

	var presentDuringEvent bool

	m.Bus().Subscribe(func(evt event.Event) {
		if evt.Type == event.TypeInlayRemoved {
			_, err := m.Inlay(evt.Inlay.ID)
			presentDuringEvent = err == nil
		}
	})

	require.NoError(t, m.RemoveInlay(t.Context(), "a"))

	assert.True(t, presentDuringEvent, "removed event precedes removal")
	assert.Equal(t, []string{"InlayRemoved(a)"}, rec.strings())

	_, err := m.Inlay("a")
	require.ErrorIs(t, err, settings.ErrInlayNotFound)

	require.Equal(t, 1, s.Saves())
	snap := s.Snapshot()
	require.Len(t, snap.Inlays, 1)
	assert.Equal(t, "b", snap.Inlays[0].ID)

	require.ErrorIs(t, m.RemoveInlay(t.Context(), "a"), settings.ErrInlayNotFound)
}

func TestManager_NavigateInlay(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		url  string
		want string
	}{
		"empty url":   {url: "", want: "about:blank"},
		"regular url": {url: "https://example.com", want: "https://example.com"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, s, rec := newManager(t, stored("a"))
			require.NoError(t, m.SetInlayURL(t.Context(), "a", tc.url, false))
			rec.reset()

			require.NoError(t, m.NavigateInlay(t.Context(), "a"))

			assert.Equal(t, []string{"InlayNavigated(a)"}, rec.strings())
			assert.Equal(t, tc.want, rec.last().Inlay.URL)

			inlay, err := m.Inlay("a")
			require.NoError(t, err)
			assert.Equal(t, tc.want, inlay.URL)

			require.NoError(t, m.ReloadInlay(t.Context(), "a"))
			assert.Equal(t, []string{"InlayNavigated(a)", "InlayNavigated(a)"}, rec.strings())

			require.NoError(t, m.Flush(t.Context()))
			saves := s.Saves()

			require.NoError(t, m.NavigateInlay(t.Context(), "a"))
			assert.False(t, m.SavePending())
			assert.Equal(t, saves, s.Saves(), "navigation does not save")
		})
	}
}

func TestManager_DebugInlay(t *testing.T) {
	t.Parallel()

	m, _, rec := newManager(t, stored("a"))
	rec.reset()

	before, err := m.Inlay("a")
	require.NoError(t, err)

	require.NoError(t, m.DebugInlay(t.Context(), "a"))
	assert.Equal(t, []string{"InlayDebugged(a)"}, rec.strings())

	after, err := m.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.ErrorIs(t, m.DebugInlay(t.Context(), "missing"), settings.ErrInlayNotFound)
}

func TestManager_EditsCoalesce(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a"), settings.WithSaveDelay(50*time.Millisecond))

	for i := range 5 {
		require.NoError(t, m.RenameInlay(t.Context(), "a", fmt.Sprintf("name %d", i)))
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, m.SetInlayLocked(t.Context(), "a", true))
	require.NoError(t, m.SetInlayClickThrough(t.Context(), "a", true))
	assert.True(t, m.SavePending())
	assert.Zero(t, s.Saves())

	assert.Eventually(t, func() bool { return s.Saves() == 1 }, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, s.Saves())

	snap := s.Snapshot()
	assert.Equal(t, "name 4", snap.Inlays[0].Name)
	assert.True(t, snap.Inlays[0].Locked)
	assert.True(t, snap.Inlays[0].ClickThrough)
}

func TestManager_ImmediateSaveCancelsPending(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a"), settings.WithSaveDelay(50*time.Millisecond))

	require.NoError(t, m.RenameInlay(t.Context(), "a", "renamed"))
	require.True(t, m.SavePending())

	_, err := m.AddInlay(t.Context())
	require.NoError(t, err)
	assert.False(t, m.SavePending())
	assert.Equal(t, 1, s.Saves())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, s.Saves())
	assert.Equal(t, "renamed", s.Snapshot().Inlays[0].Name)
}

func TestManager_Flush(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a"), settings.WithSaveDelay(time.Hour))

	require.NoError(t, m.Flush(t.Context()))
	assert.Zero(t, s.Saves())

	require.NoError(t, m.RenameInlay(t.Context(), "a", "renamed"))
	require.NoError(t, m.Flush(t.Context()))
	assert.Equal(t, 1, s.Saves())
	assert.False(t, m.SavePending())
}

func TestManager_DisposeSavesPending(t *testing.T) {
	t.Parallel()

	m, s, _ := newManager(t, stored("a"), settings.WithSaveDelay(time.Hour))

	require.NoError(t, m.RenameInlay(t.Context(), "a", "renamed"))
	assert.True(t, m.SavePending())

	m.Dispose()
	assert.False(t, m.SavePending())
	require.Equal(t, 1, s.Saves())
	assert.Equal(t, "renamed", s.Snapshot().Inlays[0].Name)

	m.Dispose()
	assert.Equal(t, 1, s.Saves(), "nothing left to save")
}

func TestManager_SaveFailureIsNotSurfaced(t *testing.T) {
	t.Parallel()

	m, s, rec := newManager(t, nil)
	s.SetSaveError(errors.New("disk full"))

	inlay, err := m.AddInlay(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"InlayAdded(" + inlay.ID + ")"}, rec.strings())
	assert.Len(t, m.Inlays(), 1)

	require.Error(t, m.Save(t.Context()))
	assert.True(t, m.LastSaved().IsZero())
}

func TestManager_EditLimits(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, stored("a"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}

	require.NoError(t, m.RenameInlay(t.Context(), "a", string(long)))

	inlay, err := m.Inlay("a")
	require.NoError(t, err)
	assert.Len(t, inlay.Name, settings.MaxNameLength)

	// Multi-byte runes are not split.
	name := string(long[:99]) + "é"
	require.NoError(t, m.RenameInlay(t.Context(), "a", name))

	inlay, err = m.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, string(long[:99]), inlay.Name)

	require.ErrorIs(t, m.RenameInlay(t.Context(), "missing", "x"), settings.ErrInlayNotFound)
}

func TestManager_SetInlayURLNavigates(t *testing.T) {
	t.Parallel()

	m, _, rec := newManager(t, stored("a"))
	rec.reset()

	require.NoError(t, m.SetInlayURL(t.Context(), "a", "https://example.org", true))
	assert.Equal(t, []string{"InlayNavigated(a)"}, rec.strings())
	assert.Equal(t, "https://example.org", rec.last().Inlay.URL)
}

func TestManager_LockedIsMaskedByClickThrough(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, stored("a"))

	require.NoError(t, m.SetInlayClickThrough(t.Context(), "a", true))

	inlay, err := m.Inlay("a")
	require.NoError(t, err)
	assert.False(t, inlay.Locked)
	assert.True(t, inlay.EffectiveLocked())

	require.NoError(t, m.SetInlayClickThrough(t.Context(), "a", false))

	inlay, err = m.Inlay("a")
	require.NoError(t, err)
	assert.False(t, inlay.EffectiveLocked())
}

func TestManager_Panel(t *testing.T) {
	t.Parallel()

	m := settings.NewManager(store.NewMemoryStore(nil))

	assert.False(t, m.IsOpen())
	m.Toggle()
	assert.True(t, m.IsOpen())
	m.Toggle()
	assert.False(t, m.IsOpen())
	m.Open()
	assert.True(t, m.IsOpen())
	m.Close()
	assert.False(t, m.IsOpen())
}

func TestManager_SubscriberMayCallBack(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, nil)

	done := make(chan struct{})

	m.Bus().Subscribe(func(evt event.Event) {
		if evt.Type != event.TypeInlayAdded {
			return
		}
		// Navigating from a subscriber must not deadlock.
		assert.NoError(t, m.NavigateInlay(evt.Context(), evt.Inlay.ID))
		close(done)
	})

	_, err := m.AddInlay(t.Context())
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not run")
	}
}

func TestManager_HydrationSubscriberMayCallBack(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	m := settings.NewManager(store.NewMemoryStore(stored("a", "b")), settings.WithBus(bus))
	t.Cleanup(m.Dispose)

	var (
		mu    sync.Mutex
		names []string
		errs  []error
	)

	bus.Subscribe(func(evt event.Event) {
		inlay, err := m.Inlay(evt.Inlay.ID)

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			errs = append(errs, err)
			return
		}

		names = append(names, inlay.Name)
	})

	m.Initialise(t.Context())
	require.NoError(t, m.WaitReady(t.Context()))

	mu.Lock()
	defer mu.Unlock()

	assert.Empty(t, errs)
	assert.Equal(t, []string{"Inlay a", "Inlay b"}, names)
}
