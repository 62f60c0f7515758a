package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/debounce"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/store"
)

const (
	// DefaultSaveDelay is how long edits are coalesced before being saved.
	DefaultSaveDelay = time.Second
	// DefaultStoreTimeout bounds every load and save.
	DefaultStoreTimeout = 5 * time.Second

	// MaxNameLength is the maximum length of an inlay name, in bytes.
	MaxNameLength = 100
	// MaxURLLength is the maximum length of an inlay URL, in bytes.
	MaxURLLength = 1000
)

var (
	// ErrNotReady is returned by operations called before hydration completes.
	ErrNotReady = errors.New("settings not loaded yet")
	// ErrInlayNotFound is returned for IDs that are not in the collection.
	ErrInlayNotFound = errors.New("inlay not found")
)

// Manager owns the inlay collection. It persists changes to a [store.Store]
// and publishes lifecycle events on an [event.Bus].
//
// A Manager is safe for concurrent use. Events are published without
// holding internal locks, so subscribers may call back into the Manager.
type Manager struct {
	tracer    trace.Tracer
	store     store.Store
	bus       *event.Bus
	saver     *debounce.Debouncer
	ready     chan struct{}
	newID     func() string
	lastSaved atomic.Pointer[time.Time]
	// Published once by hydration, before the initial events; nil until then.
	config       atomic.Pointer[inlays.Config]
	saveDelay    time.Duration
	storeTimeout time.Duration
	initOnce     sync.Once
	// Guards the contents of config.
	mu     sync.Mutex
	saveMu sync.Mutex
	open   atomic.Bool
}

// Opt configures a [Manager].
type Opt func(*Manager)

// WithBus sets the bus events are published on.
func WithBus(bus *event.Bus) Opt {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithSaveDelay sets the debounce delay for edits. See [DefaultSaveDelay].
func WithSaveDelay(d time.Duration) Opt {
	return func(m *Manager) {
		m.saveDelay = d
	}
}

// WithStoreTimeout bounds store I/O. See [DefaultStoreTimeout].
func WithStoreTimeout(d time.Duration) Opt {
	return func(m *Manager) {
		m.storeTimeout = d
	}
}

// WithIDGenerator replaces the random UUID generator used for new inlays.
func WithIDGenerator(fn func() string) Opt {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new [Manager] backed by s. Call
// [Manager.Initialise] to load the stored inlays.
func NewManager(s store.Store, opts ...Opt) *Manager {
	m := &Manager{
		tracer:       otel.Tracer("settings"),
		store:        s,
		ready:        make(chan struct{}),
		newID:        func() string { return uuid.New().String() },
		saveDelay:    DefaultSaveDelay,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.bus == nil {
		m.bus = event.NewBus()
	}

	m.saver = debounce.New(m.saveDelay, func() {
		ctx := context.Background()

		_ = m.save(ctx) //nolint:errcheck // Logged by save.
	})

	return m
}

// Bus returns the bus lifecycle events are published on.
func (m *Manager) Bus() *event.Bus {
	return m.bus
}

// Initialise loads the stored inlays in the background and returns
// immediately. Once loaded, an [event.TypeInlayAdded] event is published
// for each inlay in stored order, and then [Manager.Ready] is closed.
// Failing to load is not an error: the collection starts empty.
// Only the first call has an effect.
func (m *Manager) Initialise(ctx context.Context) {
	m.initOnce.Do(func() {
		go m.hydrate(ctx)
	})
}

func (m *Manager) hydrate(ctx context.Context) {
	ctx, span := m.tracer.Start(ctx, "hydrate")
	defer span.End()

	logger := log.WithContext(ctx)

	loadCtx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	c, err := m.store.Load(loadCtx)
	cancel()

	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.DebugContext(ctx, "no stored inlay configuration, starting empty")
	case err != nil:
		logger.WarnContext(ctx, "load inlay configuration, starting empty", slog.Any("error", err))
	}

	if err != nil || c == nil {
		c = inlays.NewConfig()
	}

	c.EnsureDefaults()

	added := make([]*inlays.Inlay, 0, len(c.Inlays))
	for _, inlay := range c.Inlays {
		added = append(added, inlay.Clone())
	}

	m.config.Store(c)

	for _, inlay := range added {
		m.bus.Publish(event.New(ctx, event.TypeInlayAdded, inlay))
	}

	span.SetAttributes(attribute.Int("inlays", len(added)))
	logger.DebugContext(ctx, "hydrated inlays", slog.Int("inlays", len(added)))

	close(m.ready)
}

// Ready returns a channel that is closed once hydration has completed,
// including the initial [event.TypeInlayAdded] events.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until the manager is ready or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for settings: %w", ctx.Err())
	}
}

// loaded returns the published configuration. It is available to
// subscribers of the initial [event.TypeInlayAdded] events, before
// [Manager.Ready] is closed.
func (m *Manager) loaded() (*inlays.Config, error) {
	c := m.config.Load()
	if c == nil {
		return nil, ErrNotReady
	}

	return c, nil
}

// Inlays returns copies of all inlays in display order. It returns nil
// before the manager is ready.
func (m *Manager) Inlays() []inlays.Inlay {
	c, err := m.loaded()
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]inlays.Inlay, 0, len(c.Inlays))
	for _, inlay := range c.Inlays {
		out = append(out, *inlay)
	}

	return out
}

// Inlay returns a copy of the inlay with the given ID.
func (m *Manager) Inlay(id string) (inlays.Inlay, error) {
	return m.update(id, nil)
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() (*inlays.Config, error) {
	c, err := m.loaded()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return c.Clone(), nil
}

// AddInlay appends a new inlay with a fresh ID, publishes
// [event.TypeInlayAdded], and saves immediately.
func (m *Manager) AddInlay(ctx context.Context) (inlays.Inlay, error) {
	c, err := m.loaded()
	if err != nil {
		return inlays.Inlay{}, err
	}

	inlay := inlays.New(m.newID())

	ctx, span := m.tracer.Start(ctx, "add", trace.WithAttributes(
		attribute.String("inlay", inlay.ID),
	))
	defer span.End()

	m.mu.Lock()
	c.Inlays = append(c.Inlays, inlay)
	snap := *inlay
	m.mu.Unlock()

	m.bus.Publish(event.New(ctx, event.TypeInlayAdded, &snap))
	m.saveNow(ctx)

	return snap, nil
}

// NavigateInlay publishes [event.TypeInlayNavigated] for the inlay's
// current URL. An empty URL is first replaced with [inlays.BlankURL].
// Nothing is saved.
func (m *Manager) NavigateInlay(ctx context.Context, id string) error {
	return m.navigate(ctx, "navigate", id)
}

// ReloadInlay navigates the inlay to its current URL again.
func (m *Manager) ReloadInlay(ctx context.Context, id string) error {
	return m.navigate(ctx, "reload", id)
}

func (m *Manager) navigate(ctx context.Context, op, id string) error {
	ctx, span := m.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("inlay", id),
	))
	defer span.End()

	snap, err := m.update(id, func(i *inlays.Inlay) {
		i.NormalizeURL()
	})
	if err != nil {
		return err
	}

	m.bus.Publish(event.New(ctx, event.TypeInlayNavigated, &snap))

	return nil
}

// DebugInlay publishes [event.TypeInlayDebugged].
func (m *Manager) DebugInlay(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "debug", trace.WithAttributes(
		attribute.String("inlay", id),
	))
	defer span.End()

	snap, err := m.update(id, nil)
	if err != nil {
		return err
	}

	m.bus.Publish(event.New(ctx, event.TypeInlayDebugged, &snap))

	return nil
}

// RemoveInlay publishes [event.TypeInlayRemoved], then removes the inlay
// and saves immediately.
func (m *Manager) RemoveInlay(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "remove", trace.WithAttributes(
		attribute.String("inlay", id),
	))
	defer span.End()

	snap, err := m.update(id, nil)
	if err != nil {
		return err
	}

	m.bus.Publish(event.New(ctx, event.TypeInlayRemoved, &snap))

	c := m.config.Load()

	m.mu.Lock()
	c.Inlays = slices.DeleteFunc(c.Inlays, func(i *inlays.Inlay) bool {
		return i.ID == id
	})
	m.mu.Unlock()

	m.saveNow(ctx)

	return nil
}

// RenameInlay sets the inlay's name and schedules a save.
func (m *Manager) RenameInlay(ctx context.Context, id, name string) error {
	return m.edit(ctx, id, func(i *inlays.Inlay) {
		i.Name = truncate(name, MaxNameLength)
	})
}

// SetInlayURL sets the inlay's URL and schedules a save. When navigate is
// set the inlay is then navigated, as if the URL field lost focus.
func (m *Manager) SetInlayURL(ctx context.Context, id, url string, navigate bool) error {
	err := m.edit(ctx, id, func(i *inlays.Inlay) {
		i.URL = truncate(url, MaxURLLength)
	})
	if err != nil || !navigate {
		return err
	}

	return m.NavigateInlay(ctx, id)
}

// SetInlayLocked sets the inlay's stored lock and schedules a save. While
// click-through is set the inlay stays effectively locked regardless.
func (m *Manager) SetInlayLocked(ctx context.Context, id string, locked bool) error {
	return m.edit(ctx, id, func(i *inlays.Inlay) {
		i.Locked = locked
	})
}

// SetInlayClickThrough sets the inlay's click-through flag and schedules a
// save.
func (m *Manager) SetInlayClickThrough(ctx context.Context, id string, clickThrough bool) error {
	return m.edit(ctx, id, func(i *inlays.Inlay) {
		i.ClickThrough = clickThrough
	})
}

func (m *Manager) edit(ctx context.Context, id string, fn func(*inlays.Inlay)) error {
	_, err := m.update(id, fn)
	if err != nil {
		return err
	}

	log.WithContext(ctx).DebugContext(ctx, "edited inlay", slog.String("inlay", id))
	m.ScheduleSave()

	return nil
}

// update applies fn to the inlay with the given ID while holding the lock,
// and returns a copy of the result. A nil fn only looks the inlay up.
func (m *Manager) update(id string, fn func(*inlays.Inlay)) (inlays.Inlay, error) {
	c, err := m.loaded()
	if err != nil {
		return inlays.Inlay{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inlay, _ := c.Find(id)
	if inlay == nil {
		return inlays.Inlay{}, fmt.Errorf("%w: %s", ErrInlayNotFound, id)
	}

	if fn != nil {
		fn(inlay)
	}

	return *inlay, nil
}

// ScheduleSave saves after [DefaultSaveDelay] (or the configured delay),
// replacing any pending scheduled save.
func (m *Manager) ScheduleSave() {
	m.saver.Call()
}

// SavePending reports whether a scheduled save has not run yet.
func (m *Manager) SavePending() bool {
	return m.saver.Pending()
}

// Save cancels any scheduled save and saves immediately.
func (m *Manager) Save(ctx context.Context) error {
	if _, err := m.loaded(); err != nil {
		return err
	}

	m.saver.Cancel()

	return m.save(ctx)
}

// Flush runs a scheduled save now, if there is one.
func (m *Manager) Flush(ctx context.Context) error {
	if !m.saver.Cancel() {
		return nil
	}

	return m.save(ctx)
}

// LastSaved returns when the configuration was last saved successfully,
// or the zero time.
func (m *Manager) LastSaved() time.Time {
	if t := m.lastSaved.Load(); t != nil {
		return *t
	}

	return time.Time{}
}

// saveNow is used by structural changes. Failures are logged only.
func (m *Manager) saveNow(ctx context.Context) {
	m.saver.Cancel()

	_ = m.save(ctx) //nolint:errcheck // Logged by save.
}

func (m *Manager) save(ctx context.Context) error {
	c := m.config.Load()
	if c == nil {
		return ErrNotReady
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	snap := c.Clone()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	err := m.store.Save(ctx, snap)
	if err != nil {
		log.WithContext(ctx).ErrorContext(ctx, "save inlay configuration", slog.Any("error", err))

		return fmt.Errorf("save inlays: %w", err)
	}

	now := time.Now()
	m.lastSaved.Store(&now)

	return nil
}

// Open shows the settings panel.
func (m *Manager) Open() {
	m.open.Store(true)
}

// Close hides the settings panel.
func (m *Manager) Close() {
	m.open.Store(false)
}

// Toggle flips the settings panel's visibility.
func (m *Manager) Toggle() {
	for {
		v := m.open.Load()
		if m.open.CompareAndSwap(v, !v) {
			return
		}
	}
}

// IsOpen reports whether the settings panel is shown.
func (m *Manager) IsOpen() bool {
	return m.open.Load()
}

// Dispose runs any scheduled save now. Failures are logged only; call
// [Manager.Flush] first to handle them.
func (m *Manager) Dispose() {
	m.saver.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	// Avoid splitting a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
