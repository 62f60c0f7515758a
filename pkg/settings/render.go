package settings

import (
	"context"
	"log/slog"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/ui"
)

const (
	// WindowTitle is the label of the settings window.
	WindowTitle = "Settings##BrowserHost"

	lockedTooltip       = "Prevent the inlay from being resized or moved. This is implicitly set by Click Through."
	clickThroughTooltip = "Prevent the inlay from intercepting any mouse events."

	footerHeight = 2
)

// HeaderID returns the widget ID of the header for the inlay with the
// given ID.
func HeaderID(id string) string {
	return "header-" + id
}

// Render draws the settings panel on f. It does nothing while the panel is
// closed or before the manager is ready.
//
// Edits made in the panel are applied immediately and saved once, after
// [DefaultSaveDelay]. Inlays whose header is closed are removed after the
// whole list has been drawn.
func (m *Manager) Render(ctx context.Context, f ui.Frame) {
	if !m.IsOpen() {
		return
	}

	if _, err := m.loaded(); err != nil {
		return
	}

	open := true

	defer func() {
		if !open {
			m.Close()
		}
	}()
	defer f.End()

	if !f.Begin(WindowTitle, &open) {
		return
	}

	f.BeginChild("inlays", footerHeight)

	var (
		dirty    bool
		toRemove []string
	)

	for _, inlay := range m.Inlays() {
		headerOpen := true

		if f.CollapsingHeader(inlay.Name+"###"+HeaderID(inlay.ID), &headerOpen) {
			f.PushID(inlay.ID)
			dirty = m.renderInlay(ctx, f, inlay) || dirty
			f.PopID()
		}

		if !headerOpen {
			toRemove = append(toRemove, inlay.ID)
		}
	}

	for _, id := range toRemove {
		err := m.RemoveInlay(ctx, id)
		if err != nil {
			log.WithContext(ctx).WarnContext(ctx, "remove inlay", slog.Any("error", err))
		}
	}

	if dirty {
		m.ScheduleSave()
	}

	f.EndChild()
	f.Separator()

	if f.Button("Add new inlay") {
		_, err := m.AddInlay(ctx)
		if err != nil {
			log.WithContext(ctx).WarnContext(ctx, "add inlay", slog.Any("error", err))
		}
	}
}

// renderInlay draws the body of one inlay's header. Fields edited this
// frame are written back to the stored inlay; it reports whether there were
// any.
func (m *Manager) renderInlay(ctx context.Context, f ui.Frame, inlay inlays.Inlay) bool {
	var edits []func(*inlays.Inlay)

	name := inlay.Name
	if changed, _ := f.InputText("Name", &name, MaxNameLength); changed {
		edits = append(edits, func(i *inlays.Inlay) { i.Name = name })
	}

	url := inlay.URL

	changed, navigate := f.InputText("URL", &url, MaxURLLength)
	if changed {
		edits = append(edits, func(i *inlays.Inlay) { i.URL = url })
	}

	// Click-through implies locked: show the checkbox forced on and
	// discard any edit to it.
	locked := inlay.Locked || inlay.ClickThrough

	f.BeginDisabled(inlay.ClickThrough)
	if f.Checkbox("Locked", &locked) && !inlay.ClickThrough {
		edits = append(edits, func(i *inlays.Inlay) { i.Locked = locked })
	}
	f.EndDisabled()

	if f.IsItemHovered() {
		f.SetTooltip(lockedTooltip)
	}

	f.SameLine()

	clickThrough := inlay.ClickThrough
	if f.Checkbox("Click Through", &clickThrough) {
		edits = append(edits, func(i *inlays.Inlay) { i.ClickThrough = clickThrough })
	}

	if f.IsItemHovered() {
		f.SetTooltip(clickThroughTooltip)
	}

	reload := f.Button("Reload")

	f.SameLine()

	debug := f.Button("Open Dev Tools")

	f.Spacing(1)

	if len(edits) > 0 {
		_, err := m.update(inlay.ID, func(i *inlays.Inlay) {
			for _, edit := range edits {
				edit(i)
			}
		})
		if err != nil {
			log.WithContext(ctx).WarnContext(ctx, "apply inlay edit", slog.Any("error", err))
		}
	}

	m.renderActions(ctx, inlay.ID, navigate, reload, debug)

	return len(edits) > 0
}

func (m *Manager) renderActions(ctx context.Context, id string, navigate, reload, debug bool) {
	logger := log.WithContext(ctx)

	if navigate {
		err := m.NavigateInlay(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "navigate inlay", slog.Any("error", err))
		}
	}

	if reload {
		err := m.ReloadInlay(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "reload inlay", slog.Any("error", err))
		}
	}

	if debug {
		err := m.DebugInlay(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "debug inlay", slog.Any("error", err))
		}
	}
}
