// Package settings implements the inlay settings manager.
//
// A [Manager] owns the ordered collection of inlay configurations. It
// hydrates the collection from a [store.Store] in the background, publishes
// lifecycle events on an [event.Bus], and draws an editable list of inlays
// once per UI frame with [Manager.Render].
//
// Structural changes (adding or removing an inlay) are saved immediately.
// Field edits are coalesced and saved once [DefaultSaveDelay] has passed
// without further edits.
package settings
