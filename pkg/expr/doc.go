// Package expr provides CEL (Common Expression Language) functionality
// for selecting inlays.
//
// It creates CEL environments with custom functions for URL operations
// (urlHost, urlScheme, urlPath).
//
// Filter expressions have access to variables:
//   - `id`, `name`, `url` (string): Fields of the inlay
//   - `locked` (bool): Whether the inlay is effectively locked
//   - `clickThrough` (bool): Whether the inlay ignores mouse events
//   - `inlay` (map<string, dyn>): All of the above, keyed by name
package expr
