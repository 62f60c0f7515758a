package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/expr"
	"github.com/macropower/browserhost/pkg/search"
	"github.com/macropower/browserhost/pkg/settings"
)

// InlayDetails describes an inlay in tool results.
type InlayDetails struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	Locked       bool   `json:"locked"`
	ClickThrough bool   `json:"clickThrough"`
}

func newInlayDetails(inlay inlays.Inlay) InlayDetails {
	return InlayDetails{
		ID:           inlay.ID,
		Name:         inlay.Name,
		URL:          inlay.URL,
		Locked:       inlay.EffectiveLocked(),
		ClickThrough: inlay.ClickThrough,
	}
}

// ListInlaysParams defines parameters for the list_inlays tool.
type ListInlaysParams struct {
	Filter string `json:"filter,omitempty"`
	Query  string `json:"query,omitempty"`
}

// ListInlaysResult contains the result of listing inlays.
type ListInlaysResult struct {
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message"`
	Inlays  []InlayDetails `json:"inlays"`
	Count   int            `json:"count"`
}

// AddInlayParams defines parameters for the add_inlay tool.
type AddInlayParams struct{}

// InlayIDParams defines parameters for tools acting on one inlay.
type InlayIDParams struct {
	ID string `json:"id"`
}

// UpdateInlayParams defines parameters for the update_inlay tool. Nil
// fields are left unchanged.
type UpdateInlayParams struct {
	Name         *string `json:"name,omitempty"`
	URL          *string `json:"url,omitempty"`
	Locked       *bool   `json:"locked,omitempty"`
	ClickThrough *bool   `json:"clickThrough,omitempty"`
	ID           string  `json:"id"`
	Navigate     bool    `json:"navigate,omitempty"`
}

// InlayResult contains the result of a tool acting on one inlay.
type InlayResult struct {
	Inlay   *InlayDetails `json:"inlay,omitempty"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message"`
}

// handleListInlays handles the list_inlays tool call.
func (s *Server) handleListInlays(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ListInlaysParams],
) (*mcp.CallToolResultFor[ListInlaysResult], error) {
	err := s.manager.WaitReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inlays: %w", err)
	}

	result := ListInlaysResult{Inlays: []InlayDetails{}}

	all := s.manager.Inlays()

	if f := params.Arguments.Filter; f != "" {
		filter, err := expr.NewFilter(f)
		if err == nil {
			all, err = filter.Apply(all)
		}
		if err != nil {
			result.Error = truncateString(err.Error(), maxErrorLength)
			result.Message = "INVALID INPUT ERROR: The filter expression could not be evaluated."

			return listInlaysResult(result, true), nil
		}
	}

	for _, m := range search.Inlays(params.Arguments.Query, all) {
		result.Inlays = append(result.Inlays, newInlayDetails(m.Inlay))
	}

	result.Count = len(result.Inlays)
	result.Message = fmt.Sprintf("Found %d inlays.", result.Count)

	return listInlaysResult(result, false), nil
}

func listInlaysResult(result ListInlaysResult, isError bool) *mcp.CallToolResultFor[ListInlaysResult] {
	return &mcp.CallToolResultFor[ListInlaysResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Message},
		},
		StructuredContent: result,
		IsError:           isError,
	}
}

// handleAddInlay handles the add_inlay tool call.
func (s *Server) handleAddInlay(
	ctx context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[AddInlayParams],
) (*mcp.CallToolResultFor[InlayResult], error) {
	err := s.manager.WaitReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("add inlay: %w", err)
	}

	inlay, err := s.manager.AddInlay(ctx)
	if err != nil {
		return nil, fmt.Errorf("add inlay: %w", err)
	}

	return inlayResult(inlay, fmt.Sprintf("Added inlay %s.", inlay.ID)), nil
}

// handleUpdateInlay handles the update_inlay tool call.
func (s *Server) handleUpdateInlay(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[UpdateInlayParams],
) (*mcp.CallToolResultFor[InlayResult], error) {
	err := s.manager.WaitReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("update inlay: %w", err)
	}

	args := params.Arguments

	// Look the inlay up first so a bad ID changes nothing.
	_, err = s.manager.Inlay(args.ID)
	if err == nil && args.Name != nil {
		err = s.manager.RenameInlay(ctx, args.ID, *args.Name)
	}
	if err == nil && args.Locked != nil {
		err = s.manager.SetInlayLocked(ctx, args.ID, *args.Locked)
	}
	if err == nil && args.ClickThrough != nil {
		err = s.manager.SetInlayClickThrough(ctx, args.ID, *args.ClickThrough)
	}
	if err == nil && args.URL != nil {
		err = s.manager.SetInlayURL(ctx, args.ID, *args.URL, args.Navigate)
	} else if err == nil && args.Navigate {
		err = s.manager.NavigateInlay(ctx, args.ID)
	}

	return s.finish(args.ID, "Updated", err)
}

// actionHandler returns a handler for a tool that runs action on one inlay.
func (s *Server) actionHandler(
	toolName string,
	action func(context.Context, string) error,
) ToolHandler[InlayIDParams, InlayResult] {
	return func(
		ctx context.Context,
		_ *mcp.ServerSession,
		params *mcp.CallToolParamsFor[InlayIDParams],
	) (*mcp.CallToolResultFor[InlayResult], error) {
		err := s.manager.WaitReady(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", toolName, err)
		}

		id := params.Arguments.ID

		// Capture the inlay before it can be removed.
		inlay, err := s.manager.Inlay(id)
		if err == nil {
			err = action(ctx, id)
		}
		if err != nil {
			return s.finish(id, "", err)
		}

		return inlayResult(inlay, fmt.Sprintf("Ran %s on inlay %s.", toolName, id)), nil
	}
}

// finish builds the result of a tool that acted on the inlay with the
// given ID. Unknown IDs are reported to the caller as invalid input.
func (s *Server) finish(id, verb string, err error) (*mcp.CallToolResultFor[InlayResult], error) {
	if errors.Is(err, settings.ErrInlayNotFound) {
		result := InlayResult{
			Error: err.Error(),
			Message: fmt.Sprintf(
				"INVALID INPUT ERROR: Inlay %q not found. Use an EXACT id from the list_inlays tool.", id,
			),
		}

		return &mcp.CallToolResultFor[InlayResult]{
			Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
			StructuredContent: result,
			IsError:           true,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	inlay, err := s.manager.Inlay(id)
	if err != nil {
		return nil, err
	}

	return inlayResult(inlay, fmt.Sprintf("%s inlay %s.", verb, id)), nil
}

func inlayResult(inlay inlays.Inlay, msg string) *mcp.CallToolResultFor[InlayResult] {
	details := newInlayDetails(inlay)

	return &mcp.CallToolResultFor[InlayResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		StructuredContent: InlayResult{
			Message: msg,
			Inlay:   &details,
		},
	}
}
