package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/version"
)

// InlayManager is the subset of the settings manager used by the tools.
type InlayManager interface {
	WaitReady(ctx context.Context) error
	Inlays() []inlays.Inlay
	Inlay(id string) (inlays.Inlay, error)
	AddInlay(ctx context.Context) (inlays.Inlay, error)
	RenameInlay(ctx context.Context, id, name string) error
	SetInlayURL(ctx context.Context, id, url string, navigate bool) error
	SetInlayLocked(ctx context.Context, id string, locked bool) error
	SetInlayClickThrough(ctx context.Context, id string, clickThrough bool) error
	NavigateInlay(ctx context.Context, id string) error
	ReloadInlay(ctx context.Context, id string) error
	DebugInlay(ctx context.Context, id string) error
	RemoveInlay(ctx context.Context, id string) error
}

// Server implements the MCP server for browserhost.
type Server struct {
	tracer  trace.Tracer
	manager InlayManager
	server  *mcp.Server
	address string
}

// NewServer creates a new MCP server instance. An empty address serves over
// stdio, anything else over streamable HTTP.
func NewServer(address string, manager InlayManager) (*Server, error) {
	if manager == nil {
		return nil, errors.New("nil inlay manager")
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	opts := &mcp.ServerOptions{
		Instructions: instructions,
	}

	s := &Server{
		tracer:  otel.Tracer("mcp"),
		address: address,
		server:  mcp.NewServer(impl, opts),
		manager: manager,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_inlays",
		Description: "List all inlays in display order. Optionally narrow the list with a CEL filter and/or a fuzzy query.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filter": {
					Type: "string",
					Description: "Optional CEL expression over the variables id, name, url, locked and clickThrough. " +
						`Example: urlHost(url) == "example.com".`,
				},
				"query": {
					Type:        "string",
					Description: "Optional fuzzy query matched against inlay names and URLs.",
				},
			},
		},
	}, WithTracing(s.tracer, s.handleListInlays))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_inlay",
		Description: "Add a new inlay showing about:blank. Returns the new inlay, including its ID.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, WithTracing(s.tracer, s.handleAddInlay))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_inlay",
		Description: "Change the fields of an inlay. Omitted fields are left unchanged. Changes are saved shortly after.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": idSchema(),
				"name": {
					Type:        "string",
					Description: "The new display name, at most 100 bytes.",
				},
				"url": {
					Type:        "string",
					Description: "The new URL, at most 1000 bytes. An empty URL shows about:blank.",
				},
				"locked": {
					Type:        "boolean",
					Description: "Prevent the inlay from being resized or moved. Implied while clickThrough is set.",
				},
				"clickThrough": {
					Type:        "boolean",
					Description: "Prevent the inlay from intercepting any mouse events.",
				},
				"navigate": {
					Type:        "boolean",
					Description: "Load the inlay's URL after applying the changes.",
				},
			},
			Required: []string{"id"},
		},
	}, WithTracing(s.tracer, s.handleUpdateInlay))

	s.addActionTool("navigate_inlay", "Load the inlay's current URL.", s.manager.NavigateInlay)
	s.addActionTool("reload_inlay", "Reload the inlay's current page.", s.manager.ReloadInlay)
	s.addActionTool("debug_inlay", "Open the developer tools for the inlay.", s.manager.DebugInlay)
	s.addActionTool("remove_inlay", "Remove the inlay. This cannot be undone.", s.manager.RemoveInlay)
}

func (s *Server) addActionTool(toolName, description string, action func(context.Context, string) error) {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolName,
		Description: description,
		InputSchema: inlayIDParamsSchema(),
	}, WithTracing(s.tracer, s.actionHandler(toolName, action)))
}

// Server returns the underlying [*mcp.Server].
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server and blocks until ctx is done or serving
// fails.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		//nolint:contextcheck // Shutdown must outlive ctx.
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.WarnContext(ctx, "shutdown MCP server", slog.Any("error", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
