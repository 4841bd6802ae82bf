// Package mcp exposes the inventory tools and read-only session context over
// the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/facts"
	"homebox-voice-mcp/internal/inventory"
	"homebox-voice-mcp/internal/session"
	"homebox-voice-mcp/internal/tools"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wires the MCP runtime to one tool registry and its session.
type Server struct {
	cfg       config.Config
	registry  *tools.Registry
	session   *session.Session
	tree      inventory.TreeProvider
	engine    *facts.Engine
	logger    *zap.Logger
	mcpServer *mcpserver.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithFacts exposes the fact buffer as a resource.
func WithFacts(engine *facts.Engine) Option {
	return func(s *Server) { s.engine = engine }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer constructs the MCP server and registers every tool and resource.
func NewServer(cfg config.Config, registry *tools.Registry, sess *session.Session, tree inventory.TreeProvider, opts ...Option) (*Server, error) {
	if registry == nil || sess == nil {
		return nil, errors.New("mcp: registry and session are required")
	}

	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)

	server := &Server{
		cfg:       cfg,
		registry:  registry,
		session:   sess,
		tree:      tree,
		logger:    zap.NewNop(),
		mcpServer: mcpSrv,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.registerAllTools()
	server.registerAllResources()
	return server, nil
}

// Start serves over stdio until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// StartSSE serves over HTTP with SSE endpoints and shuts down gracefully when ctx is done.
func (s *Server) StartSSE(ctx context.Context, port int) error {
	sseServer := mcpserver.NewSSEServer(s.mcpServer, mcpserver.WithBaseURL("http://localhost:"+strconv.Itoa(port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("SSE server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ExecuteTool runs a tool directly, bypassing the protocol.
func (s *Server) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return s.registry.Call(ctx, name, args)
}

func (s *Server) registerAllTools() {
	for _, tool := range s.registry.List() {
		mcpTool := mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.Schema)
		s.mcpServer.AddTool(mcpTool, s.wrapTool(tool.Name))
	}
}

// wrapTool adapts a registry entry to an MCP handler. Failures become
// IsError results rather than protocol errors so the agent can read them.
func (s *Server) wrapTool(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result, err := s.registry.Call(ctx, name, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("tool %s failed: %v", name, err))},
				IsError: true,
			}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(result)},
		}, nil
	}
}
