package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/useradmin/internal/model"
)

// UserStore is the persistence the MCP tools operate on. It is satisfied by
// *store.Store.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// MCPServer wraps the mcp-go server with the user management tools and
// resources. It is an operator-local surface: the only transport offered
// is stdio.
type MCPServer struct {
	store  UserStore
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with all user tools and resources
// registered.
func NewMCPServer(store UserStore, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"useradmin",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

// destructiveAnnotation marks tools that remove data.
func destructiveAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
		IdempotentHint:  boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
