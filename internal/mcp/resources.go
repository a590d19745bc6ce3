package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/useradmin/internal/store"
)

const (
	usersURI      = "useradmin://users"
	userURIPrefix = "useradmin://users/"
)

// registerResources exposes the user list and individual users as
// read-only resources.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			usersURI,
			"Managed Users",
			mcp.WithResourceDescription("All managed users, newest first."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleUsersResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			userURIPrefix+"{id}",
			"Managed User",
			mcp.WithTemplateDescription("A single managed user by id."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleUserResource,
	)
}

func (s *MCPServer) handleUsersResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return jsonContents(usersURI, users)
}

func (s *MCPServer) handleUserResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	raw := strings.TrimPrefix(uri, userURIPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == uri || err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid user URI %q: expected %s{id}", uri, userURIPrefix)
	}

	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return jsonContents(uri, u)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
