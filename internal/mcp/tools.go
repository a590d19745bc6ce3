package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/store"
)

// registerTools registers the user management tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Read tools -----

	srv.AddTool(
		mcp.NewTool("list_users",
			mcp.WithDescription(
				"List all managed users, newest first. Each user has an id, name, "+
					"email, role (admin or usuario) and created_at timestamp.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListUsers,
	)

	srv.AddTool(
		mcp.NewTool("get_user",
			mcp.WithDescription("Get a single managed user by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("User id"),
			),
		),
		s.handleGetUser,
	)

	// ----- Mutation tools -----

	srv.AddTool(
		mcp.NewTool("create_user",
			mcp.WithDescription(
				"Create a managed user. Name and email are trimmed and must be "+
					"non-empty. Role must be exactly \"admin\" or \"usuario\" and "+
					"defaults to \"usuario\" when omitted.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Display name"),
			),
			mcp.WithString("email",
				mcp.Required(),
				mcp.Description("Email address"),
			),
			mcp.WithString("role",
				mcp.Description("Role"),
				mcp.Enum(model.RoleAdmin, model.RoleUsuario),
			),
		),
		s.handleCreateUser,
	)

	srv.AddTool(
		mcp.NewTool("update_user",
			mcp.WithDescription(
				"Update a managed user. Omitted fields keep their current value; "+
					"the result is validated with the same rules as create_user. "+
					"The id and created_at never change.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("User id"),
			),
			mcp.WithString("name",
				mcp.Description("New display name"),
			),
			mcp.WithString("email",
				mcp.Description("New email address"),
			),
			mcp.WithString("role",
				mcp.Description("New role"),
				mcp.Enum(model.RoleAdmin, model.RoleUsuario),
			),
		),
		s.handleUpdateUser,
	)

	srv.AddTool(
		mcp.NewTool("delete_user",
			mcp.WithDescription(
				"Delete a managed user by id. Deleting an id that does not exist "+
					"succeeds and reports deleted=false.",
			),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("User id"),
			),
		),
		s.handleDeleteUser,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleListUsers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return toolError("Failed to list users: %v", err)
	}
	return successJSON(users)
}

func (s *MCPServer) handleGetUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return toolError("User %d not found", id)
	}
	if err != nil {
		return toolError("Failed to load user %d: %v", id, err)
	}
	return successJSON(u)
}

func (s *MCPServer) handleCreateUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}
	email, err := requireString(request, "email")
	if err != nil {
		return toolError("%v", err)
	}
	role, ok := optionalString(request, "role")
	if !ok {
		role = model.DefaultRole
	}

	u, err := service.ValidateUser(name, email, role)
	if err != nil {
		return toolError("Invalid user: %v", err)
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return toolError("Failed to create user: %v", err)
	}

	s.logger.Info("user created via mcp", "user_id", u.ID)
	return successJSON(u)
}

func (s *MCPServer) handleUpdateUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	current, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return toolError("User %d not found", id)
	}
	if err != nil {
		return toolError("Failed to load user %d: %v", id, err)
	}

	name, email, role := current.Name, current.Email, current.Role
	if v, ok := optionalString(request, "name"); ok {
		name = v
	}
	if v, ok := optionalString(request, "email"); ok {
		email = v
	}
	if v, ok := optionalString(request, "role"); ok {
		role = v
	}

	u, err := service.ValidateUser(name, email, role)
	if err != nil {
		return toolError("Invalid user: %v", err)
	}
	u.ID = id
	u.CreatedAt = current.CreatedAt

	err = s.store.UpdateUser(ctx, u)
	if errors.Is(err, store.ErrNotFound) {
		return toolError("User %d not found", id)
	}
	if err != nil {
		return toolError("Failed to update user %d: %v", id, err)
	}

	s.logger.Info("user updated via mcp", "user_id", id)
	return successJSON(u)
}

func (s *MCPServer) handleDeleteUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	deleted := true
	err = s.store.DeleteUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		deleted = false
	} else if err != nil {
		return toolError("Failed to delete user %d: %v", id, err)
	}

	if deleted {
		s.logger.Info("user deleted via mcp", "user_id", id)
	}
	return successJSON(map[string]interface{}{
		"id":      id,
		"deleted": deleted,
	})
}
