package mcp

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required string argument from the tool request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// requireID extracts a positive integer id. JSON numbers arrive as float64,
// so fractional values are rejected explicitly.
func requireID(request mcp.CallToolRequest, key string) (int64, error) {
	args := request.GetArguments()
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	var id int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("parameter %q must be an integer", key)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an integer", key)
		}
		id = n
	default:
		return 0, fmt.Errorf("parameter %q must be an integer", key)
	}
	if id <= 0 {
		return 0, fmt.Errorf("parameter %q must be positive", key)
	}
	return id, nil
}

// optionalString extracts an optional string argument, reporting whether
// the key was present at all.
func optionalString(request mcp.CallToolRequest, key string) (string, bool) {
	args := request.GetArguments()
	if _, ok := args[key]; !ok {
		return "", false
	}
	return request.GetString(key, ""), true
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns an error result visible to the calling agent. The Go
// error stays nil so the client sees the message instead of a protocol
// failure.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
