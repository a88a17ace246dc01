package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rohankatakam/devai/internal/errors"
)

// envelope is the JSON body every tool returns
type envelope map[string]any

func success(message string, fields envelope) *mcp.CallToolResult {
	body := envelope{"status": "success", "message": message}
	for k, v := range fields {
		body[k] = v
	}
	return jsonResult(body)
}

// failure reports err inside the envelope. Validation errors already carry
// a complete message and are passed through as is.
func failure(op string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("Failed to %s: %v", op, err)
	if errors.GetType(err) == errors.ErrorTypeValidation {
		msg = err.Error()
	}
	return jsonResult(envelope{"status": "error", "message": msg})
}

func jsonResult(body envelope) *mcp.CallToolResult {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// required reads a non-empty string argument
func required(req mcp.CallToolRequest, key string) (string, error) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", errors.ValidationErrorf("'%s' is required", key)
	}
	return v, nil
}

// csv splits a comma separated argument, dropping blanks
func csv(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
