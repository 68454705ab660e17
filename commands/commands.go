// Package commands wraps backend operations into the standardized
// request/response shapes shared by the CLI and the JSON-RPC gateway.
package commands

import (
	"context"
	"fmt"

	"github.com/autosheeeew/ui-inspector/backend"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// ResolveSerial picks a device when none was specified: with exactly one
// device connected it is auto-selected, otherwise the caller must choose.
func ResolveSerial(ctx context.Context, api *backend.Client, serial string) (string, error) {
	if serial != "" {
		return serial, nil
	}

	devices, err := api.Devices(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting devices: %w", err)
	}

	if len(devices) == 0 {
		return "", fmt.Errorf("no devices found")
	}
	if len(devices) > 1 {
		return "", fmt.Errorf("multiple devices found (%d), please specify --device", len(devices))
	}
	return devices[0].Serial, nil
}
