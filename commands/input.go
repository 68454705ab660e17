package commands

import (
	"context"
	"fmt"

	"github.com/autosheeeew/ui-inspector/backend"
)

// defaultSwipeDurationMs matches the engine's swipe duration.
const defaultSwipeDurationMs = 300

// TapRequest represents the parameters for a tap command
type TapRequest struct {
	Serial string `json:"serial"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// SwipeRequest represents the parameters for a swipe command
type SwipeRequest struct {
	Serial   string `json:"serial"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Duration int    `json:"duration,omitempty"`
}

// TapCommand performs a tap operation on the specified device
func TapCommand(ctx context.Context, api *backend.Client, req TapRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := api.Tap(ctx, serial, req.X, req.Y); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap on device %s: %v", serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Tapped on device %s at (%d,%d)", serial, req.X, req.Y),
	})
}

// SwipeCommand performs a swipe operation on the specified device
func SwipeCommand(ctx context.Context, api *backend.Client, req SwipeRequest) *CommandResponse {
	if req.X1 < 0 || req.Y1 < 0 || req.X2 < 0 || req.Y2 < 0 {
		return NewErrorResponse(fmt.Errorf("coordinates must be non-negative"))
	}

	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	duration := req.Duration
	if duration <= 0 {
		duration = defaultSwipeDurationMs
	}

	if err := api.Swipe(ctx, serial, req.X1, req.Y1, req.X2, req.Y2, duration); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to swipe on device %s: %v", serial, err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Swiped on device %s from (%d,%d) to (%d,%d)", serial, req.X1, req.Y1, req.X2, req.Y2),
	})
}

// StreamStopRequest represents the parameters for a stream stop command
type StreamStopRequest struct {
	Serial string `json:"serial"`
}

// StreamStopCommand asks the backend to release streaming resources for a
// device. Best-effort by contract, but the outcome is still reported.
func StreamStopCommand(ctx context.Context, api *backend.Client, req StreamStopRequest) *CommandResponse {
	if req.Serial == "" {
		return NewErrorResponse(fmt.Errorf("'serial' is required"))
	}

	if err := api.StopStream(ctx, req.Serial); err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Stream stopped for device %s", req.Serial),
	})
}
