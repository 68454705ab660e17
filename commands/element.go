package commands

import (
	"context"
	"fmt"

	"github.com/autosheeeew/ui-inspector/backend"
)

// ElementAtRequest looks up the element under a coordinate, in the
// hierarchy's own unit space.
type ElementAtRequest struct {
	Serial string `json:"serial"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// ElementInfoRequest looks up an element by its node path.
type ElementInfoRequest struct {
	Serial   string `json:"serial"`
	NodePath []int  `json:"nodePath"`
}

// XPathRequest queries the cached hierarchy XML with an XPath expression.
type XPathRequest struct {
	Serial string `json:"serial"`
	XPath  string `json:"xpath"`
}

// ElementAtCommand finds the element at the given coordinate.
func ElementAtCommand(ctx context.Context, api *backend.Client, req ElementAtRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	result, err := api.FindByCoordinate(ctx, serial, req.X, req.Y)
	if err != nil {
		return NewErrorResponse(err)
	}
	if !result.Success {
		return NewErrorResponse(fmt.Errorf("%s", result.Error))
	}
	return NewSuccessResponse(result)
}

// ElementInfoCommand fetches element details by node path.
func ElementInfoCommand(ctx context.Context, api *backend.Client, req ElementInfoRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	result, err := api.ElementInfo(ctx, serial, req.NodePath)
	if err != nil {
		return NewErrorResponse(err)
	}
	if !result.Success {
		return NewErrorResponse(fmt.Errorf("%s", result.Error))
	}
	return NewSuccessResponse(result)
}

// XPathCommand runs an XPath query against the device's hierarchy.
func XPathCommand(ctx context.Context, api *backend.Client, req XPathRequest) *CommandResponse {
	if req.XPath == "" {
		return NewErrorResponse(fmt.Errorf("'xpath' is required"))
	}

	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	result, err := api.QueryXPath(ctx, serial, req.XPath)
	if err != nil {
		return NewErrorResponse(err)
	}
	if !result.Success {
		return NewErrorResponse(fmt.Errorf("%s", result.Error))
	}
	return NewSuccessResponse(result)
}
