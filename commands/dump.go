package commands

import (
	"context"
	"fmt"

	"github.com/autosheeeew/ui-inspector/backend"
	"github.com/autosheeeew/ui-inspector/hierarchy"
	"github.com/autosheeeew/ui-inspector/mirror"
)

// DumpUIRequest represents the parameters for dumping the UI hierarchy
type DumpUIRequest struct {
	Serial string `json:"serial"`
}

// DumpUIResponse represents the response for a dump UI command
type DumpUIResponse struct {
	Platform   string          `json:"platform"`
	TotalNodes int             `json:"totalNodes"`
	Hierarchy  *hierarchy.Node `json:"hierarchy"`
}

// DumpUICommand dumps the UI hierarchy tree from the specified device.
func DumpUICommand(ctx context.Context, api *backend.Client, req DumpUIRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	dump, err := api.DumpHierarchy(ctx, serial)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to dump UI from device %s: %v", serial, err))
	}

	return NewSuccessResponse(DumpUIResponse{
		Platform:   dump.Platform,
		TotalNodes: dump.TotalNodes,
		Hierarchy:  dump.Hierarchy,
	})
}

// OverlaysRequest represents the parameters for the overlay extraction command
type OverlaysRequest struct {
	Serial string `json:"serial"`
}

// OverlaysResponse carries the interactive-element overlay list, in paint order
type OverlaysResponse struct {
	Overlays []mirror.OverlayDescriptor `json:"overlays"`
}

// OverlaysCommand dumps the hierarchy and extracts interactive-element
// overlays from it, without opening a stream session.
func OverlaysCommand(ctx context.Context, api *backend.Client, req OverlaysRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	dump, err := api.DumpHierarchy(ctx, serial)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to dump UI from device %s: %v", serial, err))
	}

	return NewSuccessResponse(OverlaysResponse{
		Overlays: mirror.ExtractInteractive(dump.Hierarchy),
	})
}

// DumpXMLRequest represents the parameters for fetching the cached raw XML
type DumpXMLRequest struct {
	Serial string `json:"serial"`
}

// DumpXMLResponse carries the raw hierarchy XML as cached by the backend
type DumpXMLResponse struct {
	XML string `json:"xml"`
}

// DumpXMLCommand fetches the raw hierarchy XML the backend cached on the
// last dump. Fails until a dump has populated the cache.
func DumpXMLCommand(ctx context.Context, api *backend.Client, req DumpXMLRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	xml, err := api.CachedXML(ctx, serial)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to fetch cached XML for device %s: %v", serial, err))
	}

	return NewSuccessResponse(DumpXMLResponse{XML: string(xml)})
}
