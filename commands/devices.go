package commands

import (
	"context"
	"fmt"

	"github.com/autosheeeew/ui-inspector/backend"
)

// DevicesCommand lists all devices known to the backend.
func DevicesCommand(ctx context.Context, api *backend.Client) *CommandResponse {
	devices, err := api.Devices(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting devices: %v", err))
	}
	return NewSuccessResponse(devices)
}

// InfoCommand fetches a device's descriptor, auto-selecting when serial is
// empty and only one device is connected.
func InfoCommand(ctx context.Context, api *backend.Client, serial string) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	info, err := api.DeviceInfo(ctx, serial)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error getting device info: %v", err))
	}
	return NewSuccessResponse(info)
}
