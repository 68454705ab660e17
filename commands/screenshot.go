package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/autosheeeew/ui-inspector/backend"
)

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	Serial     string `json:"serial"`
	OutputPath string `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Format   string `json:"format"`
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

// ScreenshotCommand captures a PNG screenshot of the specified device via
// the backend.
func ScreenshotCommand(ctx context.Context, api *backend.Client, req ScreenshotRequest) *CommandResponse {
	serial, err := ResolveSerial(ctx, api, req.Serial)
	if err != nil {
		return NewErrorResponse(err)
	}

	imageBytes, err := api.Screenshot(ctx, serial)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error taking screenshot: %v", err))
	}

	response := ScreenshotResponse{
		Format: "png",
	}

	// Handle output
	if req.OutputPath == "-" {
		// Return as base64 data for stdout
		response.Data = base64.StdEncoding.EncodeToString(imageBytes)
	} else {
		// Save to file
		var finalPath string
		if req.OutputPath != "" {
			finalPath, err = filepath.Abs(req.OutputPath)
			if err != nil {
				return NewErrorResponse(fmt.Errorf("invalid output path: %v", err))
			}
		} else {
			// Default filename generation
			timestamp := time.Now().Format("20060102150405")
			safeSerial := strings.ReplaceAll(serial, ":", "_")
			fileName := fmt.Sprintf("screenshot-%s-%s.png", safeSerial, timestamp)
			finalPath, err = filepath.Abs("./" + fileName)
			if err != nil {
				return NewErrorResponse(fmt.Errorf("error creating default path: %v", err))
			}
		}

		// Write file
		err = os.WriteFile(finalPath, imageBytes, 0o600)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("error writing file: %v", err))
		}

		response.FilePath = finalPath
	}

	return NewSuccessResponse(response)
}
