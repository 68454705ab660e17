package backend

import (
	"encoding/json"

	"github.com/autosheeeew/ui-inspector/hierarchy"
)

// Device is one entry of the backend's device list.
type Device struct {
	Serial   string `json:"serial"`
	Model    string `json:"model,omitempty"`
	Status   string `json:"status,omitempty"`
	Platform string `json:"platform"`
}

// DeviceInfo is the detailed device record, with the logical (points, not
// pixels) screen resolution.
type DeviceInfo struct {
	Serial   string `json:"serial"`
	Model    string `json:"model,omitempty"`
	Platform string `json:"platform"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// DumpResult is the hierarchy-dump response.
type DumpResult struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Platform   string          `json:"platform"`
	DeviceInfo *DeviceInfo     `json:"device_info,omitempty"`
	TotalNodes int             `json:"total_nodes"`
	Hierarchy  *hierarchy.Node `json:"hierarchy"`
}

// Snapshot converts a successful dump into a hierarchy snapshot.
func (r *DumpResult) Snapshot() *hierarchy.Snapshot {
	if r == nil || !r.Success || r.Hierarchy == nil {
		return nil
	}
	return &hierarchy.Snapshot{
		Platform:   r.Platform,
		TotalNodes: r.TotalNodes,
		Root:       r.Hierarchy,
	}
}

// Element is a selected element's attributes, selectors and tree path.
// It shares the hierarchy node wire format, minus children.
type Element = hierarchy.Node

// ElementResult is the response of the element-lookup endpoints.
type ElementResult struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
	Element          *Element `json:"element,omitempty"`
	TotalMatches     int      `json:"total_matches,omitempty"`
	ClickableMatches int      `json:"clickable_matches,omitempty"`
}

// XPathResult is the raw xpath-query response; match payloads pass through
// undecoded since the gateway never inspects them.
type XPathResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Count   int             `json:"count"`
	Matches json.RawMessage `json:"matches,omitempty"`
}

type tapRequest struct {
	Serial string `json:"serial"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type swipeRequest struct {
	Serial   string `json:"serial"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Duration int    `json:"duration"`
}

type elementInfoRequest struct {
	Serial   string `json:"serial"`
	NodePath []int  `json:"node_path"`
}

type findByCoordinateRequest struct {
	Serial string `json:"serial"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type xpathQueryRequest struct {
	Serial string `json:"serial"`
	XPath  string `json:"xpath"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
