package mirror

import (
	"strings"

	"github.com/autosheeeew/ui-inspector/hierarchy"
)

// Overlay colors, first match wins.
const (
	ColorClickable     = "green"
	ColorScrollable    = "orange"
	ColorLongClickable = "cyan"
	ColorDefault       = "blue"
)

// Element inclusion limits. Anything outside these is noise: full-screen
// containers, divider lines, off-screen scraps.
const (
	minOverlaySide   = 10
	maxOverlayWidth  = 2000
	maxOverlayHeight = 3000
)

const (
	labelMaxLen   = 20
	labelTruncLen = 17
)

// OverlayDescriptor is one rectangle to highlight on the mirrored screen.
// Bounds are in the hierarchy's unit space; derived, ephemeral, equal by value.
type OverlayDescriptor struct {
	Bounds hierarchy.Bounds `json:"bounds"`
	Color  string           `json:"color"`
	Label  string           `json:"label"`
}

// ExtractInteractive walks a hierarchy snapshot in pre-order and returns
// overlay descriptors for the interactive elements. Invisible nodes are
// skipped but their children are still visited, since invisible containers
// may hold visible descendants. Output order is the traversal order, so
// parents precede children and later entries paint on top.
func ExtractInteractive(root *hierarchy.Node) []OverlayDescriptor {
	var overlays []OverlayDescriptor
	root.Walk(func(n *hierarchy.Node) bool {
		if n.Visible() && includeNode(n) {
			overlays = append(overlays, OverlayDescriptor{
				Bounds: *n.Bounds,
				Color:  overlayColor(n),
				Label:  overlayLabel(n),
			})
		}
		return true
	})
	return overlays
}

func includeNode(n *hierarchy.Node) bool {
	b := n.Bounds
	if b == nil || !b.PositiveArea() {
		return false
	}
	if b.W <= minOverlaySide || b.W >= maxOverlayWidth {
		return false
	}
	if b.H <= minOverlaySide || b.H >= maxOverlayHeight {
		return false
	}

	return n.Clickable() || n.Scrollable() || n.Focusable() || n.LongClickable() || n.Text() != ""
}

func overlayColor(n *hierarchy.Node) string {
	switch {
	case n.Clickable():
		return ColorClickable
	case n.Scrollable():
		return ColorScrollable
	case n.LongClickable():
		return ColorLongClickable
	default:
		return ColorDefault
	}
}

// overlayLabel picks the first non-empty of: text, resource-id's last path
// segment, content-description, the tag's last segment.
func overlayLabel(n *hierarchy.Node) string {
	if text := n.Text(); text != "" {
		return truncateLabel(text)
	}

	if id := n.ResourceID(); id != "" {
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}
		if id != "" {
			return id
		}
	}

	if desc := n.ContentDesc(); desc != "" {
		return desc
	}

	return n.TagName()
}

func truncateLabel(text string) string {
	runes := []rune(text)
	if len(runes) <= labelMaxLen {
		return text
	}
	return string(runes[:labelTruncLen]) + "…"
}
