package mirror

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autosheeeew/ui-inspector/hierarchy"
)

func clickableNode(b hierarchy.Bounds) *hierarchy.Node {
	return &hierarchy.Node{
		Tag:        "android.widget.Button",
		Attributes: map[string]string{"clickable": "true"},
		Bounds:     &b,
	}
}

func TestExtractInteractive_SizeLimits(t *testing.T) {
	root := &hierarchy.Node{
		Children: []*hierarchy.Node{
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 5, H: 100}),     // too narrow
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 10, H: 100}),    // width not strictly > 10
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 2000, H: 100}),  // width at ceiling
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 3000}),  // height at ceiling
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50}),    // included
			clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 1999, H: 2999}), // included, just under
		},
	}

	overlays := ExtractInteractive(root)

	assert.Len(t, overlays, 2)
	assert.Equal(t, hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50}, overlays[0].Bounds)
	assert.Equal(t, hierarchy.Bounds{X: 0, Y: 0, W: 1999, H: 2999}, overlays[1].Bounds)
}

func TestExtractInteractive_InvisibleParentVisibleChild(t *testing.T) {
	child := clickableNode(hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50})
	parent := &hierarchy.Node{
		Attributes: map[string]string{"clickable": "true", "visible": "false"},
		Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 100},
		Children:   []*hierarchy.Node{child},
	}

	overlays := ExtractInteractive(parent)

	// the invisible parent is skipped but its subtree is still visited
	assert.Len(t, overlays, 1)
	assert.Equal(t, child.Bounds.W, overlays[0].Bounds.W)
}

func TestExtractInteractive_TextOnlyNodeIncluded(t *testing.T) {
	root := &hierarchy.Node{
		Tag:        "android.widget.TextView",
		Attributes: map[string]string{"text": "Hello"},
		Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50},
	}

	overlays := ExtractInteractive(root)

	assert.Len(t, overlays, 1)
	assert.Equal(t, ColorDefault, overlays[0].Color)
	assert.Equal(t, "Hello", overlays[0].Label)
}

func TestExtractInteractive_InertNodeExcluded(t *testing.T) {
	root := &hierarchy.Node{
		Tag:    "android.widget.FrameLayout",
		Bounds: &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50},
	}

	assert.Empty(t, ExtractInteractive(root))
}

func TestOverlayColorPriority(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		want  string
	}{
		{"clickable wins", map[string]string{"clickable": "true", "scrollable": "true"}, ColorClickable},
		{"scrollable", map[string]string{"scrollable": "true", "long-clickable": "true"}, ColorScrollable},
		{"long-clickable", map[string]string{"long-clickable": "true"}, ColorLongClickable},
		{"focusable falls through", map[string]string{"focusable": "true"}, ColorDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &hierarchy.Node{
				Attributes: tt.attrs,
				Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50},
			}
			overlays := ExtractInteractive(node)
			assert.Len(t, overlays, 1)
			assert.Equal(t, tt.want, overlays[0].Color)
		})
	}
}

func TestOverlayLabelFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		attrs map[string]string
		want  string
	}{
		{
			"text wins",
			"android.widget.Button",
			map[string]string{"clickable": "true", "text": "OK", "resource-id": "com.app:id/ok_button"},
			"OK",
		},
		{
			"resource id segment",
			"android.widget.Button",
			map[string]string{"clickable": "true", "resource-id": "com.app:id/ok_button"},
			"ok_button",
		},
		{
			"content desc",
			"android.widget.ImageView",
			map[string]string{"clickable": "true", "content-desc": "Close dialog"},
			"Close dialog",
		},
		{
			"tag segment",
			"android.widget.CheckBox",
			map[string]string{"clickable": "true"},
			"CheckBox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &hierarchy.Node{
				Tag:        tt.tag,
				Attributes: tt.attrs,
				Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50},
			}
			overlays := ExtractInteractive(node)
			assert.Len(t, overlays, 1)
			assert.Equal(t, tt.want, overlays[0].Label)
		})
	}
}

func TestOverlayLabelTruncation(t *testing.T) {
	long := strings.Repeat("a", 25)
	node := &hierarchy.Node{
		Attributes: map[string]string{"clickable": "true", "text": long},
		Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 100, H: 50},
	}

	overlays := ExtractInteractive(node)

	assert.Len(t, overlays, 1)
	assert.Equal(t, strings.Repeat("a", 17)+"…", overlays[0].Label)
}

func TestOverlayLabelTruncationIsRuneSafe(t *testing.T) {
	long := strings.Repeat("日", 25)

	assert.Equal(t, strings.Repeat("日", 17)+"…", truncateLabel(long))
}

func TestExtractInteractive_PreOrder(t *testing.T) {
	inner := clickableNode(hierarchy.Bounds{X: 10, Y: 10, W: 50, H: 20})
	outer := &hierarchy.Node{
		Attributes: map[string]string{"scrollable": "true"},
		Bounds:     &hierarchy.Bounds{X: 0, Y: 0, W: 400, H: 800},
		Children:   []*hierarchy.Node{inner},
	}

	overlays := ExtractInteractive(outer)

	// parent first, so the child paints on top
	assert.Len(t, overlays, 2)
	assert.Equal(t, ColorScrollable, overlays[0].Color)
	assert.Equal(t, ColorClickable, overlays[1].Color)
}

func TestExtractInteractive_NilRoot(t *testing.T) {
	assert.Empty(t, ExtractInteractive(nil))
}
