package mirror

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/autosheeeew/ui-inspector/utils"
)

// frameBufPool recycles frame byte buffers. A 1080p JPEG at streaming
// quality is well under 256KiB, so most frames avoid reallocation.
var frameBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 256<<10)
		return &buf
	},
}

// Frame is one decoded image from the live stream. Exactly one frame buffer
// is live at a time: the engine releases the previous frame when installing
// a new one, and subscribers must not retain Bytes past their callback.
type Frame struct {
	Bytes    []byte
	Width    int
	Height   int
	RecvTime time.Time

	buf      *[]byte
	released atomic.Bool
}

// DecodeFrame probes an encoded JPEG for its pixel dimensions and wraps it
// in a pooled buffer. The input slice is copied and may be reused by the
// caller immediately.
func DecodeFrame(data []byte, recvTime time.Time) (*Frame, error) {
	width, height, err := utils.JpegDimensions(data)
	if err != nil {
		return nil, err
	}

	buf := frameBufPool.Get().(*[]byte)
	*buf = append((*buf)[:0], data...)

	return &Frame{
		Bytes:    *buf,
		Width:    width,
		Height:   height,
		RecvTime: recvTime,
		buf:      buf,
	}, nil
}

// Metadata returns the frame's pixel dimensions.
func (f *Frame) Metadata() FrameMetadata {
	return FrameMetadata{Width: f.Width, Height: f.Height}
}

// Release returns the frame buffer to the pool. Idempotent, so replacement
// and teardown may both call it.
func (f *Frame) Release() {
	if f == nil || !f.released.CompareAndSwap(false, true) {
		return
	}
	f.Bytes = nil
	frameBufPool.Put(f.buf)
	f.buf = nil
}
