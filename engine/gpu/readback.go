package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMapFailed is returned when the driver reports a failed buffer mapping.
var ErrMapFailed = errors.New("gpu: buffer map failed")

// ReadBuffer copies size bytes of src into a mappable staging buffer, waits for the copy and
// returns the bytes. It blocks the caller until the device is idle and is meant for debugging
// and tests, not the frame loop.
//
// Parameters:
//   - ctx: cancels the wait between device polls
//   - c: the GPU context
//   - src: a buffer created with CopySrc usage
//   - size: the number of bytes to read
//
// Returns:
//   - []byte: a copy of the buffer contents
//   - error: ErrMapFailed, a context error, or a device error
func ReadBuffer(ctx context.Context, c Context, src *wgpu.Buffer, size uint64) ([]byte, error) {
	size = align4(size)
	staging, err := c.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Staging Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := c.Device().CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create readback encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish readback encoder: %w", err)
	}
	c.Queue().Submit(cmd)

	done := false
	var status wgpu.BufferMapAsyncStatus
	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	}); err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}

	for !done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.Device().Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("%w: status %d", ErrMapFailed, status)
	}

	out := make([]byte, size)
	copy(out, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return out, nil
}
