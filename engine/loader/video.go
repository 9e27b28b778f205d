//go:build !novideo

package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
	"github.com/zergon321/reisen"
)

// videoStream decodes the first video stream of a media source one frame at a time.
type videoStream struct {
	mu *sync.Mutex

	media   *reisen.Media
	stream  *reisen.VideoStream
	maxSize uint32
	done    bool
}

var _ material.FrameStream = &videoStream{}

// openVideo opens the media with ffmpeg and prepares its first video stream for decoding.
func openVideo(source string, maxSize uint32) (material.FrameStream, error) {
	media, err := reisen.NewMedia(source)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", source, err)
	}
	if err := media.OpenDecode(); err != nil {
		media.Close()
		return nil, fmt.Errorf("open decoder %s: %w", source, err)
	}

	streams := media.VideoStreams()
	if len(streams) == 0 {
		media.CloseDecode()
		media.Close()
		return nil, fmt.Errorf("%w: %s has no video stream", ErrUnsupportedFormat, source)
	}
	if err := streams[0].Open(); err != nil {
		media.CloseDecode()
		media.Close()
		return nil, fmt.Errorf("open video stream %s: %w", source, err)
	}

	return &videoStream{
		mu:      &sync.Mutex{},
		media:   media,
		stream:  streams[0],
		maxSize: maxSize,
	}, nil
}

func (v *videoStream) NextFrame() (common.TextureStagingData, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.done {
		return common.TextureStagingData{}, false, nil
	}

	for {
		packet, gotPacket, err := v.media.ReadPacket()
		if err != nil {
			return common.TextureStagingData{}, false, err
		}
		if !gotPacket {
			v.done = true
			return common.TextureStagingData{}, false, nil
		}
		if packet.Type() != reisen.StreamVideo || packet.StreamIndex() != v.stream.Index() {
			continue
		}

		frame, gotFrame, err := v.stream.ReadVideoFrame()
		if err != nil {
			return common.TextureStagingData{}, false, err
		}
		if !gotFrame {
			v.done = true
			return common.TextureStagingData{}, false, nil
		}
		if frame == nil {
			continue
		}
		return toStaging(frame.Image(), v.maxSize), true, nil
	}
}

func (v *videoStream) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.media == nil {
		return errors.New("loader: video stream already closed")
	}
	v.stream.Close()
	v.media.CloseDecode()
	v.media.Close()
	v.media, v.stream = nil, nil
	v.done = true
	return nil
}
