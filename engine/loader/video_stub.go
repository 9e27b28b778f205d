//go:build novideo

package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
)

func openVideo(source string, _ uint32) (material.FrameStream, error) {
	return nil, fmt.Errorf("%w: %s", ErrVideoUnsupported, source)
}
