package describe

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// register decoders for the upload formats we accept
	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const jpegQuality = 90

// downscaleImage bounds the longest image side to maxEdge, preserving
// aspect ratio, and re-encodes as JPEG. Bounding the payload keeps
// describer request size and cost in check; images already within bounds
// are still re-encoded so the describer always receives JPEG.
func downscaleImage(imageData []byte, maxEdge int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if maxEdge > 0 && (width > maxEdge || height > maxEdge) {
		if width >= height {
			height = height * maxEdge / width
			width = maxEdge
		} else {
			width = width * maxEdge / height
			height = maxEdge
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		// Catmull-Rom trades a little CPU for the best downscale
		// quality of the available kernels.
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
