package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/ternarybob/gradus/internal/interfaces"
)

// NormalizeImage converts raw embedded-image bytes into the canonical form
// sent to vision calls: RGB color model, longer side capped at maxEdge
// (aspect-preserving, never upscaled), PNG-encoded, base64.
func NormalizeImage(data []byte, maxEdge int) (interfaces.EncodedImage, error) {
	if maxEdge <= 0 {
		maxEdge = 512
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode embedded image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("embedded image has empty bounds %v", bounds)
	}

	targetW, targetH := thumbnailSize(width, height, maxEdge)

	// Drawing onto NRGBA also converts CMYK/YCbCr/paletted sources to RGB
	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	if targetW == width && targetH == height {
		xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("failed to encode image as PNG: %w", err)
	}

	return interfaces.EncodedImage(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// thumbnailSize computes the bounding-box fit for (width, height) within
// maxEdge on the longer side. Images already within the box keep their size.
func thumbnailSize(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}

	if width >= height {
		targetH := height * maxEdge / width
		if targetH < 1 {
			targetH = 1
		}
		return maxEdge, targetH
	}

	targetW := width * maxEdge / height
	if targetW < 1 {
		targetW = 1
	}
	return targetW, maxEdge
}
