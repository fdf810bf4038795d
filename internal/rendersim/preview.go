package rendersim

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"cutroom/internal/renderapi"
)

// buildPreview produces a solid-background still for the composition at the
// requested scale. Real frame content is the engine's business; the
// simulator only guarantees correctly sized, decodable images.
func buildPreview(doc renderapi.Document, scale float64) (renderapi.RenderPreviewResult, error) {
	comp := doc.Composition
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	width := int(float64(comp.Width) * scale)
	height := int(float64(comp.Height) * scale)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(parseHexColor(comp.BackgroundColor)), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return renderapi.RenderPreviewResult{}, fmt.Errorf("encode preview: %w", err)
	}
	return renderapi.RenderPreviewResult{
		Format: "png",
		Width:  width,
		Height: height,
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// parseHexColor accepts #rgb and #rrggbb values; anything else is black.
func parseHexColor(value string) color.RGBA {
	out := color.RGBA{A: 0xff}
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &out.R, &out.G, &out.B); err != nil {
			return color.RGBA{A: 0xff}
		}
		out.R *= 0x11
		out.G *= 0x11
		out.B *= 0x11
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &out.R, &out.G, &out.B); err != nil {
			return color.RGBA{A: 0xff}
		}
	}
	return out
}
