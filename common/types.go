// Package common contains helpers shared by the engine packages: logging, sentinel errors, byte encoding
// of math types and plain staging structs for texture uploads.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Sampler overrides the default linear/repeat sampler when non-nil.
	Sampler *SamplerStagingData
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	MaxAnisotropy                            uint16
}

// DefaultSampler returns the linear, repeating sampler used when a texture does not specify one.
//
// Returns:
//   - *SamplerStagingData: the default sampler configuration
func DefaultSampler() *SamplerStagingData {
	return &SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// TextureSource describes encoded image data, either embedded bytes or a file on disk.
type TextureSource struct {
	// Name is an identifier for this texture used in labels and logs.
	Name string
	// Path is the file path for on-disk textures (empty for embedded).
	Path string
	// Data contains encoded image bytes (PNG/JPEG) for embedded textures.
	Data []byte
}

// Decode decodes the source into RGBA pixel data ready for upload.
// Embedded Data takes priority over Path.
//
// Returns:
//   - *TextureStagingData: the decoded pixels and dimensions
//   - error: error if neither data nor path is set, or decoding fails
func (t *TextureSource) Decode() (*TextureStagingData, error) {
	if t == nil {
		return nil, fmt.Errorf("texture source is nil")
	}

	var img image.Image
	var err error
	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image %s: %w", t.Name, err)
		}
	case t.Path != "":
		file, openErr := os.Open(t.Path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, openErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return nil, fmt.Errorf("texture %s has neither data nor path", t.Name)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
