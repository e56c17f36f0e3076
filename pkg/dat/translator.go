package dat

import "fmt"

// Translator decodes a single frame payload into an image. The cursor is
// positioned at the start of the payload when Decode is called. Translators
// are stateless; the pixel layout of the owning container is passed in.
type Translator interface {
	Decode(r *ByteReader, typ DatFileType) (*Image, error)
}

// maxImageDim bounds decoded frame dimensions. Real containers stay well
// below this; anything larger is a corrupt header.
const maxImageDim = 4096

// readFrameHeader reads the common payload preamble: draw offsets and
// dimensions.
func readFrameHeader(r *ByteReader) (offsetX, offsetY int, width, height int, err error) {
	ox, err := r.ReadInt16()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	oy, err := r.ReadInt16()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	w, err := r.ReadUint16()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	h, err := r.ReadUint16()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if w > maxImageDim || h > maxImageDim {
		return 0, 0, 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, w, h)
	}
	return int(ox), int(oy), int(w), int(h), nil
}

// readPixels16 reads width*height 16-bit pixels and expands them to RGBA.
// A zero pixel value is treated as transparent when colorKey is set.
func readPixels16(r *ByteReader, typ DatFileType, width, height int, colorKey bool) ([]byte, error) {
	pixels := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		v, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		if colorKey && v == 0 {
			continue // stays fully transparent
		}
		cr, cg, cb, ca := typ.ToRGBA(v)
		o := i * 4
		pixels[o] = cr
		pixels[o+1] = cg
		pixels[o+2] = cb
		pixels[o+3] = ca
	}
	return pixels, nil
}

// SettlerTranslator decodes actor body frames. Pixel value zero is the
// transparency key.
type SettlerTranslator struct{}

// Decode implements Translator.
func (SettlerTranslator) Decode(r *ByteReader, typ DatFileType) (*Image, error) {
	ox, oy, w, h, err := readFrameHeader(r)
	if err != nil {
		return nil, err
	}
	pixels, err := readPixels16(r, typ, w, h, true)
	if err != nil {
		return nil, err
	}
	return &Image{Width: w, Height: h, OffsetX: ox, OffsetY: oy, Pixels: pixels}, nil
}

// TorsoTranslator decodes torso overlays. Torso payloads store one
// intensity byte per pixel; the intensity modulates the player color at
// render time, so the decoded image is a grayscale mask.
type TorsoTranslator struct{}

// Decode implements Translator.
func (TorsoTranslator) Decode(r *ByteReader, _ DatFileType) (*Image, error) {
	ox, oy, w, h, err := readFrameHeader(r)
	if err != nil {
		return nil, err
	}
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		v, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if v == 0 {
			continue
		}
		o := i * 4
		pixels[o] = v
		pixels[o+1] = v
		pixels[o+2] = v
		pixels[o+3] = 255
	}
	return &Image{Width: w, Height: h, OffsetX: ox, OffsetY: oy, Pixels: pixels}, nil
}

// shadowAlpha is the uniform opacity of drop shadows.
const shadowAlpha = 96

// ShadowTranslator decodes drop shadows. Shadow payloads carry geometry
// only; every covered pixel renders as translucent black.
type ShadowTranslator struct{}

// Decode implements Translator.
func (ShadowTranslator) Decode(r *ByteReader, _ DatFileType) (*Image, error) {
	ox, oy, w, h, err := readFrameHeader(r)
	if err != nil {
		return nil, err
	}
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4+3] = shadowAlpha
	}
	return &Image{Width: w, Height: h, OffsetX: ox, OffsetY: oy, Pixels: pixels}, nil
}

// LandscapeTranslator decodes terrain tiles. Tiles are fully opaque.
type LandscapeTranslator struct{}

// Decode implements Translator.
func (LandscapeTranslator) Decode(r *ByteReader, typ DatFileType) (*Image, error) {
	ox, oy, w, h, err := readFrameHeader(r)
	if err != nil {
		return nil, err
	}
	pixels, err := readPixels16(r, typ, w, h, false)
	if err != nil {
		return nil, err
	}
	return &Image{Width: w, Height: h, OffsetX: ox, OffsetY: oy, Pixels: pixels}, nil
}

// GuiTranslator decodes GUI images. Zero is the transparency key, same as
// settler frames.
type GuiTranslator struct{}

// Decode implements Translator.
func (GuiTranslator) Decode(r *ByteReader, typ DatFileType) (*Image, error) {
	ox, oy, w, h, err := readFrameHeader(r)
	if err != nil {
		return nil, err
	}
	pixels, err := readPixels16(r, typ, w, h, true)
	if err != nil {
		return nil, err
	}
	return &Image{Width: w, Height: h, OffsetX: ox, OffsetY: oy, Pixels: pixels}, nil
}
