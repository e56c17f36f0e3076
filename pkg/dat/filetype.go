package dat

// DatFileType discriminates the pixel layout a DAT file was authored in.
// The type contributes a two-byte magic to the file header and selects how
// 16-bit pixel values are expanded to RGBA.
type DatFileType int

// Supported pixel layouts.
const (
	RGB555 DatFileType = iota
	RGB565
)

// String returns the conventional name of the pixel layout.
func (t DatFileType) String() string {
	if t == RGB565 {
		return "rgb565"
	}
	return "rgb555"
}

// StartMagic returns the two header bytes identifying the pixel layout.
// The bytes are the little-endian red channel mask of the layout.
func (t DatFileType) StartMagic() []byte {
	if t == RGB565 {
		return []byte{0x00, 0xf8}
	}
	return []byte{0x00, 0x7c}
}

// FileSuffix returns the file name suffix used by containers of this type.
// The suffix spells out the RGB channel masks.
func (t DatFileType) FileSuffix() string {
	if t == RGB565 {
		return ".f8037e01f.dat"
	}
	return ".7c003e01f.dat"
}

// ToRGBA expands a 16-bit pixel value into 8-bit RGBA channels.
func (t DatFileType) ToRGBA(v uint16) (r, g, b, a uint8) {
	if t == RGB565 {
		r = uint8((v >> 11 & 0x1f) << 3)
		g = uint8((v >> 5 & 0x3f) << 2)
		b = uint8((v & 0x1f) << 3)
	} else {
		r = uint8((v >> 10 & 0x1f) << 3)
		g = uint8((v >> 5 & 0x1f) << 3)
		b = uint8((v & 0x1f) << 3)
	}
	return r, g, b, 255
}
