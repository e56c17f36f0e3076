package dat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func decodeWith(t *testing.T, tr Translator, typ DatFileType, payload []byte) *Image {
	t.Helper()
	img, err := tr.Decode(NewByteReader(bytes.NewReader(payload)), typ)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	return img
}

func TestSettlerTranslator_ColorKey(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(-4)) // offsetX
	binary.Write(&buf, binary.LittleEndian, int16(2))  // offsetY
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(0))      // transparent
	binary.Write(&buf, binary.LittleEndian, uint16(0x7c00)) // pure red in RGB555

	img := decodeWith(t, SettlerTranslator{}, RGB555, buf.Bytes())
	if img.Width != 2 || img.Height != 1 {
		t.Fatalf("expected 2x1 image, got %dx%d", img.Width, img.Height)
	}
	if img.OffsetX != -4 || img.OffsetY != 2 {
		t.Errorf("expected offsets (-4,2), got (%d,%d)", img.OffsetX, img.OffsetY)
	}
	if img.Pixels[3] != 0 {
		t.Error("pixel 0: expected transparent for zero value")
	}
	if r, a := img.Pixels[4], img.Pixels[7]; r != 0xf8 || a != 255 {
		t.Errorf("pixel 1: expected opaque red, got R=%d A=%d", r, a)
	}
}

func TestLandscapeTranslator_ZeroIsOpaque(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(0))

	img := decodeWith(t, LandscapeTranslator{}, RGB555, buf.Bytes())
	if img.Pixels[3] != 255 {
		t.Error("landscape tiles have no transparency key, zero must stay opaque")
	}
}

func TestTorsoTranslator_GrayscaleMask(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	buf.Write([]byte{0x00, 0xc0})

	img := decodeWith(t, TorsoTranslator{}, RGB555, buf.Bytes())
	if img.Pixels[3] != 0 {
		t.Error("zero intensity must stay transparent")
	}
	if img.Pixels[4] != 0xc0 || img.Pixels[7] != 255 {
		t.Errorf("expected opaque gray 0xc0, got %v", img.Pixels[4:8])
	}
}

func TestShadowTranslator_TranslucentFill(t *testing.T) {
	img := decodeWith(t, ShadowTranslator{}, RGB555, shadowPayload(2, 2))
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("expected 2x2 shadow, got %dx%d", img.Width, img.Height)
	}
	for i := 0; i < 4; i++ {
		if img.Pixels[i*4+3] != shadowAlpha {
			t.Fatalf("pixel %d: expected alpha %d, got %d", i, shadowAlpha, img.Pixels[i*4+3])
		}
		if img.Pixels[i*4] != 0 {
			t.Fatalf("pixel %d: shadows are black", i)
		}
	}
}

func TestTranslator_RejectsHugeDimensions(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(0xffff))
	binary.Write(&buf, binary.LittleEndian, uint16(1))

	_, err := SettlerTranslator{}.Decode(NewByteReader(bytes.NewReader(buf.Bytes())), RGB555)
	if !errors.Is(err, ErrInvalidImageSize) {
		t.Errorf("expected ErrInvalidImageSize, got %v", err)
	}
}

func TestTranslator_TruncatedPixels(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, int16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // one pixel of sixteen

	_, err := GuiTranslator{}.Decode(NewByteReader(bytes.NewReader(buf.Bytes())), RGB555)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDatFileType_ToRGBA(t *testing.T) {
	tests := []struct {
		name    string
		typ     DatFileType
		value   uint16
		r, g, b uint8
	}{
		{"rgb555 red", RGB555, 0x7c00, 0xf8, 0x00, 0x00},
		{"rgb555 green", RGB555, 0x03e0, 0x00, 0xf8, 0x00},
		{"rgb555 blue", RGB555, 0x001f, 0x00, 0x00, 0xf8},
		{"rgb565 red", RGB565, 0xf800, 0xf8, 0x00, 0x00},
		{"rgb565 green", RGB565, 0x07e0, 0x00, 0xfc, 0x00},
		{"rgb565 blue", RGB565, 0x001f, 0x00, 0x00, 0xf8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.typ.ToRGBA(tt.value)
			if r != tt.r || g != tt.g || b != tt.b || a != 255 {
				t.Errorf("got RGBA(%d,%d,%d,%d), want (%d,%d,%d,255)",
					r, g, b, a, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestDatFileType_StartMagic(t *testing.T) {
	if bytes.Equal(RGB555.StartMagic(), RGB565.StartMagic()) {
		t.Error("pixel layouts must have distinct start magics")
	}
	if len(RGB555.StartMagic()) != 2 || len(RGB565.StartMagic()) != 2 {
		t.Error("start magic is two bytes")
	}
}
