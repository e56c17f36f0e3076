package assets

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sied-dat/pkg/dat"
)

// minimalContainer builds the smallest valid RGB555 container: the fixed
// preamble, eight table slots pointing at a shared NONE block, and the
// block itself.
func minimalContainer() []byte {
	fileStart1 := []byte{
		0x04, 0x13, 0x04, 0x00, 0x0c, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x54, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
		0x00,
	}
	fileStart2 := []byte{0x00, 0x00, 0x1f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	fileHeaderEnd := []byte{
		0x04, 0x19, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}

	var buf bytes.Buffer
	buf.Write(fileStart1)
	buf.Write(dat.RGB555.StartMagic())
	buf.Write(fileStart2)

	headerSize := buf.Len() + 4 + 8*4 + len(fileHeaderEnd)
	total := uint32(headerSize + 4)
	noneOffset := uint32(headerSize)

	binary.Write(&buf, binary.LittleEndian, total)
	for i := 0; i < 8; i++ {
		binary.Write(&buf, binary.LittleEndian, noneOffset)
	}
	buf.Write(fileHeaderEnd)
	binary.Write(&buf, binary.LittleEndian, uint32(0x1904)) // NONE tag
	return buf.Bytes()
}

func TestManager_OpensAndCaches(t *testing.T) {
	dir := t.TempDir()
	name := "siedler3_03" + dat.RGB555.FileSuffix()
	if err := os.WriteFile(filepath.Join(dir, name), minimalContainer(), 0o644); err != nil {
		t.Fatalf("writing container: %v", err)
	}

	m := NewManager(dir, dat.RGB555, true, nil)
	defer m.Close()

	r, err := m.File(3)
	if err != nil {
		t.Fatalf("opening container 3: %v", err)
	}

	again, err := m.File(3)
	if err != nil {
		t.Fatalf("reopening container 3: %v", err)
	}
	if again != r {
		t.Error("expected cached reader instance")
	}
}

func TestManager_CaseInsensitiveLookup(t *testing.T) {
	dir := t.TempDir()
	name := "SIEDLER3_00.7C003E01F.DAT"
	if err := os.WriteFile(filepath.Join(dir, name), minimalContainer(), 0o644); err != nil {
		t.Fatalf("writing container: %v", err)
	}

	m := NewManager(dir, dat.RGB555, true, nil)
	defer m.Close()

	if _, err := m.File(0); err != nil {
		t.Fatalf("expected case-insensitive match, got %v", err)
	}
}

func TestManager_MissingFile(t *testing.T) {
	m := NewManager(t.TempDir(), dat.RGB555, true, nil)
	defer m.Close()

	if _, err := m.File(42); err == nil {
		t.Fatal("expected error for missing container")
	}
}
