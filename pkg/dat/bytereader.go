// Package dat provides reading functionality for Settlers III DAT graphics containers.
package dat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ByteReader is a random-access cursor over a DAT file. All multi-byte
// integers in the format are little-endian. The cursor is not safe for
// concurrent use; the owning Reader serializes access to it.
type ByteReader struct {
	src     io.ReadSeeker
	scratch [4]byte
}

// NewByteReader creates a cursor over src. The caller keeps ownership of
// the underlying file handle.
func NewByteReader(src io.ReadSeeker) *ByteReader {
	return &ByteReader{src: src}
}

// Seek positions the cursor at an absolute file offset.
func (r *ByteReader) Seek(offset int64) error {
	if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to 0x%x: %w", offset, err)
	}
	return nil
}

func (r *ByteReader) read(n int) ([]byte, error) {
	buf := r.scratch[:n]
	if _, err := io.ReadFull(r.src, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf, nil
}

// ReadUint8 reads a single byte.
func (r *ByteReader) ReadUint8() (uint8, error) {
	buf, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (r *ByteReader) ReadUint16() (uint16, error) {
	buf, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadInt16 reads a little-endian signed 16-bit integer.
func (r *ByteReader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (r *ByteReader) ReadUint32() (uint32, error) {
	buf, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Expect consumes len(literal) bytes and fails with ErrFormatMismatch if
// they differ from the literal.
func (r *ByteReader) Expect(literal []byte) error {
	buf := make([]byte, len(literal))
	if _, err := io.ReadFull(r.src, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}
	if !bytes.Equal(buf, literal) {
		return fmt.Errorf("%w: expected % x, got % x", ErrFormatMismatch, literal, buf)
	}
	return nil
}
