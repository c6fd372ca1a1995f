// Package image reads and assembles RCM module images.
//
// An RCM image starts with a fixed header followed by the hook table:
//
//	[0:2] number of hooks
//	[2:4] relocated flag (set by the loader)
//	[4:6] relocation table offset
//	[6:8] relocation record count
//
// All header fields are little-endian and 16 bits wide; the table offset
// and count are stored modulo 65536.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const HeaderSize = 8

var ErrShortImage = errors.New("image: shorter than header")

// Header is the decoded RCM header.
type Header struct {
	NumHooks    uint16 `json:"num_hooks"`
	Relocated   uint16 `json:"relocated"`
	RelocOffset uint16 `json:"reloc_offset"`
	RelocCount  uint16 `json:"reloc_count"`
}

// ReadHeader decodes the header of img.
func ReadHeader(img []byte) (Header, error) {
	if len(img) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortImage, len(img))
	}
	return Header{
		NumHooks:    binary.LittleEndian.Uint16(img[0:2]),
		Relocated:   binary.LittleEndian.Uint16(img[2:4]),
		RelocOffset: binary.LittleEndian.Uint16(img[4:6]),
		RelocCount:  binary.LittleEndian.Uint16(img[6:8]),
	}, nil
}

// PatchHeader stores the relocation table location in img.
func PatchHeader(img []byte, tableOffset, count int) error {
	if len(img) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrShortImage, len(img))
	}
	binary.LittleEndian.PutUint16(img[4:6], uint16(tableOffset))
	binary.LittleEndian.PutUint16(img[6:8], uint16(count))
	return nil
}

// SetRelocated sets the loader's relocated flag.
func SetRelocated(img []byte) error {
	if len(img) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrShortImage, len(img))
	}
	binary.LittleEndian.PutUint16(img[2:4], 1)
	return nil
}

// Assemble returns img followed by table and thunks, with the header of
// the copy pointing at the table. img is not modified.
func Assemble(img, table, thunks []byte, count int) ([]byte, error) {
	if len(img) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortImage, len(img))
	}
	out := make([]byte, 0, len(img)+len(table)+len(thunks))
	out = append(out, img...)
	out = append(out, table...)
	out = append(out, thunks...)
	if err := PatchHeader(out, len(img), count); err != nil {
		return nil, err
	}
	return out, nil
}

// Word reads the little-endian word at off.
func Word(img []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(img[off : off+4])
}

// PutWord stores v little-endian at off.
func PutWord(img []byte, off uint32, v uint32) {
	binary.LittleEndian.PutUint32(img[off:off+4], v)
}

// InBounds reports whether a 4-byte patch at off fits in img.
func InBounds(img []byte, off uint32) bool {
	return uint64(off)+4 <= uint64(len(img))
}
