// Package reloctab encodes and decodes the relocation table embedded in an
// RCM image.
//
// Each record is one or two little-endian words:
//
//	word0 = (flags|type)<<24 | offset (24 bits)
//	word1 = addend, present only when the addend is nonzero
//
// A zero addend is marked by FlagZeroAddend in the type byte.
package reloctab

import (
	"encoding/binary"
	"errors"
	"fmt"

	"rcmreloc/internal/reloc"
)

const (
	FlagZeroAddend = 0x80

	MaxOffset = 1<<24 - 1

	compactSize = 4
	fullSize    = 8
)

var (
	ErrOffsetRange = errors.New("reloctab: offset exceeds 24 bits")
	ErrTruncated   = errors.New("reloctab: table truncated")
)

// Record is one runtime relocation.
type Record struct {
	Offset uint32     `json:"offset"`
	Type   reloc.Type `json:"type"`
	Addend uint32     `json:"addend"`
}

func (r Record) String() string {
	return fmt.Sprintf("%06X %-14s %08X", r.Offset, r.Type, r.Addend)
}

// Size returns the encoded length of r.
func (r Record) Size() int {
	if r.Addend == 0 {
		return compactSize
	}
	return fullSize
}

// Encode returns the wire form of rec.
func Encode(rec Record) ([]byte, error) {
	if rec.Offset > MaxOffset {
		return nil, fmt.Errorf("%w: 0x%x", ErrOffsetRange, rec.Offset)
	}
	if !rec.Type.Valid() {
		return nil, fmt.Errorf("%w: %d", reloc.ErrUnsupportedType, uint8(rec.Type))
	}

	typ := uint32(rec.Type)
	if rec.Addend == 0 {
		typ |= FlagZeroAddend
	}
	b := make([]byte, rec.Size())
	binary.LittleEndian.PutUint32(b, typ<<24|rec.Offset)
	if rec.Addend != 0 {
		binary.LittleEndian.PutUint32(b[4:], rec.Addend)
	}
	return b, nil
}

// Decode reads count records from data. Trailing bytes are ignored.
func Decode(data []byte, count int) ([]Record, error) {
	recs := make([]Record, 0, count)
	pos := 0
	for i := 0; i < count; i++ {
		if pos+compactSize > len(data) {
			return recs, fmt.Errorf("%w: record %d at 0x%x", ErrTruncated, i, pos)
		}
		w0 := binary.LittleEndian.Uint32(data[pos:])
		pos += compactSize

		flags := uint8(w0>>24) & FlagZeroAddend
		rec := Record{
			Offset: w0 & MaxOffset,
			Type:   reloc.Type(uint8(w0>>24) &^ FlagZeroAddend),
		}
		if flags == 0 {
			if pos+4 > len(data) {
				return recs, fmt.Errorf("%w: addend of record %d at 0x%x", ErrTruncated, i, pos)
			}
			rec.Addend = binary.LittleEndian.Uint32(data[pos:])
			pos += 4
		}
		if !rec.Type.Valid() {
			return recs, fmt.Errorf("%w: %d in record %d", reloc.ErrUnsupportedType, uint8(rec.Type), i)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Table accumulates encoded records in emission order.
type Table struct {
	buf  []byte
	recs []Record
}

// Append encodes rec onto the table.
func (t *Table) Append(rec Record) error {
	b, err := Encode(rec)
	if err != nil {
		return err
	}
	t.buf = append(t.buf, b...)
	t.recs = append(t.recs, rec)
	return nil
}

// Len returns the encoded size in bytes.
func (t *Table) Len() int { return len(t.buf) }

// Count returns the number of records.
func (t *Table) Count() int { return len(t.recs) }

// Bytes returns the encoded table. The slice aliases the table's buffer.
func (t *Table) Bytes() []byte { return t.buf }

// Records returns the records in emission order.
func (t *Table) Records() []Record { return t.recs }
