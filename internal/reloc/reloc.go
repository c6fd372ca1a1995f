// Package reloc defines the ARM relocation model shared by the resolver,
// the table encoder and the loader simulation.
package reloc

import (
	"errors"
	"fmt"
)

// Type is the 8-bit wire code of a relocation kind.
type Type uint8

const (
	ABS32    Type = 2
	CALL     Type = 28
	JUMP24   Type = 29
	BASE_ABS Type = 31 // derived: ABS32 against a symbol defined in the module
	V4BX     Type = 40
)

var ErrUnsupportedType = errors.New("reloc: unsupported relocation type")

var typeNames = map[Type]string{
	ABS32:    "R_ARM_ABS32",
	CALL:     "R_ARM_CALL",
	JUMP24:   "R_ARM_JUMP24",
	BASE_ABS: "R_ARM_BASE_ABS",
	V4BX:     "R_ARM_V4BX",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("R_ARM_%d", uint8(t))
}

// Valid reports whether t is one of the five handled kinds.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType maps a symbolic relocation name as printed by readelf.
func ParseType(name string) (Type, error) {
	for t, s := range typeNames {
		if s == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
}

// Relocation is one leftover relocation against a named symbol.
// Value is the resolved symbol address (the addend for the patch).
type Relocation struct {
	Offset uint32 `json:"offset"`
	Type   Type   `json:"type"`
	Value  uint32 `json:"value"`
	Local  bool   `json:"local"`
	Symbol string `json:"symbol"`
}

// Derived returns the type written to the relocation table. ABS32 against
// a local symbol becomes BASE_ABS: the loader adds the module base.
func (r Relocation) Derived() Type {
	if r.Local && r.Type == ABS32 {
		return BASE_ABS
	}
	return r.Type
}

// IsThumb reports whether the target address has the THUMB bit set.
func (r Relocation) IsThumb() bool { return r.Value&1 == 1 }

// IsBranch reports whether the site is a B instruction (no link).
func (r Relocation) IsBranch() bool { return r.Type == JUMP24 }

// IsRelative reports whether the site holds a PC-relative branch.
func (r Relocation) IsRelative() bool { return r.Type == JUMP24 || r.Type == CALL }

func (r Relocation) String() string {
	ext := ' '
	if !r.Local {
		ext = 'E'
	}
	return fmt.Sprintf("Offset %08X\tValue %08X\t%c\tType %s", r.Offset, r.Value, ext, r.Type)
}
