// Package listing parses the textual symbol and relocation listings
// produced by objdump -t and readelf -r.
//
// Lines that do not parse are omitted. Listings carry headers, blank lines
// and section banners between entries, so a bad line is never an error.
package listing

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Pseudo-sections that never define a symbol.
const (
	SectionAbs = "*ABS*"
	SectionUnd = "*UND*"
)

// Symbol is one entry of an objdump -t listing.
type Symbol struct {
	Name    string `json:"name"`
	Address uint32 `json:"address"`
	Flags   string `json:"flags"`
	Section string `json:"section"`
	Size    uint32 `json:"size"`
}

// Defined reports whether the symbol lives in a real section.
func (s Symbol) Defined() bool {
	return s.Section != SectionAbs && s.Section != SectionUnd
}

// Entry is one line of a readelf -r listing. Type is kept symbolic; the
// resolver decides whether it is supported.
type Entry struct {
	Offset uint32 `json:"offset"`
	Info   uint32 `json:"info"`
	Type   string `json:"type"`
	Value  uint32 `json:"value"`
	Symbol string `json:"symbol"`
}

// ParseSymbolLine parses a fixed-column objdump -t line:
//
//	02000000 g     F .text	00000010 hook_main
//
// Columns 0-7 hold the address, 9-15 the flag characters, and the rest
// is "section size name".
func ParseSymbolLine(line string) (Symbol, bool) {
	if len(line) < 18 {
		return Symbol{}, false
	}
	addr, err := strconv.ParseUint(line[:8], 16, 32)
	if err != nil {
		return Symbol{}, false
	}
	fields := strings.Fields(line[17:])
	if len(fields) < 3 {
		return Symbol{}, false
	}
	size, err := strconv.ParseUint(fields[1], 16, 32)
	if err != nil {
		return Symbol{}, false
	}
	return Symbol{
		Name:    fields[2],
		Address: uint32(addr),
		Flags:   line[9:16],
		Section: fields[0],
		Size:    uint32(size),
	}, true
}

// ParseRelocationLine parses a readelf -r line:
//
//	00000020  00000a1c R_ARM_CALL        02001234   hook_main
func ParseRelocationLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Entry{}, false
	}
	offset, err := strconv.ParseUint(fields[0], 16, 32)
	if err != nil {
		return Entry{}, false
	}
	info, err := strconv.ParseUint(fields[1], 16, 32)
	if err != nil {
		return Entry{}, false
	}
	value, err := strconv.ParseUint(fields[3], 16, 32)
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Offset: uint32(offset),
		Info:   uint32(info),
		Type:   fields[2],
		Value:  uint32(value),
		Symbol: fields[4],
	}, true
}

// ReadSymbols returns every parseable symbol line of r, in order.
func ReadSymbols(r io.Reader) ([]Symbol, error) {
	var syms []Symbol
	err := scanLines(r, func(line string) {
		if s, ok := ParseSymbolLine(line); ok {
			syms = append(syms, s)
		}
	})
	return syms, err
}

// ReadRelocations returns every parseable relocation line of r, in order.
func ReadRelocations(r io.Reader) ([]Entry, error) {
	var entries []Entry
	err := scanLines(r, func(line string) {
		if e, ok := ParseRelocationLine(line); ok {
			entries = append(entries, e)
		}
	})
	return entries, err
}

// scanLines splits on \n, \r\n and bare \r.
func scanLines(r io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	sc.Split(splitAnyEOL)
	for sc.Scan() {
		fn(sc.Text())
	}
	return sc.Err()
}

func splitAnyEOL(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// need one more byte to tell \r from \r\n
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
