package listing

import (
	"strings"
	"testing"
)

const symListing = "\r\n" +
	"code.elf:     file format elf32-littlearm\r\n" +
	"\r\n" +
	"SYMBOL TABLE:\r\n" +
	"02000000 l    d  .text\t00000000 .text\r\n" +
	"00000000 l    df *ABS*\t00000000 hooks.c\r\n" +
	"02000010 g     F .text\t00000020 hook_main\r\n" +
	"02000031 g     F .text\t00000010 thumb_helper\r\n" +
	"00000000         *UND*\t00000000 external_fn\r\n" +
	"02000100 g     O .data\t00000004 counter\r\n" +
	"02000200 g     F .text\t00000004 hook_main\r\n" +
	"garbage line\r\n"

const relListing = `
Relocation section '.rel.text' at offset 0x1234 contains 4 entries:
 Offset     Info    Type            Sym.Value  Sym. Name
00000020  00000a1c R_ARM_CALL        02000010   hook_main
00000024  00000b1d R_ARM_JUMP24      020a1235   ext_thumb
00000028  00000c02 R_ARM_ABS32       02000100   counter
0000002c  00000028 R_ARM_V4BX
00000030  zzzzzzzz R_ARM_CALL        02000010   broken
`

func TestParseSymbolLine(t *testing.T) {
	s, ok := ParseSymbolLine("02000010 g     F .text\t00000020 hook_main")
	if !ok {
		t.Fatal("expected symbol")
	}
	if s.Name != "hook_main" || s.Address != 0x02000010 || s.Section != ".text" || s.Size != 0x20 {
		t.Errorf("got %+v", s)
	}
	if s.Flags != "g     F" {
		t.Errorf("flags = %q, want %q", s.Flags, "g     F")
	}
	if !s.Defined() {
		t.Error("symbol in .text should be defined")
	}
}

func TestParseSymbolLineRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"SYMBOL TABLE:",
		"zzzzzzzz g     F .text\t00000020 hook_main",
		"02000010 g     F .text",
		"02000010 g     F .text\tnothex hook_main",
	} {
		if _, ok := ParseSymbolLine(line); ok {
			t.Errorf("ParseSymbolLine(%q) accepted", line)
		}
	}
}

func TestParseRelocationLine(t *testing.T) {
	e, ok := ParseRelocationLine("00000020  00000a1c R_ARM_CALL        02000010   hook_main")
	if !ok {
		t.Fatal("expected entry")
	}
	want := Entry{Offset: 0x20, Info: 0xa1c, Type: "R_ARM_CALL", Value: 0x02000010, Symbol: "hook_main"}
	if e != want {
		t.Errorf("got %+v, want %+v", e, want)
	}

	// Values above 0x7fffffff are valid addresses.
	e, ok = ParseRelocationLine("00000004  00000102 R_ARM_ABS32 ffff0001 high")
	if !ok || e.Value != 0xffff0001 {
		t.Errorf("high value: ok=%v value=0x%x", ok, e.Value)
	}
}

func TestReadRelocations(t *testing.T) {
	entries, err := ReadRelocations(strings.NewReader(relListing))
	if err != nil {
		t.Fatal(err)
	}
	// Header lines, the V4BX line without a symbol and the broken line are dropped.
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3: %+v", len(entries), entries)
	}
	if entries[1].Type != "R_ARM_JUMP24" || entries[1].Value != 0x020a1235 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestReadSymbolsCRLF(t *testing.T) {
	syms, err := ReadSymbols(strings.NewReader(symListing))
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 7 {
		t.Fatalf("symbols = %d, want 7", len(syms))
	}
	for _, s := range syms {
		if strings.ContainsAny(s.Name, "\r\n") {
			t.Errorf("name %q carries a line ending", s.Name)
		}
	}
}

func TestReadSymbolsBareCR(t *testing.T) {
	in := "02000010 g     F .text\t00000020 a\r02000020 g     F .text\t00000020 b\r"
	syms, err := ReadSymbols(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 2 || syms[1].Name != "b" {
		t.Fatalf("got %+v", syms)
	}
}

func TestSymbolTable(t *testing.T) {
	syms, err := ReadSymbols(strings.NewReader(symListing))
	if err != nil {
		t.Fatal(err)
	}
	st := NewSymbolTable(syms)

	if !st.IsDefined("hook_main") {
		t.Error("hook_main should be defined")
	}
	// first definition wins
	if got := st.AddressOf("hook_main"); got != 0x02000010 {
		t.Errorf("AddressOf(hook_main) = 0x%x, want 0x02000010", got)
	}
	for _, name := range []string{"hooks.c", "external_fn", "missing"} {
		if st.IsDefined(name) {
			t.Errorf("%s should not be defined", name)
		}
		if got := st.AddressOf(name); got != 0 {
			t.Errorf("AddressOf(%s) = 0x%x, want 0", name, got)
		}
	}
	if !st.IsDefined("counter") {
		t.Error("counter should be defined")
	}
	if st.Len() != 4 {
		t.Errorf("Len = %d, want 4", st.Len())
	}
}

func TestSymbolTableContaining(t *testing.T) {
	syms, _ := ReadSymbols(strings.NewReader(symListing))
	st := NewSymbolTable(syms)

	tests := []struct {
		addr uint32
		want string
		ok   bool
	}{
		{0x02000014, "hook_main", true},
		{0x02000031, "thumb_helper", true},
		{0x02000104, "counter", true},
		{0x02000004, "", false}, // only the .text section symbol precedes it
		{0x01000000, "", false},
	}
	for _, tc := range tests {
		s, ok := st.Containing(tc.addr)
		if ok != tc.ok || s.Name != tc.want {
			t.Errorf("Containing(0x%x) = %q,%v want %q,%v", tc.addr, s.Name, ok, tc.want, tc.ok)
		}
	}
}
