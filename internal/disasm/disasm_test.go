package disasm

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestDisassembleBranches(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], 0xEA000002) // B +0x10
	binary.LittleEndian.PutUint32(data[4:8], 0xEBFFFFFE) // BL self

	insts := Disassemble(data, Options{BaseAddr: 0x1000})
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	if insts[1].Addr != 0x1004 {
		t.Errorf("addr[1] = 0x%x, want 0x1004", insts[1].Addr)
	}
	if insts[0].Mnemonic != "b" || insts[0].Operands != "0x00001010" {
		t.Errorf("insts[0] = %q %q, want b 0x00001010", insts[0].Mnemonic, insts[0].Operands)
	}
	if insts[1].Mnemonic != "bl" || insts[1].Operands != "0x00001004" {
		t.Errorf("insts[1] = %q %q, want bl 0x00001004", insts[1].Mnemonic, insts[1].Operands)
	}
}

func TestDisassembleMaxSteps(t *testing.T) {
	data := make([]byte, 400)
	for i := 0; i < 100; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], 0xE1A00000)
	}

	insts := Disassemble(data, Options{MaxSteps: 10})
	if len(insts) != 10 {
		t.Fatalf("got %d instructions, want 10", len(insts))
	}
}

func TestDisassembleShort(t *testing.T) {
	if insts := Disassemble([]byte{0x01, 0x02}, Options{}); len(insts) != 0 {
		t.Fatalf("got %d instructions for 2 bytes", len(insts))
	}
	if insts := Disassemble(nil, Options{}); len(insts) != 0 {
		t.Fatalf("got %d instructions for nil data", len(insts))
	}
}

func TestDisasmOneThunk(t *testing.T) {
	text := DisasmOne(ThunkInsn, 0)
	if !strings.HasPrefix(text, "ldr") || !strings.Contains(text, "pc") {
		t.Errorf("thunk disassembles as %q, want ldr pc, ...", text)
	}
}

func TestFormat(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 0xEBFFFFFE)
	insts := Disassemble(data, Options{BaseAddr: 0x2000})

	lookup := func(addr uint32) (string, bool) {
		if addr == 0x2000 {
			return "spin", true
		}
		return "", false
	}
	out := Format(insts, lookup)
	if !strings.HasPrefix(out, "0x00002000  fe ff ff eb  bl 0x00002000") {
		t.Errorf("unexpected format: %q", out)
	}
	if !strings.Contains(out, "; <spin>") {
		t.Errorf("missing symbol comment: %q", out)
	}
}
