package reloc

import (
	"errors"
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"R_ARM_ABS32", ABS32},
		{"R_ARM_CALL", CALL},
		{"R_ARM_JUMP24", JUMP24},
		{"R_ARM_BASE_ABS", BASE_ABS},
		{"R_ARM_V4BX", V4BX},
	}
	for _, tc := range tests {
		got, err := ParseType(tc.name)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("ParseType(%q) = %d, want %d", tc.name, got, tc.want)
		}
		if got.String() != tc.name {
			t.Errorf("String() = %q, want %q", got.String(), tc.name)
		}
	}
}

func TestParseTypeUnsupported(t *testing.T) {
	_, err := ParseType("R_ARM_PREL31")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
	if Type(3).Valid() {
		t.Error("type 3 should not be valid")
	}
}

func TestDerived(t *testing.T) {
	tests := []struct {
		r    Relocation
		want Type
	}{
		{Relocation{Type: ABS32, Local: true}, BASE_ABS},
		{Relocation{Type: ABS32, Local: false}, ABS32},
		{Relocation{Type: CALL, Local: true}, CALL},
		{Relocation{Type: JUMP24, Local: false}, JUMP24},
	}
	for _, tc := range tests {
		if got := tc.r.Derived(); got != tc.want {
			t.Errorf("%+v: Derived() = %v, want %v", tc.r, got, tc.want)
		}
	}
}

func TestPredicates(t *testing.T) {
	r := Relocation{Type: JUMP24, Value: 0x02001235}
	if !r.IsThumb() || !r.IsBranch() || !r.IsRelative() {
		t.Errorf("JUMP24 to odd address: thumb=%v branch=%v relative=%v", r.IsThumb(), r.IsBranch(), r.IsRelative())
	}
	r = Relocation{Type: CALL, Value: 0x02001234}
	if r.IsThumb() || r.IsBranch() || !r.IsRelative() {
		t.Errorf("CALL to even address: thumb=%v branch=%v relative=%v", r.IsThumb(), r.IsBranch(), r.IsRelative())
	}
	r = Relocation{Type: ABS32}
	if r.IsRelative() {
		t.Error("ABS32 should not be relative")
	}
}

func TestString(t *testing.T) {
	r := Relocation{Offset: 0x10, Type: CALL, Value: 0x020A0B0C, Local: false}
	want := "Offset 00000010\tValue 020A0B0C\tE\tType R_ARM_CALL"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	r.Local = true
	want = "Offset 00000010\tValue 020A0B0C\t \tType R_ARM_CALL"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
