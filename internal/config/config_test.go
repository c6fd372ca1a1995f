package config

import (
	"testing"

	"rcmreloc/internal/engine"
	"rcmreloc/internal/loader"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDebug, "")
	t.Setenv(EnvRefMin, "")
	t.Setenv(EnvBase, "")

	o, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if o.Debug {
		t.Error("Debug set by default")
	}
	if o.EffectiveRefMin() != engine.DefaultRefMin {
		t.Errorf("RefMin = %d", o.EffectiveRefMin())
	}
	if o.Base != loader.DefaultBase {
		t.Errorf("Base = 0x%08x", o.Base)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvDebug, "1")
	t.Setenv(EnvRefMin, "5")
	t.Setenv(EnvBase, "0x02100000")

	o, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !o.Debug {
		t.Error("Debug not set")
	}
	if o.EffectiveRefMin() != 5 {
		t.Errorf("RefMin = %d, want 5", o.EffectiveRefMin())
	}
	if o.Base != 0x02100000 {
		t.Errorf("Base = 0x%08x", o.Base)
	}
}

func TestLoadSeesEnvChanges(t *testing.T) {
	t.Setenv(EnvRefMin, "")
	if o, err := Load(); err != nil || o.EffectiveRefMin() != engine.DefaultRefMin {
		t.Fatalf("first Load = %+v, %v", o, err)
	}
	t.Setenv(EnvRefMin, "7")
	o, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if o.EffectiveRefMin() != 7 {
		t.Errorf("RefMin = %d after setenv, want 7", o.EffectiveRefMin())
	}
}

func TestLoadBadBase(t *testing.T) {
	t.Setenv(EnvBase, "zz")
	if _, err := Load(); err == nil {
		t.Error("expected error for bad base")
	}
}

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"02000000", 0x02000000, true},
		{"0x2000000", 0x02000000, true},
		{" 0XFFFF ", 0xFFFF, true},
		{"100000000", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseAddr(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseAddr(%q) = 0x%x, %v", tt.in, got, err)
		}
	}
}
