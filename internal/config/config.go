// Package config holds rcmreloc options shared across commands.
//
// Defaults come from the environment and are overridden by command flags.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xyproto/env/v2"

	"rcmreloc/internal/engine"
	"rcmreloc/internal/loader"
)

// Environment variables read by Load.
const (
	EnvDebug  = "RCMRELOC_DEBUG"   // any true value enables debug traces
	EnvRefMin = "RCMRELOC_REF_MIN" // thunk consolidation report threshold
	EnvBase   = "RCMRELOC_BASE"    // load address used by verify, hex
)

// Options controls rcmreloc behavior across commands.
type Options struct {
	Debug  bool
	RefMin int    // 0 = use engine.DefaultRefMin
	Base   uint32 // load address for verify
}

// Load reads Options from the environment. The env snapshot is refreshed
// on every call.
func Load() (Options, error) {
	env.Load()
	o := Options{
		Debug:  env.Bool(EnvDebug),
		RefMin: env.Int(EnvRefMin, engine.DefaultRefMin),
		Base:   loader.DefaultBase,
	}
	if s := env.Str(EnvBase); s != "" {
		b, err := ParseAddr(s)
		if err != nil {
			return o, fmt.Errorf("config: %s: %w", EnvBase, err)
		}
		o.Base = b
	}
	return o, nil
}

func (o Options) EffectiveRefMin() int {
	if o.RefMin > 0 {
		return o.RefMin
	}
	return engine.DefaultRefMin
}

// ParseAddr parses a 32-bit hex address, with or without a 0x prefix.
func ParseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return uint32(v), nil
}
