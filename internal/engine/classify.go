package engine

import "rcmreloc/internal/reloc"

// Disposition says how a relocation is resolved.
type Disposition int

const (
	DispSkip         Disposition = iota // R_ARM_V4BX, no effect
	DispThunk                           // ARM B into THUMB code, goes through a thunk
	DispLocalBranch                     // branch to a local symbol, fixed at build time
	DispExternalWord                    // ABS32 against an external address, fixed at build time
	DispRecord                          // needs a runtime relocation record
)

var dispNames = [...]string{
	DispSkip:         "skip",
	DispThunk:        "thunk",
	DispLocalBranch:  "local-branch",
	DispExternalWord: "external-word",
	DispRecord:       "record",
}

func (d Disposition) String() string {
	if int(d) < len(dispNames) {
		return dispNames[d]
	}
	return "unknown"
}

func (d Disposition) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Classify picks the disposition of r. The checks run in priority order:
// a THUMB-targeted B always needs a thunk, even against a local symbol.
func Classify(r reloc.Relocation) Disposition {
	switch {
	case r.Type == reloc.V4BX:
		return DispSkip
	case r.IsThumb() && r.IsBranch():
		return DispThunk
	case r.IsRelative() && r.Local:
		return DispLocalBranch
	case r.Type == reloc.ABS32 && !r.Local:
		return DispExternalWord
	}
	return DispRecord
}
