package engine

import (
	"sort"

	"rcmreloc/internal/reloc"
)

// DefaultRefMin is the reference count at which an external target is
// reported as a thunk consolidation candidate.
const DefaultRefMin = 3

// RefCount is the number of relocations naming one external address.
type RefCount struct {
	Addr  uint32 `json:"addr"`
	Count int    `json:"count"`
}

// RefTable maps external target addresses to their reference counts.
// It is only used for reporting.
type RefTable map[uint32]int

// CountRefs tallies the targets of non-local relocations.
func CountRefs(relocs []reloc.Relocation) RefTable {
	t := make(RefTable)
	for _, r := range relocs {
		if !r.Local {
			t[r.Value]++
		}
	}
	return t
}

// Candidates returns the addresses referenced at least min times, by address.
func (t RefTable) Candidates(min int) []RefCount {
	var out []RefCount
	for addr, n := range t {
		if n >= min {
			out = append(out, RefCount{Addr: addr, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
