// Package branchgraph builds a call graph from the branch relocations of a
// module: each CALL or JUMP24 site becomes an edge from the function that
// contains it to the symbol it names.
package branchgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"rcmreloc/internal/listing"
	"rcmreloc/internal/reloc"
)

// Stats summarizes a built graph.
type Stats struct {
	Sites    int // branch relocations seen
	External int // sites naming a symbol outside the module
	Thumb    int // sites whose target is THUMB code
}

// Build constructs a lattice.Graph from relocs. Sites not covered by any
// symbol in st are attributed to a synthetic sub_<offset> node.
func Build(relocs []reloc.Relocation, st *listing.SymbolTable) (*lattice.Graph, Stats) {
	g := &lattice.Graph{}
	var stats Stats
	seen := make(map[string]bool)
	node := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.Nodes = append(g.Nodes, name)
		}
	}

	for _, r := range relocs {
		if !r.IsRelative() {
			continue
		}
		stats.Sites++
		if !r.Local {
			stats.External++
		}
		if r.IsThumb() {
			stats.Thumb++
		}

		caller := fmt.Sprintf("sub_%08x", r.Offset)
		if s, ok := st.Containing(r.Offset); ok {
			caller = s.Name
		}
		node(caller)
		node(r.Symbol)
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: caller,
			Callee: r.Symbol,
		})
	}
	g.Dedup()
	return g, stats
}
