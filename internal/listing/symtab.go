package listing

import "sort"

// SymbolTable answers name and address queries over a symbol listing.
// Only defined symbols are indexed; the first definition of a name wins.
type SymbolTable struct {
	byName map[string]Symbol
	sorted []Symbol // defined symbols by address
}

// NewSymbolTable indexes syms.
func NewSymbolTable(syms []Symbol) *SymbolTable {
	st := &SymbolTable{byName: make(map[string]Symbol, len(syms))}
	for _, s := range syms {
		if !s.Defined() {
			continue
		}
		if _, dup := st.byName[s.Name]; dup {
			continue
		}
		st.byName[s.Name] = s
		st.sorted = append(st.sorted, s)
	}
	sort.SliceStable(st.sorted, func(i, j int) bool {
		return st.sorted[i].Address < st.sorted[j].Address
	})
	return st
}

// IsDefined reports whether name is defined in a real section.
func (st *SymbolTable) IsDefined(name string) bool {
	_, ok := st.byName[name]
	return ok
}

// AddressOf returns the address of name, or 0 if it is not defined.
func (st *SymbolTable) AddressOf(name string) uint32 {
	return st.byName[name].Address
}

// Containing returns the defined symbol with the greatest address not
// above addr. Section symbols (named after their section) are skipped
// so that a function name is preferred.
func (st *SymbolTable) Containing(addr uint32) (Symbol, bool) {
	i := sort.Search(len(st.sorted), func(i int) bool {
		return st.sorted[i].Address > addr
	})
	for i--; i >= 0; i-- {
		s := st.sorted[i]
		if s.Name == s.Section {
			continue
		}
		return s, true
	}
	return Symbol{}, false
}

// Len returns the number of defined symbols.
func (st *SymbolTable) Len() int { return len(st.byName) }
