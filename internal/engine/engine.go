// Package engine resolves leftover ARM relocations against an RCM image.
//
// Resolution runs in two stages. Prepare folds everything it can into a
// copy of the image and builds the relocation table. Link appends the
// ARM->THUMB thunk pool, whose position depends on the final table size,
// and points each THUMB-targeted branch at its thunk.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"

	"rcmreloc/internal/disasm"
	"rcmreloc/internal/image"
	"rcmreloc/internal/listing"
	"rcmreloc/internal/reloc"
	"rcmreloc/internal/reloctab"
)

// ThunkSize is the size of one pool entry: LDR PC,[PC,#-4] and the target.
const ThunkSize = 8

var ErrOffsetRange = errors.New("engine: relocation outside image")

// UnresolvedError lists the external symbols whose resolved value is zero.
// A symbol legitimately placed at address zero is reported too.
type UnresolvedError struct {
	Symbols []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("engine: %d unresolved external symbol(s): %s",
		len(e.Symbols), strings.Join(e.Symbols, ", "))
}

// Resolver reports whether a symbol is defined in the module.
type Resolver interface {
	IsDefined(name string) bool
}

var _ Resolver = (*listing.SymbolTable)(nil)

// Bind turns relocation listing entries into relocations. Locality comes
// from the resolver; the value is the one printed in the listing.
func Bind(entries []listing.Entry, syms Resolver) ([]reloc.Relocation, error) {
	relocs := make([]reloc.Relocation, 0, len(entries))
	for _, e := range entries {
		typ, err := reloc.ParseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("engine: offset 0x%08x (%s): %w", e.Offset, e.Symbol, err)
		}
		relocs = append(relocs, reloc.Relocation{
			Offset: e.Offset,
			Type:   typ,
			Value:  e.Value,
			Local:  syms.IsDefined(e.Symbol),
			Symbol: e.Symbol,
		})
	}
	return relocs, nil
}

// Options controls resolution.
type Options struct {
	Log log.Interface // debug traces; nil uses the package logger
}

func (o Options) logger() log.Interface {
	if o.Log != nil {
		return o.Log
	}
	return log.Log
}

// Outcome records what happened to one relocation.
//
// A relocation is either resolved, with its effect folded into the image,
// or deferred, with Record holding the entry written to the table.
type Outcome struct {
	Reloc  reloc.Relocation `json:"reloc"`
	Disp   Disposition      `json:"disposition"`
	Record *reloctab.Record `json:"record,omitempty"`
	Thunk  int              `json:"thunk"` // pool position for DispThunk, -1 otherwise
}

// Deferred reports whether the relocation is left to the loader.
func (o Outcome) Deferred() bool { return o.Record != nil }

// Plan is the output of the first stage.
type Plan struct {
	Image    []byte         `json:"-"`
	Table    reloctab.Table `json:"-"`
	Outcomes []Outcome      `json:"outcomes"`
}

// Result is a fully resolved module.
type Result struct {
	*Plan
	Thunks   []byte `json:"-"`
	PoolBase uint32 `json:"pool_base"`
}

// Resolve runs both stages over img. img is not modified.
func Resolve(img []byte, relocs []reloc.Relocation, opts Options) (*Result, error) {
	plan, err := Prepare(img, relocs, opts)
	if err != nil {
		return nil, err
	}
	return Link(plan, opts)
}

// Prepare is the first stage: it classifies every relocation, patches a
// copy of img and builds the relocation table. Deferred records carry a
// zero addend whenever the addend could be folded into the image.
//
// Every non-local relocation with a zero value is collected and returned
// together as an *UnresolvedError once the whole list has been scanned.
// Unresolved symbols take precedence over a patch site outside the image.
func Prepare(img []byte, relocs []reloc.Relocation, opts Options) (*Plan, error) {
	if len(img) < image.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", image.ErrShortImage, len(img))
	}
	lg := opts.logger()

	plan := &Plan{
		Image:    append([]byte(nil), img...),
		Outcomes: make([]Outcome, 0, len(relocs)),
	}
	var unresolved []string
	var rangeErr error
	seen := make(map[string]bool)

	for _, r := range relocs {
		out := Outcome{Reloc: r, Disp: Classify(r), Thunk: -1}
		if out.Disp == DispSkip {
			plan.Outcomes = append(plan.Outcomes, out)
			continue
		}
		if !r.Local && r.Value == 0 {
			if !seen[r.Symbol] {
				seen[r.Symbol] = true
				unresolved = append(unresolved, r.Symbol)
			}
			continue
		}
		if !image.InBounds(plan.Image, r.Offset) {
			if rangeErr == nil {
				rangeErr = fmt.Errorf("%w: 0x%08x (%s) in %d-byte image", ErrOffsetRange, r.Offset, r.Symbol, len(plan.Image))
			}
			continue
		}

		ctx := lg.WithFields(log.Fields{
			"offset": fmt.Sprintf("%08X", r.Offset),
			"value":  fmt.Sprintf("%08X", r.Value),
			"symbol": r.Symbol,
		})
		word := image.Word(plan.Image, r.Offset)

		switch out.Disp {
		case DispThunk:
			// placed by Link once the table size is known

		case DispLocalBranch:
			word = disasm.AdjustBranch(word, r.Value-r.Offset)
			ctx.WithField("insn", disasm.DisasmOne(word, r.Offset)).Debug("resolving local branch")

		case DispExternalWord:
			word += r.Value
			ctx.Debug("resolving external word")

		case DispRecord:
			rec := reloctab.Record{Offset: r.Offset, Type: r.Derived(), Addend: r.Value}
			switch rec.Type {
			case reloc.BASE_ABS, reloc.ABS32:
				word += r.Value
				rec.Addend = 0
			case reloc.JUMP24, reloc.CALL:
				// a THUMB target needs BLX, which only the loader can encode
				if !r.IsThumb() {
					word = disasm.AdjustBranch(word, r.Value)
					rec.Addend = 0
				}
			}
			if err := plan.Table.Append(rec); err != nil {
				return nil, fmt.Errorf("engine: record for %s: %w", r.Symbol, err)
			}
			out.Record = &rec
			ctx.WithField("type", rec.Type).WithField("addend", fmt.Sprintf("%08X", rec.Addend)).Debug("emitting record")
		}

		image.PutWord(plan.Image, r.Offset, word)
		plan.Outcomes = append(plan.Outcomes, out)
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedError{Symbols: unresolved}
	}
	if rangeErr != nil {
		return nil, rangeErr
	}
	return plan, nil
}

// Link is the second stage: it builds the thunk pool, which sits right
// after the image and the relocation table, and rewrites each THUMB-targeted
// B into a B to its thunk. Thunks are laid out in relocation order.
func Link(plan *Plan, opts Options) (*Result, error) {
	lg := opts.logger()
	res := &Result{
		Plan:     plan,
		PoolBase: uint32(len(plan.Image) + plan.Table.Len()),
	}

	for i := range plan.Outcomes {
		out := &plan.Outcomes[i]
		if out.Disp != DispThunk {
			continue
		}
		r := out.Reloc
		pos := uint32(len(res.Thunks))

		var thunk [ThunkSize]byte
		binary.LittleEndian.PutUint32(thunk[0:4], disasm.ThunkInsn)
		binary.LittleEndian.PutUint32(thunk[4:8], r.Value)
		res.Thunks = append(res.Thunks, thunk[:]...)
		out.Thunk = int(pos)

		rel := (res.PoolBase + pos - (r.Offset + 8)) >> 2
		branch := disasm.EncodeB(rel)
		image.PutWord(plan.Image, r.Offset, branch)

		lg.WithFields(log.Fields{
			"offset": fmt.Sprintf("%08X", r.Offset),
			"thunk":  fmt.Sprintf("%08X", res.PoolBase+pos),
			"value":  fmt.Sprintf("%08X", r.Value),
			"symbol": r.Symbol,
			"insn":   disasm.DisasmOne(branch, r.Offset),
		}).Debug("writing thumb thunk")
	}
	return res, nil
}

// Assemble returns the output image: patched image, table and thunk pool,
// with the header pointing at the table.
func (r *Result) Assemble() ([]byte, error) {
	return image.Assemble(r.Image, r.Table.Bytes(), r.Thunks, r.Table.Count())
}

// Count returns the number of records in the table.
func (r *Result) Count() int { return r.Table.Count() }
