// Package codegen lowers a validated ast.HelixAst into the flat IR
// spec.md §4.6.1 describes (a list of IR declarations, each a kind tag,
// an interned symbol id, and (key_id, ir_expr) pairs), then applies the
// O0-O3 optimization passes over that IR. internal/binary consumes the
// result to emit the byte-exact §4.6.2 layout; internal/loader's
// decompiler reconstructs an ast.HelixAst from it.
//
// Grounded on original_source/compiler/main.rs's Compiler: its
// intern_string/string_table/string_map pair is StringPool below, and
// its optimize_binary level-0..3 cascade (dedup strings → + inline
// constants → + dead-code elimination → + pipeline optimization) is
// the literal shape optimize.go's Optimize dispatch follows, with each
// stage's actual transform upgraded from that prototype's empty stub to
// the real rule spec.md §4.6.1 specifies for that level.
package codegen

// StringPool interns strings to small integer ids, the same role
// original_source's Compiler.string_table/string_map pair plays, and
// the representation internal/binary's StringPool section serializes
// verbatim.
type StringPool struct {
	strings []string
	index   map[string]uint32
}

// NewStringPool returns an empty pool.
func NewStringPool() *StringPool {
	return &StringPool{index: make(map[string]uint32)}
}

// Intern returns s's id, assigning a new one the first time s is seen.
func (p *StringPool) Intern(s string) uint32 {
	if id, ok := p.index[s]; ok {
		return id
	}
	id := uint32(len(p.strings))
	p.strings = append(p.strings, s)
	p.index[s] = id
	return id
}

// Get returns the string at id.
func (p *StringPool) Get(id uint32) (string, bool) {
	if int(id) >= len(p.strings) {
		return "", false
	}
	return p.strings[id], true
}

// Strings returns the pool's entries in id order, the layout
// internal/binary's StringPool section writes directly.
func (p *StringPool) Strings() []string {
	return p.strings
}

// Len returns the number of interned strings.
func (p *StringPool) Len() int { return len(p.strings) }

// Rebuild replaces the pool's contents with strings, re-deriving the
// index, and returns a mapping from each old id to its new id. Used by
// the O2+ "string interning across the pool" pass (dedupeStrings in
// optimize.go) after pruning dead-code-eliminated entries.
func (p *StringPool) Rebuild(strings []string) map[uint32]uint32 {
	old := p.index
	remap := make(map[uint32]uint32, len(old))
	p.strings = nil
	p.index = make(map[string]uint32)
	for _, s := range strings {
		p.Intern(s)
	}
	for s, oldID := range old {
		if newID, ok := p.index[s]; ok {
			remap[oldID] = newID
		}
	}
	return remap
}
