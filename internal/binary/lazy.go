package binary

import "github.com/helixlang/hlx/internal/codegen"

// ParseHeader exposes the package's header decoder to internal/loader,
// which must inspect Version/Compression/offsets before deciding how
// (or whether) to materialize the payload.
func ParseHeader(buf []byte) (Header, bool) { return parseHeader(buf) }

// DecompressPayload exposes the package's decompressor to
// internal/loader: when Compression is CompressionNone the loader
// never calls this and instead slices the mmap region directly, the
// zero-copy path spec.md §4.6.3 describes; any real compression method
// requires an owned buffer regardless of loader, since no compression
// format is self-indexing without full decompression.
func DecompressPayload(stored []byte, method CompressionMethod) ([]byte, error) {
	return decompressPayload(stored, method)
}

// stringSpan is one StringPool entry's (offset, length) within payload,
// recorded without copying the bytes themselves.
type stringSpan struct {
	offset uint32
	length uint32
}

// StringTable is a zero-copy index over a StringPool section: building
// it walks the section once to record each entry's span, but Get
// returns a slice borrowed directly from payload, never a copy.
type StringTable struct {
	payload []byte
	spans   []stringSpan
}

// ReadStringTable indexes the StringPool section of payload starting
// at offset off, without copying any string bytes.
func ReadStringTable(payload []byte, off uint64) (*StringTable, error) {
	c := &cursor{buf: payload, pos: int(off)}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	spans := make([]stringSpan, count)
	for i := range spans {
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		start := c.pos
		if err := c.need(int(n)); err != nil {
			return nil, err
		}
		c.pos += int(n)
		spans[i] = stringSpan{offset: uint32(start), length: n}
	}
	return &StringTable{payload: payload, spans: spans}, nil
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int { return len(t.spans) }

// Get returns the bytes for id, borrowed directly from the underlying
// mmap-backed payload; the caller must not retain the slice beyond
// the loader's lifetime.
func (t *StringTable) Get(id uint32) ([]byte, bool) {
	if int(id) >= len(t.spans) {
		return nil, false
	}
	s := t.spans[id]
	return t.payload[s.offset : s.offset+s.length], true
}

// String is Get with the usual Go-string allocation; use Get on a hot
// path where an allocation-free byte slice suffices.
func (t *StringTable) String(id uint32) (string, bool) {
	b, ok := t.Get(id)
	if !ok {
		return "", false
	}
	return string(b), true
}

// SymbolEntry is one SymbolTable row: which interned string names the
// declaration, its kind tag, and where its Sections payload starts.
type SymbolEntry = symbolEntry

// ReadSymbolTable indexes the SymbolTable section starting at offset
// off. The table itself is small relative to Sections (one entry per
// declaration, not per property), so it is read eagerly rather than
// lazily; internal/loader still defers decoding each declaration's
// properties until asked.
func ReadSymbolTable(payload []byte, off uint64) ([]SymbolEntry, error) {
	return readSymbolTableAt(payload, off)
}

// PropertyIter lazily decodes one declaration's properties in source
// order, one at a time, rather than materializing the whole property
// list up front, per the "section lookups return a handle that
// iterates properties lazily" requirement of spec.md §4.6.3.
type PropertyIter struct {
	c         cursor
	remaining uint32
	err       error
}

// Next decodes the next property, returning ok=false once the
// declaration's properties are exhausted (or an error occurred).
func (it *PropertyIter) Next() (keyID uint32, value codegen.Expr, ok bool) {
	if it.err != nil || it.remaining == 0 {
		return 0, nil, false
	}
	keyID, err := it.c.u32()
	if err != nil {
		it.err = err
		return 0, nil, false
	}
	value, err = readExpr(&it.c)
	if err != nil {
		it.err = err
		return 0, nil, false
	}
	it.remaining--
	return keyID, value, true
}

// Err returns any error encountered during iteration.
func (it *PropertyIter) Err() error { return it.err }

// SectionHandle is the lazy, borrowed view over one Sections entry.
type SectionHandle struct {
	KindTag   uint16
	SymbolID  uint32
	PropCount uint32
	propsPos  int
	payload   []byte
}

// ReadSectionHeaderAt reads a section's fixed (kind_tag, symbol_id,
// prop_count) header at absolute offset off within payload, without
// decoding any property: call Properties to get a PropertyIter over
// them on demand.
func ReadSectionHeaderAt(payload []byte, off uint64) (*SectionHandle, error) {
	c := &cursor{buf: payload, pos: int(off)}
	kindTag, err := c.u16()
	if err != nil {
		return nil, err
	}
	symbolID, err := c.u32()
	if err != nil {
		return nil, err
	}
	propCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	return &SectionHandle{
		KindTag:   kindTag,
		SymbolID:  symbolID,
		PropCount: propCount,
		propsPos:  c.pos,
		payload:   payload,
	}, nil
}

// Properties returns a fresh iterator positioned at this section's
// first property.
func (s *SectionHandle) Properties() *PropertyIter {
	return &PropertyIter{c: cursor{buf: s.payload, pos: s.propsPos}, remaining: s.PropCount}
}
