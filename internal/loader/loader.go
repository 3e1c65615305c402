// Package loader implements spec.md §4.6.3's binary loader: it
// memory-maps a `.hlxb` artifact, verifies it, and exposes a zero-copy
// view over its StringPool and Sections: string lookups borrow slices
// straight from the mapped region, and a declaration's properties are
// decoded lazily, one at a time, rather than materialized up front.
//
// Grounded on edsrzf/mmap-go's Map/Unmap API (the only mmap library in
// the pack's dependency surface) layered over internal/binary's
// bounds-checked cursor decoders; internal/binary's own Decode remains
// the owned, fully-materialized path this package's Decompile uses to
// reconstruct an ast.HelixAst (spec.md §4.6.3's round-trip contract
// needs an actual AST, which is inherently an owned structure, not a
// borrowed view).
package loader

import (
	"hash/crc32"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"

	"github.com/helixlang/hlx/internal/binary"
	"github.com/helixlang/hlx/internal/ctxlog"
	"github.com/helixlang/hlx/internal/hlxerr"
)

func verifyCRC(payload []byte, want uint32) error {
	if got := crc32.ChecksumIEEE(payload); got != want {
		return hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryChecksum, nil,
			"CRC-32 mismatch: header says %#08x, payload computes to %#08x", want, got)
	}
	return nil
}

// LoadedConfig is an open, verified `.hlxb` artifact. Callers must call
// Close when done; until then, any []byte returned by this package's
// String lookups borrows directly from the mapped file and must not be
// retained past Close.
type LoadedConfig struct {
	id      uuid.UUID
	file    *os.File
	region  mmap.MMap
	owned   []byte // set only when the payload had to be decompressed
	Header  binary.Header
	Pool    *binary.StringTable
	symbols []binary.SymbolEntry
	byName  map[string]int
	payload []byte
}

// ID returns a fresh identifier minted when this artifact was opened,
// for correlating its log lines across a process's lifetime; it is
// never read from or written to the artifact's own bytes.
func (lc *LoadedConfig) ID() uuid.UUID { return lc.id }

// Open memory-maps path, verifies its header and checksum, and returns
// a LoadedConfig ready for Section/SectionNames lookups. The host
// permitting mmap is assumed per spec.md §4.6.3's "when the host
// permits" qualifier; on platforms without mmap support,
// edsrzf/mmap-go itself returns the error, which Open propagates
// rather than silently falling back to a plain read.
func Open(path string) (*LoadedConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, hlxerr.Newf(hlxerr.KindIO, hlxerr.CodeIO, nil, "opening %s: %v", path, err)
	}
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, hlxerr.Newf(hlxerr.KindIO, hlxerr.CodeIO, nil, "mmap %s: %v", path, err)
	}

	lc, err := fromBytes([]byte(region))
	if err != nil {
		region.Unmap()
		f.Close()
		return nil, err
	}
	lc.file = f
	lc.region = region
	return lc, nil
}

// fromBytes builds a LoadedConfig over data without opening or mapping
// any file. Open calls it on the mapped region, so every verification
// step lives here.
func fromBytes(data []byte) (*LoadedConfig, error) {
	h, ok := binary.ParseHeader(data)
	if !ok {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadMagic, nil,
			"not an HLXB artifact: bad magic or truncated header")
	}
	if h.Version != binary.FormatVersion {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadVersion, nil,
			"unsupported binary format version %d (expected %d)", h.Version, binary.FormatVersion)
	}
	if uint64(len(data)) < h.TotalLength {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil,
			"artifact declares total length %d but only %d bytes are mapped", h.TotalLength, len(data))
	}
	stored := data[binary.HeaderSize:h.TotalLength]

	lc := &LoadedConfig{id: uuid.New(), Header: h, byName: make(map[string]int)}
	if h.Compression == binary.CompressionNone {
		lc.payload = stored // zero-copy: a direct slice of the mapped region
	} else {
		owned, err := binary.DecompressPayload(stored, h.Compression)
		if err != nil {
			return nil, err
		}
		lc.owned = owned
		lc.payload = owned
	}

	if h.ChecksumPresent {
		if err := verifyCRC(lc.payload, h.CRC32); err != nil {
			return nil, err
		}
	}

	pool, err := binary.ReadStringTable(lc.payload, h.StringPoolOffset)
	if err != nil {
		return nil, err
	}
	lc.Pool = pool

	symbols, err := binary.ReadSymbolTable(lc.payload, h.SymbolTableOffset)
	if err != nil {
		return nil, err
	}
	lc.symbols = symbols
	for i, s := range symbols {
		if name, ok := pool.String(s.StringID); ok {
			lc.byName[name] = i
		}
	}

	ctxlog.Default().Debug("loaded binary artifact",
		"loader_id", lc.id, "section_count", len(symbols), "compression", h.Compression)
	return lc, nil
}

// Close unmaps the file and releases its descriptor. Any borrowed
// []byte this LoadedConfig returned must not be used afterward.
func (lc *LoadedConfig) Close() error {
	var err error
	if lc.region != nil {
		err = lc.region.Unmap()
	}
	if lc.file != nil {
		if cerr := lc.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// SectionNames returns every declaration name in source order.
func (lc *LoadedConfig) SectionNames() []string {
	names := make([]string, len(lc.symbols))
	for i, s := range lc.symbols {
		names[i], _ = lc.Pool.String(s.StringID)
	}
	return names
}

// Section returns a lazy handle on the declaration named name.
func (lc *LoadedConfig) Section(name string) (*binary.SectionHandle, bool) {
	i, ok := lc.byName[name]
	if !ok {
		return nil, false
	}
	s := lc.symbols[i]
	h, err := binary.ReadSectionHeaderAt(lc.payload, lc.Header.SectionsOffset+s.SectionOffset)
	if err != nil {
		return nil, false
	}
	return h, true
}
