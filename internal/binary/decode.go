package binary

import (
	"hash/crc32"

	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// Artifact is the fully-materialized result of decoding a .hlxb file:
// a Header plus the reconstructed IR Program and StringPool. Unlike
// internal/loader's mmap-backed view, every string and expression here
// is copied into owned Go memory, the representation this package's
// round-trip tests and internal/loader's one-time full decode use; the
// lazy, zero-copy borrowing view lives in internal/loader, built on top
// of this package's Header and cursor-based decoders.
type Artifact struct {
	Header Header
	Pool   *codegen.StringPool
	Prog   *codegen.Program
}

// Decode verifies data's magic, version and CRC, decompresses the
// payload if needed, and fully materializes its StringPool and
// Program. fileID labels the resulting Program for diagnostics.
func Decode(data []byte, fileID string) (*Artifact, error) {
	h, ok := parseHeader(data)
	if !ok {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadMagic, nil,
			"not an HLXB artifact: bad magic or truncated header")
	}
	if h.Version != FormatVersion {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadVersion, nil,
			"unsupported binary format version %d (expected %d)", h.Version, FormatVersion)
	}
	if uint64(len(data)) < h.TotalLength {
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil,
			"artifact declares total length %d but only %d bytes were given", h.TotalLength, len(data))
	}
	stored := data[HeaderSize:h.TotalLength]
	payload, err := decompressPayload(stored, h.Compression)
	if err != nil {
		return nil, err
	}
	if h.ChecksumPresent {
		if got := crc32.ChecksumIEEE(payload); got != h.CRC32 {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryChecksum, nil,
				"CRC-32 mismatch: header says %#08x, payload computes to %#08x", h.CRC32, got)
		}
	}

	pool, err := readStringPoolAt(payload, h.StringPoolOffset)
	if err != nil {
		return nil, err
	}
	entries, err := readSymbolTableAt(payload, h.SymbolTableOffset)
	if err != nil {
		return nil, err
	}
	decls := make([]*codegen.Decl, len(entries))
	for i, e := range entries {
		name, ok := pool.Get(e.StringID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"symbol table entry %d references out-of-range string id %d", i, e.StringID)
		}
		d, err := readDeclAt(payload, h.SectionsOffset+e.SectionOffset, name, e.StringID)
		if err != nil {
			return nil, err
		}
		decls[i] = d
	}

	return &Artifact{
		Header: h,
		Pool:   pool,
		Prog:   &codegen.Program{FileID: fileID, Decls: decls},
	}, nil
}

// VerifyChecksum reports whether data's declared CRC-32 matches its
// actual (decompressed) payload, without fully decoding it. This is
// the cheap check spec.md §8's "flipping any payload bit causes load
// to fail with BinaryFormatError" property exercises directly.
func VerifyChecksum(data []byte) error {
	h, ok := parseHeader(data)
	if !ok {
		return hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadMagic, nil, "bad magic or truncated header")
	}
	if uint64(len(data)) < h.TotalLength {
		return hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil, "truncated artifact")
	}
	stored := data[HeaderSize:h.TotalLength]
	payload, err := decompressPayload(stored, h.Compression)
	if err != nil {
		return err
	}
	if !h.ChecksumPresent {
		return nil
	}
	if got := crc32.ChecksumIEEE(payload); got != h.CRC32 {
		return hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryChecksum, nil,
			"CRC-32 mismatch: header says %#08x, payload computes to %#08x", h.CRC32, got)
	}
	return nil
}
