package binary

import (
	"bytes"
	"compress/gzip"
	"hash/crc32"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/ctxlog"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// Metadata is per-compilation bookkeeping that never reaches the wire
// format (the header is a fixed 44 bytes per spec.md §4.6.2, with no
// room for it) but is useful for correlating an Encode call with the
// log lines it produced. BuildID is not persisted: decoding the same
// bytes twice yields two different LoadedConfig instances with their
// own loader.LoadedConfig.ID, not the BuildID that produced them.
type Metadata struct {
	BuildID uuid.UUID
}

// Encode serializes prog and pool into a complete .hlxb artifact at the
// given optimization level and compression method, per spec.md §4.6.2.
// optLevel is recorded in the header's flags only; callers run
// codegen.Optimize themselves before calling Encode, so the artifact's
// IR always matches the level its header claims.
func Encode(prog *codegen.Program, pool *codegen.StringPool, optLevel int, compression CompressionMethod) ([]byte, error) {
	meta := Metadata{BuildID: uuid.New()}
	ctxlog.Default().Debug("encoding binary artifact",
		"build_id", meta.BuildID, "decl_count", len(prog.Decls), "opt_level", optLevel, "compression", compression)
	var stringPoolBuf, symbolTableBuf, sectionsBuf bytes.Buffer
	writeStringPool(&stringPoolBuf, pool)

	writeUint32(&symbolTableBuf, uint32(len(prog.Decls)))
	sectionOffsets := make([]uint64, len(prog.Decls))
	for i, d := range prog.Decls {
		sectionOffsets[i] = uint64(sectionsBuf.Len())
		writeUint16(&sectionsBuf, uint16(d.Kind))
		writeUint32(&sectionsBuf, d.SymbolID)
		writeUint32(&sectionsBuf, uint32(len(d.Props)))
		for _, p := range d.Props {
			writeUint32(&sectionsBuf, p.KeyID)
			writeExpr(&sectionsBuf, p.Value)
		}
	}
	for i, d := range prog.Decls {
		writeUint32(&symbolTableBuf, d.NameID)
		writeUint16(&symbolTableBuf, uint16(d.Kind))
		writeUint64(&symbolTableBuf, sectionOffsets[i])
	}

	payload := make([]byte, 0, stringPoolBuf.Len()+symbolTableBuf.Len()+sectionsBuf.Len())
	payload = append(payload, stringPoolBuf.Bytes()...)
	payload = append(payload, symbolTableBuf.Bytes()...)
	payload = append(payload, sectionsBuf.Bytes()...)

	crc := crc32.ChecksumIEEE(payload)

	stored, err := compressPayload(payload, compression)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:           FormatVersion,
		Compression:       compression,
		ChecksumPresent:   true,
		OptLevel:          uint8(optLevel),
		TotalLength:       uint64(HeaderSize + len(stored)),
		StringPoolOffset:  0,
		SymbolTableOffset: uint64(stringPoolBuf.Len()),
		SectionsOffset:    uint64(stringPoolBuf.Len() + symbolTableBuf.Len()),
		CRC32:             crc,
	}

	out := make([]byte, HeaderSize+len(stored))
	putHeader(out, h)
	copy(out[HeaderSize:], stored)
	return out, nil
}

func compressPayload(payload []byte, method CompressionMethod) ([]byte, error) {
	switch method {
	case CompressionNone:
		return payload, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(payload, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadVersion, nil,
			"unknown compression method %d", method)
	}
}

func decompressPayload(stored []byte, method CompressionMethod) ([]byte, error) {
	switch method {
	case CompressionNone:
		return stored, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(stored))
		if err != nil {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil, "gzip: %v", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil, "zstd: %v", err)
		}
		return out, nil
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(stored))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil, "lz4: %v", err)
		}
		return out, nil
	default:
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryBadVersion, nil,
			"unknown compression method %d", method)
	}
}
