package binary

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/helixlang/hlx/internal/codegen"
)

// writeUint32/writeUint64/writeUint16/writeUint8 append a little-endian
// field to buf; every wire integer in §4.6.2's table is fixed-width, so
// there is never a varint path to implement.
func writeUint8(buf *bytes.Buffer, v uint8)   { buf.WriteByte(v) }
func writeUint16(buf *bytes.Buffer, v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); buf.Write(b[:]) }
func writeUint32(buf *bytes.Buffer, v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); buf.Write(b[:]) }
func writeUint64(buf *bytes.Buffer, v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); buf.Write(b[:]) }
func writeFloat64(buf *bytes.Buffer, v float64) {
	writeUint64(buf, math.Float64bits(v))
}
func writeInt64(buf *bytes.Buffer, v int64) { writeUint64(buf, uint64(v)) }

// writeStringPool appends the StringPool section per §4.6.2: a 4-byte
// count, then count entries of (u32 length, UTF-8 bytes).
func writeStringPool(buf *bytes.Buffer, pool *codegen.StringPool) {
	strs := pool.Strings()
	writeUint32(buf, uint32(len(strs)))
	for _, s := range strs {
		writeUint32(buf, uint32(len(s)))
		buf.WriteString(s)
	}
}

// writeExpr serializes one IR expression, dispatching on its ValueTag
// per the enumeration in §4.6.2. AtOperatorCall's member is not
// enumerated in the spec's terse value_tag table (only name_id,
// pos_count, and named_count are listed); this codec extends that shape
// with a has_member byte and a conditional member_id, the natural wire
// representation of the Name/Member split internal/operator's dispatch
// key already requires, documented as a deliberate gap-fill in
// DESIGN.md.
func writeExpr(buf *bytes.Buffer, e codegen.Expr) {
	switch n := e.(type) {
	case codegen.NullExpr:
		writeUint8(buf, uint8(codegen.TagNull))
	case codegen.BoolExpr:
		writeUint8(buf, uint8(codegen.TagBool))
		b := uint8(0)
		if n.Value {
			b = 1
		}
		writeUint8(buf, b)
	case codegen.NumberExpr:
		writeUint8(buf, uint8(codegen.TagNumber))
		writeFloat64(buf, n.Value)
	case codegen.StringExpr:
		writeUint8(buf, uint8(codegen.TagString))
		writeUint32(buf, n.ID)
	case codegen.DurationExpr:
		writeUint8(buf, uint8(codegen.TagDuration))
		writeInt64(buf, n.Millis)
		writeUint8(buf, n.Unit)
	case codegen.ArrayExpr:
		writeUint8(buf, uint8(codegen.TagArray))
		writeUint32(buf, uint32(len(n.Elements)))
		for _, el := range n.Elements {
			writeExpr(buf, el)
		}
	case codegen.ObjectExpr:
		writeUint8(buf, uint8(codegen.TagObject))
		writeUint32(buf, uint32(len(n.Fields)))
		for _, f := range n.Fields {
			writeUint32(buf, f.KeyID)
			writeExpr(buf, f.Value)
		}
	case codegen.AtCallExpr:
		writeUint8(buf, uint8(codegen.TagAtOperatorCall))
		writeUint32(buf, n.NameID)
		if n.HasMember {
			writeUint8(buf, 1)
			writeUint32(buf, n.MemberID)
		} else {
			writeUint8(buf, 0)
		}
		writeUint32(buf, uint32(len(n.Positional)))
		for _, p := range n.Positional {
			writeExpr(buf, p)
		}
		writeUint32(buf, uint32(len(n.Named)))
		for _, a := range n.Named {
			writeUint32(buf, a.NameID)
			writeExpr(buf, a.Value)
		}
	case codegen.BinaryExpr:
		writeUint8(buf, uint8(codegen.TagBinaryOp))
		writeUint8(buf, uint8(n.Op))
		writeExpr(buf, n.Left)
		writeExpr(buf, n.Right)
	case codegen.VariableExpr:
		tag := uint8(codegen.TagVariable)
		if n.Lazy {
			tag |= 0x80
		}
		writeUint8(buf, tag)
		writeUint32(buf, n.NameID)
	case codegen.EnvRefExpr:
		writeUint8(buf, uint8(codegen.TagEnvRef))
		writeUint32(buf, n.NameID)
		if n.Default != nil {
			writeUint8(buf, 1)
			writeExpr(buf, n.Default)
		} else {
			writeUint8(buf, 0)
		}
	default:
		// Unreachable for IR produced by codegen.Lower; fall back to
		// Null rather than corrupt the stream with no tag byte at all.
		writeUint8(buf, uint8(codegen.TagNull))
	}
}
