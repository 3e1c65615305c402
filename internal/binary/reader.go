package binary

import (
	"encoding/binary"
	"math"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// cursor is a bounds-checked reader over a byte slice: every primitive
// read verifies enough bytes remain before touching them, turning an
// out-of-range offset into a BinaryFormatError rather than a panic, per
// spec.md §4.6.3's "out-of-range offset is a corruption error, not a
// panic."
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) need(n int) error {
	if c.pos < 0 || c.pos+n > len(c.buf) {
		return hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryTruncated, nil,
			"binary payload truncated: need %d bytes at offset %d, have %d total", n, c.pos, len(c.buf))
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) i64() (int64, error) {
	v, err := c.u64()
	return int64(v), err
}

func (c *cursor) f64() (float64, error) {
	v, err := c.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (c *cursor) bytesN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

func (c *cursor) str(n int) (string, error) {
	b, err := c.bytesN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readStringPoolAt decodes a StringPool section starting at offset off
// of buf: a 4-byte count, then count (u32 length, UTF-8 bytes) entries.
func readStringPoolAt(buf []byte, off uint64) (*codegen.StringPool, error) {
	c := &cursor{buf: buf, pos: int(off)}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	pool := codegen.NewStringPool()
	for i := uint32(0); i < count; i++ {
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		s, err := c.str(int(n))
		if err != nil {
			return nil, err
		}
		pool.Intern(s)
	}
	return pool, nil
}

type symbolEntry struct {
	StringID      uint32
	KindTag       uint16
	SectionOffset uint64
}

// readSymbolTableAt decodes the SymbolTable section: a 4-byte count,
// then (u32 string_id, u16 kind_tag, u64 section_offset) entries.
func readSymbolTableAt(buf []byte, off uint64) ([]symbolEntry, error) {
	c := &cursor{buf: buf, pos: int(off)}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	entries := make([]symbolEntry, count)
	for i := range entries {
		sid, err := c.u32()
		if err != nil {
			return nil, err
		}
		kind, err := c.u16()
		if err != nil {
			return nil, err
		}
		secOff, err := c.u64()
		if err != nil {
			return nil, err
		}
		entries[i] = symbolEntry{StringID: sid, KindTag: kind, SectionOffset: secOff}
	}
	return entries, nil
}

// readExpr decodes one IR expression at c's current position, per the
// tag dispatch documented on writeExpr.
func readExpr(c *cursor) (codegen.Expr, error) {
	tagByte, err := c.u8()
	if err != nil {
		return nil, err
	}
	lazy := tagByte&0x80 != 0
	tag := codegen.ValueTag(tagByte &^ 0x80)
	switch tag {
	case codegen.TagNull:
		return codegen.NullExpr{}, nil
	case codegen.TagBool:
		b, err := c.u8()
		if err != nil {
			return nil, err
		}
		return codegen.BoolExpr{Value: b != 0}, nil
	case codegen.TagNumber:
		f, err := c.f64()
		if err != nil {
			return nil, err
		}
		return codegen.NumberExpr{Value: f}, nil
	case codegen.TagString:
		id, err := c.u32()
		if err != nil {
			return nil, err
		}
		return codegen.StringExpr{ID: id}, nil
	case codegen.TagDuration:
		ms, err := c.i64()
		if err != nil {
			return nil, err
		}
		unit, err := c.u8()
		if err != nil {
			return nil, err
		}
		return codegen.DurationExpr{Millis: ms, Unit: unit}, nil
	case codegen.TagArray:
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		elems := make([]codegen.Expr, n)
		for i := range elems {
			elems[i], err = readExpr(c)
			if err != nil {
				return nil, err
			}
		}
		return codegen.ArrayExpr{Elements: elems}, nil
	case codegen.TagObject:
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		fields := make([]codegen.ObjectField, n)
		for i := range fields {
			keyID, err := c.u32()
			if err != nil {
				return nil, err
			}
			val, err := readExpr(c)
			if err != nil {
				return nil, err
			}
			fields[i] = codegen.ObjectField{KeyID: keyID, Value: val}
		}
		return codegen.ObjectExpr{Fields: fields}, nil
	case codegen.TagAtOperatorCall:
		nameID, err := c.u32()
		if err != nil {
			return nil, err
		}
		hasMemberByte, err := c.u8()
		if err != nil {
			return nil, err
		}
		call := codegen.AtCallExpr{NameID: nameID}
		if hasMemberByte != 0 {
			memberID, err := c.u32()
			if err != nil {
				return nil, err
			}
			call.HasMember = true
			call.MemberID = memberID
		}
		posCount, err := c.u32()
		if err != nil {
			return nil, err
		}
		call.Positional = make([]codegen.Expr, posCount)
		for i := range call.Positional {
			call.Positional[i], err = readExpr(c)
			if err != nil {
				return nil, err
			}
		}
		namedCount, err := c.u32()
		if err != nil {
			return nil, err
		}
		call.Named = make([]codegen.NamedArg, namedCount)
		for i := range call.Named {
			nid, err := c.u32()
			if err != nil {
				return nil, err
			}
			val, err := readExpr(c)
			if err != nil {
				return nil, err
			}
			call.Named[i] = codegen.NamedArg{NameID: nid, Value: val}
		}
		return call, nil
	case codegen.TagBinaryOp:
		opByte, err := c.u8()
		if err != nil {
			return nil, err
		}
		left, err := readExpr(c)
		if err != nil {
			return nil, err
		}
		right, err := readExpr(c)
		if err != nil {
			return nil, err
		}
		return codegen.BinaryExpr{Op: ast.BinaryOperator(opByte), Left: left, Right: right}, nil
	case codegen.TagVariable:
		nameID, err := c.u32()
		if err != nil {
			return nil, err
		}
		return codegen.VariableExpr{NameID: nameID, Lazy: lazy}, nil
	case codegen.TagEnvRef:
		nameID, err := c.u32()
		if err != nil {
			return nil, err
		}
		hasDefault, err := c.u8()
		if err != nil {
			return nil, err
		}
		ref := codegen.EnvRefExpr{NameID: nameID}
		if hasDefault != 0 {
			def, err := readExpr(c)
			if err != nil {
				return nil, err
			}
			ref.Default = def
		}
		return ref, nil
	default:
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
			"unknown value tag %d at offset %d", tag, c.pos-1)
	}
}

// readDeclAt decodes one Sections entry (u16 kind_tag, u32 symbol_id,
// u32 prop_count, props...) at absolute offset off within buf, given
// name/nameID recovered from the corresponding SymbolTable entry.
func readDeclAt(buf []byte, off uint64, name string, nameID uint32) (*codegen.Decl, error) {
	c := &cursor{buf: buf, pos: int(off)}
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
	props := make([]codegen.Prop, propCount)
	for i := range props {
		keyID, err := c.u32()
		if err != nil {
			return nil, err
		}
		val, err := readExpr(c)
		if err != nil {
			return nil, err
		}
		props[i] = codegen.Prop{KeyID: keyID, Value: val}
	}
	return &codegen.Decl{
		Kind:     ast.DeclKind(kindTag),
		SymbolID: symbolID,
		NameID:   nameID,
		Name:     name,
		Props:    props,
	}, nil
}
