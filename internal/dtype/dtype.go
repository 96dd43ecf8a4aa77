// Package dtype encodes and decodes the OMRX attribute data-type code.
//
// A data-type code is a 16-bit value:
//
//	bits 15..12  subtype: 0x0 simple scalar, 0x1 array of simple scalar, 0xF other
//	bits 3..2    (simple/array only) signedness/float: 0 unsigned, 1 signed, 2 float
//	bits 1..0    (simple/array only) log2(element size in bytes)
//
// "Other" subtype codes are not decomposed by bit position; only two are
// defined: 0xF000 UTF-8 string, 0xF001 raw bytes.
//
// Two header revisions of the reference C implementation disagree here:
// an older root-level omrx.h packs signedness/float into bits 2-3
// (TYPEF_SIGNED = 0x0004, TYPEF_FLOAT = 0x0008), while a later
// include/omrx.h repacks them into bits 4-5 (TYPEF_SIGNED = 0x0010,
// TYPEF_FLOAT = 0x0020). This package follows the older header's bits
// 3-2; see DESIGN.md for the full trace.
package dtype

// Type is a 16-bit attribute data-type code.
type Type uint16

const (
	subtypeMask   Type = 0xF000
	subtypeSimple Type = 0x0000
	subtypeArray  Type = 0x1000
	subtypeOther  Type = 0xF000

	signFloatMask Type = 0x000C
	flagSigned    Type = 0x0004
	flagFloat     Type = 0x0008

	elemSizeMask Type = 0x0003
)

// Well-known "other" subtype codes.
const (
	UTF8 Type = 0xF000
	RAW  Type = 0xF001
)

// Well-known simple scalar codes.
const (
	U8  Type = 0x0000
	U16 Type = 0x0001
	U32 Type = 0x0002
	U64 Type = 0x0003
	S8  Type = flagSigned | 0x0000
	S16 Type = flagSigned | 0x0001
	S32 Type = flagSigned | 0x0002
	S64 Type = flagSigned | 0x0003
	F32 Type = flagFloat | 0x0002
	F64 Type = flagFloat | 0x0003
)

// Array variants of the simple scalar codes.
const (
	ArrayU8  = subtypeArray | U8
	ArrayU16 = subtypeArray | U16
	ArrayU32 = subtypeArray | U32
	ArrayU64 = subtypeArray | U64
	ArrayS8  = subtypeArray | S8
	ArrayS16 = subtypeArray | S16
	ArrayS32 = subtypeArray | S32
	ArrayS64 = subtypeArray | S64
	ArrayF32 = subtypeArray | F32
	ArrayF64 = subtypeArray | F64
)

// Subtype identifies the coarse category of a type code.
type Subtype int

const (
	SubtypeSimple Subtype = iota
	SubtypeArray
	SubtypeOther
	SubtypeUnknown
)

// Subtype classifies t into simple/array/other.
func (t Type) Subtype() Subtype {
	switch t & subtypeMask {
	case subtypeSimple:
		return SubtypeSimple
	case subtypeArray:
		return SubtypeArray
	case subtypeOther:
		return SubtypeOther
	default:
		return SubtypeUnknown
	}
}

// IsArray reports whether t is an array-of-scalar type.
func (t Type) IsArray() bool {
	return t.Subtype() == SubtypeArray
}

// IsSigned reports whether t is a signed integer scalar/array type.
func (t Type) IsSigned() bool {
	sub := t.Subtype()
	if sub != SubtypeSimple && sub != SubtypeArray {
		return false
	}
	return t&signFloatMask == flagSigned
}

// IsFloat reports whether t is a floating-point scalar/array type.
func (t Type) IsFloat() bool {
	sub := t.Subtype()
	if sub != SubtypeSimple && sub != SubtypeArray {
		return false
	}
	return t&signFloatMask == flagFloat
}

// ElementSize returns the size in bytes of one element of t, or 0 if t's
// element size cannot be derived from its bits. Unknown types report 0;
// the attribute is still representable by its raw bytes.
func (t Type) ElementSize() int {
	switch t.Subtype() {
	case SubtypeSimple, SubtypeArray:
		return 1 << uint(t&elemSizeMask)
	case SubtypeOther:
		// UTF8/RAW: element size equals total payload size, which this
		// package cannot know without the attribute's size field; callers
		// handle that case themselves (see attr.Info).
		return 0
	default:
		return 0
	}
}

// String renders a human-readable name for well-known codes, or a hex
// fallback for anything else.
func (t Type) String() string {
	switch t {
	case UTF8:
		return "utf8"
	case RAW:
		return "raw"
	case U8, U16, U32, U64, S8, S16, S32, S64, F32, F64,
		ArrayU8, ArrayU16, ArrayU32, ArrayU64,
		ArrayS8, ArrayS16, ArrayS32, ArrayS64,
		ArrayF32, ArrayF64:
		return scalarName(t)
	default:
		return "unknown"
	}
}

func scalarName(t Type) string {
	prefix := ""
	if t.IsArray() {
		prefix = "array<"
	}
	base := t &^ subtypeArray
	var name string
	switch {
	case base.IsFloat():
		name = "f" + sizeSuffix(base)
	case base.IsSigned():
		name = "s" + sizeSuffix(base)
	default:
		name = "u" + sizeSuffix(base)
	}
	if prefix != "" {
		return prefix + name + ">"
	}
	return name
}

func sizeSuffix(base Type) string {
	switch base.ElementSize() {
	case 1:
		return "8"
	case 2:
		return "16"
	case 4:
		return "32"
	case 8:
		return "64"
	default:
		return "?"
	}
}
