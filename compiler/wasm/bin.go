package wasm

// https://webassembly.github.io/spec/core/binary/modules.html#binary-module

type (
	SectionID byte
	ValType   byte
	Opcode    byte
	ExtKind   byte
)

var (
	Magic   = [4]byte{0, 'a', 's', 'm'}
	Version = [4]byte{1, 0, 0, 0}
)

// https://webassembly.github.io/spec/core/binary/modules.html#sections
const (
	SectionCustom SectionID = iota
	SectionType
	SectionImport
	SectionFunc
	SectionTable
	SectionMemory
	SectionGlobal
	SectionExport
	SectionStart
	SectionElement
	SectionCode
	SectionData
)

// https://webassembly.github.io/spec/core/binary/types.html
const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c

	// FuncTypeTag prefixes every function type in the type section.
	FuncTypeTag = 0x60
)

// https://webassembly.github.io/spec/core/binary/instructions.html
const (
	OpEnd      Opcode = 0x0b
	OpReturn   Opcode = 0x0f
	OpCall     Opcode = 0x10
	OpI32Const Opcode = 0x41
)

// https://webassembly.github.io/spec/core/binary/modules.html#export-section
const (
	ExtFunc ExtKind = iota
	ExtTable
	ExtMemory
	ExtGlobal
)

var sectionNames = [...]string{
	SectionCustom:  "custom",
	SectionType:    "type",
	SectionImport:  "import",
	SectionFunc:    "function",
	SectionTable:   "table",
	SectionMemory:  "memory",
	SectionGlobal:  "global",
	SectionExport:  "export",
	SectionStart:   "start",
	SectionElement: "element",
	SectionCode:    "code",
	SectionData:    "data",
}

func AppendHeader(b []byte) []byte {
	b = append(b, Magic[:]...)
	b = append(b, Version[:]...)

	return b
}

// AppendSection appends section id followed by length-prefixed payload.
func AppendSection(b []byte, id SectionID, payload []byte) []byte {
	b = append(b, byte(id))
	b = AppendULEB128(b, uint32(len(payload)))
	b = append(b, payload...)

	return b
}

func AppendULEB128(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7

		if v == 0 {
			return append(b, c)
		}

		b = append(b, c|0x80)
	}
}

func AppendSLEB128(b []byte, v int32) []byte {
	x := int64(v)

	for {
		c := byte(x & 0x7f)
		x >>= 7

		if x == 0 && c&0x40 == 0 || x == -1 && c&0x40 != 0 {
			return append(b, c)
		}

		b = append(b, c|0x80)
	}
}

// AppendName appends utf-8 name as a byte vector.
func AppendName(b []byte, s string) []byte {
	b = AppendULEB128(b, uint32(len(s)))
	b = append(b, s...)

	return b
}

func (id SectionID) String() string {
	if int(id) < len(sectionNames) {
		return sectionNames[id]
	}

	return "unknown"
}

func (t ValType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

func (op Opcode) String() string {
	switch op {
	case OpEnd:
		return "end"
	case OpReturn:
		return "return"
	case OpCall:
		return "call"
	case OpI32Const:
		return "i32.const"
	default:
		return "unknown"
	}
}
